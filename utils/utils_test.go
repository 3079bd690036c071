package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "hello", SanitizeInput("  hello  "))
	assert.Equal(t, "a b", SanitizeInput("a<script>alert(1)</script> b"))
	assert.Equal(t, "&lt;b&gt;x&lt;/b&gt;", SanitizeInput("<b>x</b>"))
	assert.Equal(t, "ab", SanitizeInput("a\x00b"))
}

func TestSanitizeEmail(t *testing.T) {
	email, err := SanitizeEmail("  Worker@Example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "worker@example.com", email)

	_, err = SanitizeEmail("not-an-email")
	assert.Error(t, err)
}

func TestCleanFilename(t *testing.T) {
	assert.Equal(t, "passwd", CleanFilename("../../etc/passwd"))
	assert.Equal(t, "myphoto.png", CleanFilename("my photo!.png"))
}

func TestValidateImageExt(t *testing.T) {
	assert.NoError(t, ValidateImageExt(".JPG"))
	assert.NoError(t, ValidateImageExt(".png"))
	assert.Error(t, ValidateImageExt(".svg"))
	assert.Error(t, ValidateImageExt(".exe"))
}
