package utils

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// MaxUploadSize is the largest accepted upload (10MB)
const MaxUploadSize = 10 * 1024 * 1024

var (
	allowedImageExts = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
	}
	unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)
)

// CleanFilename removes any path components and unsafe characters
func CleanFilename(filename string) string {
	return unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "")
}

// ValidateImageExt checks ext (with the leading dot) against the allowed image types
func ValidateImageExt(ext string) error {
	if !allowedImageExts[strings.ToLower(ext)] {
		return fmt.Errorf("unsupported image format. Allowed formats: jpg, jpeg, png, gif")
	}
	return nil
}
