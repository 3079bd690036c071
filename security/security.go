package security

import (
	"mime"
	"net/http"
)

var validContentTypes = map[string]bool{
	"application/json":                  true,
	"application/x-www-form-urlencoded": true,
	"multipart/form-data":               true,
}

// ValidateContentType ensures the request has an accepted content type.
// Parameters such as charset or boundary are ignored.
func ValidateContentType(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return validContentTypes[mediaType]
}

var sensitiveHeaders = []string{
	"Authorization",
	"Cookie",
	"Set-Cookie",
	"X-CSRF-Token",
}

// SanitizeHeaders returns a copy of headers without credentials
func SanitizeHeaders(headers http.Header) http.Header {
	clean := headers.Clone()
	for _, header := range sensitiveHeaders {
		clean.Del(header)
	}
	return clean
}
