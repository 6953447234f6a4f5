package errors

import (
	"net/url"
	"strings"
	"unicode"
)

// ParseHTTPURI parses raw as an absolute http or https URI.
//
// The validation rules are intentionally narrow:
//   - No empty strings
//   - No control characters
//   - Must parse with [url.Parse]
//   - Scheme must be http or https, and a host must be present
//
// Any violation yields an ErrCodeMalformedURI error.
func ParseHTTPURI(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, New(ErrCodeMalformedURI, "URI cannot be empty")
	}
	for _, r := range raw {
		if unicode.IsControl(r) {
			return nil, New(ErrCodeMalformedURI, "URI contains control characters: %q", raw)
		}
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, Wrap(ErrCodeMalformedURI, err, "parse %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, New(ErrCodeMalformedURI, "URI must use http or https scheme: %q", raw)
	}
	if u.Host == "" {
		return nil, New(ErrCodeMalformedURI, "URI has no host: %q", raw)
	}
	return u, nil
}

// ValidatePath validates a file path below a served directory.
// It prevents path traversal and ensures reasonable path length.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidInput, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidInput, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidInput, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidInput, "path cannot contain backslashes")
	}

	return nil
}
