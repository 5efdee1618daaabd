package errors

import (
	"strings"
	"unicode"
)

// MaxIDLength is the longest trace or node id accepted from users.
const MaxIDLength = 256

// ValidateID validates a trace or node id received from a user before it
// reaches a trace source. kind names the id in messages ("trace id",
// "item id").
//
// The validation rules are intentionally conservative:
//   - No empty ids
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of MaxIDLength characters
func ValidateID(kind, id string) error {
	if strings.TrimSpace(id) == "" {
		return New(ErrCodeInvalidID, "%s cannot be empty", kind)
	}

	if len(id) > MaxIDLength {
		return New(ErrCodeInvalidID, "%s too long (max %d characters)", kind, MaxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "%s contains invalid control characters", kind)
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(id, pattern) {
			return New(ErrCodeInvalidID, "%s contains invalid characters: %q", kind, pattern)
		}
	}

	return nil
}

// ValidateOutputPath validates a path an artifact is written to. It rejects
// empty paths and control characters; anything else is left to the file
// system.
func ValidateOutputPath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidInput, "output path cannot be empty")
	}
	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "output path contains invalid characters")
		}
	}
	if strings.HasSuffix(path, "/") {
		return New(ErrCodeInvalidInput, "output path %q is a directory", path)
	}
	return nil
}
