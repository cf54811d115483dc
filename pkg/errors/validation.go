package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// ValidateGlob validates a file-matching pattern used to select treebank files.
// Patterns are matched relative to an input directory, so they must not be
// absolute or escape it.
//
// Validation rules:
//   - Pattern cannot be empty
//   - No control characters
//   - No absolute patterns
//   - No parent directory segments (..)
//   - Every segment other than ** must be a well-formed filepath.Match pattern
func ValidateGlob(pattern string) error {
	if pattern == "" {
		return New(ErrCodeInvalidPath, "glob pattern cannot be empty")
	}

	for _, r := range pattern {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "glob pattern contains invalid characters")
		}
	}

	if strings.HasPrefix(pattern, "/") {
		return New(ErrCodeInvalidPath, "glob pattern must be relative (cannot start with /)")
	}

	for _, seg := range strings.Split(pattern, "/") {
		if seg == ".." {
			return New(ErrCodeInvalidPath, "glob pattern cannot contain parent directory segments (..)")
		}
		if seg == "**" {
			continue
		}
		if _, err := filepath.Match(seg, ""); err != nil {
			return Wrap(ErrCodeInvalidPath, err, "malformed glob pattern %q", pattern)
		}
	}

	return nil
}

// ValidateIDPrefix validates a sentence id prefix. Prefixes become part of
// sent_id comment lines, so they must stay on one line and contain no '='.
func ValidateIDPrefix(prefix string) error {
	if strings.ContainsAny(prefix, "\n\r=") {
		return New(ErrCodeInvalidInput, "id prefix cannot contain newlines or '='")
	}
	if len(prefix) > 64 {
		return New(ErrCodeInvalidInput, "id prefix too long (max 64 characters)")
	}
	return nil
}
