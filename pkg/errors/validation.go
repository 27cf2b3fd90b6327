package errors

import (
	"strings"
	"unicode"
)

// maxIDLength bounds individual identifiers read from pedigree documents.
const maxIDLength = 256

// ValidateID validates an individual identifier taken from a pedigree
// document. Identifiers are opaque to the engine but end up in DOT output,
// cache keys and HTTP responses, so the rules are conservative:
//   - No empty identifiers
//   - No control characters or null bytes
//   - No double quotes (they would break DOT labels)
//   - Maximum length of 256 characters
func ValidateID(id string) error {
	if id == "" {
		return New(ErrCodeInvalidID, "individual id cannot be empty")
	}

	if len(id) > maxIDLength {
		return New(ErrCodeInvalidID, "individual id too long (max %d characters)", maxIDLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidID, "individual id %q contains control characters", id)
		}
	}

	if strings.Contains(id, `"`) {
		return New(ErrCodeInvalidID, "individual id %q contains a double quote", id)
	}

	return nil
}

// ValidateFormat checks a document format name.
func ValidateFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return New(ErrCodeInvalidFormat, "invalid format: %q (must be one of: %s)", format, strings.Join(allowed, ", "))
}
