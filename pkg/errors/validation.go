package errors

import (
	"strings"
	"unicode"
)

// maxIdentityLength bounds node identities accepted from input files.
const maxIdentityLength = 1024

// ValidateIdentity validates a node identity read from input.
//
// The validation rules are intentionally conservative:
//   - No empty identities
//   - No control characters or null bytes
//   - Maximum length of 1024 bytes
func ValidateIdentity(id string) error {
	if id == "" {
		return New(ErrCodeInvalidInput, "node id cannot be empty")
	}

	if len(id) > maxIdentityLength {
		return New(ErrCodeInvalidInput, "node id too long (max %d characters)", maxIdentityLength)
	}

	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "node id %q contains control characters", id)
		}
	}

	return nil
}

// ValidatePath validates an output file path for safety.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 4096 characters
//   - No null bytes or control characters
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 4096
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	return nil
}

// ValidateSetName validates the name under which an indexed set is stored.
// Names are used as storage keys, so path-like sequences are rejected.
func ValidateSetName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidInput, "set name cannot be empty")
	}
	if len(name) > 256 {
		return New(ErrCodeInvalidInput, "set name too long (max 256 characters)")
	}
	if strings.ContainsAny(name, "/\\$\x00") || strings.Contains(name, "..") {
		return New(ErrCodeInvalidInput, "set name contains invalid characters: %q", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidInput, "set name contains control characters")
		}
	}
	return nil
}
