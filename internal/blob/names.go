package blob

import (
	"fmt"
	"strings"
)

// ValidateContainerName accepts 3-63 lowercase letters, digits and single
// hyphens, starting and ending with a letter or digit.
func ValidateContainerName(name string) error {
	if len(name) < 3 || len(name) > 63 {
		return fmt.Errorf("%w: container %q must be 3-63 characters", ErrInvalidName, name)
	}
	if name == "healthz" {
		return fmt.Errorf("%w: container name %q is reserved", ErrInvalidName, name)
	}
	for i := 0; i < len(name); i++ {
		c := name[i]
		switch {
		case c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		case c == '-' && i > 0 && i < len(name)-1 && name[i-1] != '-':
		default:
			return fmt.Errorf("%w: container %q", ErrInvalidName, name)
		}
	}
	return nil
}

// ValidateBlobName rejects empty names and names with empty path segments.
func ValidateBlobName(name string) error {
	if name == "" || len(name) > 1024 {
		return fmt.Errorf("%w: blob name length", ErrInvalidName)
	}
	for _, seg := range strings.Split(name, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return fmt.Errorf("%w: blob %q", ErrInvalidName, name)
		}
	}
	return nil
}
