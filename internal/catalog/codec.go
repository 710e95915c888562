package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Marshal encodes v without HTML escaping and without a trailing newline.
// Non-ASCII characters are written verbatim.
func Marshal(v any) ([]byte, error) {
	return encode(v, "")
}

// MarshalIndent is Marshal with two-space indentation.
func MarshalIndent(v any) ([]byte, error) {
	return encode(v, "  ")
}

func encode(v any, indent string) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent != "" {
		enc.SetIndent("", indent)
	}
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: encode: %w", ErrSchemaViolation, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// DecodeIndex parses an index document. A null root is rejected.
func DecodeIndex(data []byte) (*Index, error) {
	return decode[Index](data, "index")
}

// DecodePage parses a page document. A null root is rejected.
func DecodePage(data []byte) (*Page, error) {
	return decode[Page](data, "page")
}

func decode[T any](data []byte, what string) (*T, error) {
	var v *T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrSchemaViolation, what, err)
	}
	if v == nil {
		return nil, fmt.Errorf("%w: %s document is null", ErrSchemaViolation, what)
	}
	return v, nil
}
