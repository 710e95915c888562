package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned for commits or batches that cannot be written.
	ErrInvalidInput = errors.New("catalog: invalid input")
	// ErrSchemaViolation is returned when a document cannot be encoded or decoded.
	ErrSchemaViolation = errors.New("catalog: schema violation")
	// ErrNonUTC is returned when a timestamp carries a non-zero UTC offset.
	ErrNonUTC = fmt.Errorf("%w: only UTC timestamps are supported", ErrSchemaViolation)
)
