package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// ErrNotFound is returned by ReadPage when the page does not exist.
var ErrNotFound = errors.New("store: document not found")

// WriteResult is the outcome of an add or update.
type WriteResult int

const (
	// Success means the document was written. The zero value is neither
	// outcome and accompanies a non-nil error.
	Success WriteResult = iota + 1
	// Conflict means the document already existed (add) or its ETag changed (update).
	Conflict
)

func (r WriteResult) String() string {
	switch r {
	case Success:
		return "success"
	case Conflict:
		return "conflict"
	default:
		return fmt.Sprintf("WriteResult(%d)", int(r))
	}
}

// ReadResult pairs a document with the ETag it was read at.
type ReadResult[T any] struct {
	Value *T
	ETag  string
}

// Store reads and writes the index and pages of one catalog.
type Store interface {
	// ReadIndex reports false when no index exists yet.
	ReadIndex(ctx context.Context) (ReadResult[catalog.Index], bool, error)
	AddIndex(ctx context.Context, index *catalog.Index) (WriteResult, error)
	UpdateIndex(ctx context.Context, index *catalog.Index, etag string) (WriteResult, error)

	// ReadPage fails with ErrNotFound when the page does not exist.
	ReadPage(ctx context.Context, id string) (ReadResult[catalog.Page], error)
	AddPage(ctx context.Context, page *catalog.Page) (WriteResult, error)
	UpdatePage(ctx context.Context, page *catalog.Page, etag string) (WriteResult, error)
}

// indexName is the document name of the index relative to the catalog base.
const indexName = "index.json"

// nameFromID strips the catalog base from a document id.
func nameFromID(base, id string) (string, error) {
	if !strings.HasPrefix(id, base) || len(id) == len(base) {
		return "", fmt.Errorf("%w: id %q does not start with %q", catalog.ErrInvalidInput, id, base)
	}
	return id[len(base):], nil
}
