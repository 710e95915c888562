package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/joelverhagen/json-append-log/internal/blob"
	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// BlobAPI is the slice of a blob service the store needs. Both blob.Service
// and blob.Client satisfy it.
type BlobAPI interface {
	Get(ctx context.Context, container, name string) (blob.Blob, error)
	Put(ctx context.Context, container, name string, data []byte, opts blob.PutOptions) (string, error)
}

const jsonContentType = "application/json"

// Blob stores documents as blobs in one container. Conflicts are detected by
// the blob service through If-None-Match and If-Match preconditions.
type Blob struct {
	api       BlobAPI
	container string
	base      string
}

// NewBlob returns a store writing below catalogBase into container.
func NewBlob(api BlobAPI, container, catalogBase string) *Blob {
	return &Blob{api: api, container: container, base: catalogBase}
}

func (b *Blob) ReadIndex(ctx context.Context) (ReadResult[catalog.Index], bool, error) {
	got, err := b.api.Get(ctx, b.container, indexName)
	if errors.Is(err, blob.ErrNotFound) {
		return ReadResult[catalog.Index]{}, false, nil
	}
	if err != nil {
		return ReadResult[catalog.Index]{}, false, fmt.Errorf("read index: %w", err)
	}
	x, err := catalog.DecodeIndex(got.Data)
	if err != nil {
		return ReadResult[catalog.Index]{}, false, err
	}
	return ReadResult[catalog.Index]{Value: x, ETag: got.ETag}, true, nil
}

func (b *Blob) AddIndex(ctx context.Context, index *catalog.Index) (WriteResult, error) {
	return b.put(ctx, index.ID, index, blob.PutOptions{IfNoneMatch: true})
}

func (b *Blob) UpdateIndex(ctx context.Context, index *catalog.Index, etag string) (WriteResult, error) {
	return b.put(ctx, index.ID, index, blob.PutOptions{IfMatch: etag})
}

func (b *Blob) ReadPage(ctx context.Context, pageID string) (ReadResult[catalog.Page], error) {
	name, err := nameFromID(b.base, pageID)
	if err != nil {
		return ReadResult[catalog.Page]{}, err
	}
	got, err := b.api.Get(ctx, b.container, name)
	if errors.Is(err, blob.ErrNotFound) {
		return ReadResult[catalog.Page]{}, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	if err != nil {
		return ReadResult[catalog.Page]{}, fmt.Errorf("read page %s: %w", pageID, err)
	}
	p, err := catalog.DecodePage(got.Data)
	if err != nil {
		return ReadResult[catalog.Page]{}, err
	}
	return ReadResult[catalog.Page]{Value: p, ETag: got.ETag}, nil
}

func (b *Blob) AddPage(ctx context.Context, page *catalog.Page) (WriteResult, error) {
	return b.put(ctx, page.ID, page, blob.PutOptions{IfNoneMatch: true})
}

func (b *Blob) UpdatePage(ctx context.Context, page *catalog.Page, etag string) (WriteResult, error) {
	return b.put(ctx, page.ID, page, blob.PutOptions{IfMatch: etag})
}

func (b *Blob) put(ctx context.Context, docID string, v any, opts blob.PutOptions) (WriteResult, error) {
	if opts.IfMatch == "" && !opts.IfNoneMatch {
		return 0, fmt.Errorf("%w: update of %s without an etag", catalog.ErrInvalidInput, docID)
	}
	name, err := nameFromID(b.base, docID)
	if err != nil {
		return 0, err
	}
	data, err := catalog.Marshal(v)
	if err != nil {
		return 0, err
	}
	opts.ContentType = jsonContentType
	_, err = b.api.Put(ctx, b.container, name, data, opts)
	switch {
	case err == nil:
		return Success, nil
	case errors.Is(err, blob.ErrConflict), errors.Is(err, blob.ErrPreconditionFailed):
		return Conflict, nil
	default:
		return 0, fmt.Errorf("write %s: %w", docID, err)
	}
}
