package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// File keeps one JSON file per document below a root directory. Document ids
// map to paths by stripping the catalog base URL.
type File struct {
	base string
	dir  string
	mu   sync.Mutex
}

// NewFile creates dir if needed and returns a store rooted there.
func NewFile(catalogBase, dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	return &File{base: catalogBase, dir: dir}, nil
}

// Dir returns the root directory.
func (f *File) Dir() string { return f.dir }

func (f *File) path(docID string) (string, error) {
	name, err := nameFromID(f.base, docID)
	if err != nil {
		return "", err
	}
	p := filepath.Join(f.dir, filepath.FromSlash(name))
	rel, err := filepath.Rel(f.dir, p)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: id %q escapes the catalog dir", catalog.ErrInvalidInput, docID)
	}
	return p, nil
}

func fileETag(info fs.FileInfo) string {
	return `"` + strconv.FormatInt(info.ModTime().UnixNano(), 10) + `"`
}

func (f *File) read(path string) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, "", err
	}
	return data, fileETag(info), nil
}

func (f *File) ReadIndex(ctx context.Context) (ReadResult[catalog.Index], bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, etag, err := f.read(filepath.Join(f.dir, indexName))
	if errors.Is(err, fs.ErrNotExist) {
		return ReadResult[catalog.Index]{}, false, nil
	}
	if err != nil {
		return ReadResult[catalog.Index]{}, false, fmt.Errorf("read index: %w", err)
	}
	x, err := catalog.DecodeIndex(data)
	if err != nil {
		return ReadResult[catalog.Index]{}, false, err
	}
	return ReadResult[catalog.Index]{Value: x, ETag: etag}, true, nil
}

func (f *File) AddIndex(ctx context.Context, index *catalog.Index) (WriteResult, error) {
	return f.add(index.ID, index)
}

func (f *File) UpdateIndex(ctx context.Context, index *catalog.Index, etag string) (WriteResult, error) {
	return f.update(index.ID, index, etag)
}

func (f *File) ReadPage(ctx context.Context, pageID string) (ReadResult[catalog.Page], error) {
	path, err := f.path(pageID)
	if err != nil {
		return ReadResult[catalog.Page]{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, etag, err := f.read(path)
	if errors.Is(err, fs.ErrNotExist) {
		return ReadResult[catalog.Page]{}, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	if err != nil {
		return ReadResult[catalog.Page]{}, fmt.Errorf("read page %s: %w", pageID, err)
	}
	p, err := catalog.DecodePage(data)
	if err != nil {
		return ReadResult[catalog.Page]{}, err
	}
	return ReadResult[catalog.Page]{Value: p, ETag: etag}, nil
}

func (f *File) AddPage(ctx context.Context, page *catalog.Page) (WriteResult, error) {
	return f.add(page.ID, page)
}

func (f *File) UpdatePage(ctx context.Context, page *catalog.Page, etag string) (WriteResult, error) {
	return f.update(page.ID, page, etag)
}

func (f *File) add(docID string, v any) (WriteResult, error) {
	path, err := f.path(docID)
	if err != nil {
		return 0, err
	}
	data, err := catalog.Marshal(v)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, err
	}
	fh, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return Conflict, nil
	}
	if err != nil {
		return 0, fmt.Errorf("create %s: %w", docID, err)
	}
	if _, err := fh.Write(data); err != nil {
		fh.Close()
		os.Remove(path)
		return 0, fmt.Errorf("write %s: %w", docID, err)
	}
	if err := fh.Close(); err != nil {
		os.Remove(path)
		return 0, fmt.Errorf("close %s: %w", docID, err)
	}
	return Success, nil
}

func (f *File) update(docID string, v any, etag string) (WriteResult, error) {
	path, err := f.path(docID)
	if err != nil {
		return 0, err
	}
	data, err := catalog.Marshal(v)
	if err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	before, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Conflict, nil
	}
	if err != nil {
		return 0, err
	}
	if fileETag(before) != etag {
		return Conflict, nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return 0, err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return 0, fmt.Errorf("write %s: %w", docID, err)
	}
	if err := tmp.Close(); err != nil {
		return 0, err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("replace %s: %w", docID, err)
	}

	// Coarse filesystem clocks can repeat a modification time; the ETag must move.
	after, err := os.Stat(path)
	if err != nil {
		return 0, err
	}
	if !after.ModTime().After(before.ModTime()) {
		bumped := before.ModTime().Add(time.Microsecond)
		if err := os.Chtimes(path, time.Now(), bumped); err != nil {
			return 0, err
		}
	}
	return Success, nil
}
