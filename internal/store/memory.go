package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/pkg/id"
)

type memEntry struct {
	data []byte
	etag string
}

// Memory keeps serialized documents in process memory.
type Memory struct {
	gen *id.Generator

	mu    sync.Mutex
	index *memEntry
	pages map[string]memEntry
}

// MemoryStats reports the encoded size of everything stored.
type MemoryStats struct {
	IndexBytes int
	PageBytes  int64
	Pages      int
}

// NewMemory returns an empty store drawing ETags from gen. A nil gen starts
// a private generator at zero.
func NewMemory(gen *id.Generator) *Memory {
	if gen == nil {
		gen = id.NewGenerator(0)
	}
	return &Memory{gen: gen, pages: make(map[string]memEntry)}
}

func (m *Memory) ReadIndex(ctx context.Context) (ReadResult[catalog.Index], bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil {
		return ReadResult[catalog.Index]{}, false, nil
	}
	x, err := catalog.DecodeIndex(m.index.data)
	if err != nil {
		return ReadResult[catalog.Index]{}, false, err
	}
	return ReadResult[catalog.Index]{Value: x, ETag: m.index.etag}, true, nil
}

func (m *Memory) AddIndex(ctx context.Context, index *catalog.Index) (WriteResult, error) {
	data, err := catalog.Marshal(index)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index != nil {
		return Conflict, nil
	}
	m.index = &memEntry{data: data, etag: m.gen.ETag()}
	return Success, nil
}

func (m *Memory) UpdateIndex(ctx context.Context, index *catalog.Index, etag string) (WriteResult, error) {
	data, err := catalog.Marshal(index)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.index == nil || m.index.etag != etag {
		return Conflict, nil
	}
	m.index = &memEntry{data: data, etag: m.gen.ETag()}
	return Success, nil
}

func (m *Memory) ReadPage(ctx context.Context, pageID string) (ReadResult[catalog.Page], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pages[pageID]
	if !ok {
		return ReadResult[catalog.Page]{}, fmt.Errorf("%w: page %s", ErrNotFound, pageID)
	}
	p, err := catalog.DecodePage(e.data)
	if err != nil {
		return ReadResult[catalog.Page]{}, err
	}
	return ReadResult[catalog.Page]{Value: p, ETag: e.etag}, nil
}

func (m *Memory) AddPage(ctx context.Context, page *catalog.Page) (WriteResult, error) {
	data, err := catalog.Marshal(page)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.pages[page.ID]; ok {
		return Conflict, nil
	}
	m.pages[page.ID] = memEntry{data: data, etag: m.gen.ETag()}
	return Success, nil
}

func (m *Memory) UpdatePage(ctx context.Context, page *catalog.Page, etag string) (WriteResult, error) {
	data, err := catalog.Marshal(page)
	if err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.pages[page.ID]
	if !ok || e.etag != etag {
		return Conflict, nil
	}
	m.pages[page.ID] = memEntry{data: data, etag: m.gen.ETag()}
	return Success, nil
}

// Stats returns the current storage footprint.
func (m *Memory) Stats() MemoryStats {
	m.mu.Lock()
	defer m.mu.Unlock()
	var s MemoryStats
	if m.index != nil {
		s.IndexBytes = len(m.index.data)
	}
	for _, e := range m.pages {
		s.PageBytes += int64(len(e.data))
	}
	s.Pages = len(m.pages)
	return s
}

// Raw returns the stored bytes of a document: the index for "" or a page id.
func (m *Memory) Raw(docID string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if docID == "" {
		if m.index == nil {
			return nil, false
		}
		return append([]byte(nil), m.index.data...), true
	}
	e, ok := m.pages[docID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), e.data...), true
}
