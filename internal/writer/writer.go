package writer

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/store"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// ErrCorruptIndex is returned when an existing index has no open page or its
// count disagrees with its items.
var ErrCorruptIndex = errors.New("writer: corrupt index")

// Writer turns commits into index and page mutations.
type Writer struct {
	store  store.Store
	logger log.Logger

	pagesAdded   atomic.Int64
	pagesUpdated atomic.Int64
	indexWrites  atomic.Int64
	conflicts    atomic.Int64
}

// Stats counts successful document writes and conflicts since New.
type Stats struct {
	PagesAdded   int64
	PagesUpdated int64
	IndexWrites  int64
	Conflicts    int64
}

// BatchResult reports the outcome of WriteBatch.
type BatchResult struct {
	Result store.WriteResult
	// Written is how many leading commits were persisted. Zero on Conflict.
	Written int
	// Events is the number of leaf items persisted.
	Events int
}

// New returns a Writer over s.
func New(s store.Store, logger log.Logger) *Writer {
	return &Writer{store: s, logger: log.OrDefault(logger, "writer")}
}

// Stats returns a snapshot of the counters.
func (w *Writer) Stats() Stats {
	return Stats{
		PagesAdded:   w.pagesAdded.Load(),
		PagesUpdated: w.pagesUpdated.Load(),
		IndexWrites:  w.indexWrites.Load(),
		Conflicts:    w.conflicts.Load(),
	}
}

// WriteOne appends a single commit.
func (w *Writer) WriteOne(ctx context.Context, c catalog.Commit, catalogBase, leafBase string) (store.WriteResult, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	res, err := w.write(ctx, []catalog.Commit{c}, catalogBase, leafBase)
	return res.Result, err
}

// WriteBatch appends the longest prefix of commits that fits one page
// mutation, then writes the index once. Commits must be ascending by
// timestamp; callers loop until every commit is written.
func (w *Writer) WriteBatch(ctx context.Context, commits []catalog.Commit, catalogBase, leafBase string) (BatchResult, error) {
	if len(commits) == 0 {
		return BatchResult{}, fmt.Errorf("%w: empty commit batch", catalog.ErrInvalidInput)
	}
	for i, c := range commits {
		if err := c.Validate(); err != nil {
			return BatchResult{}, err
		}
		if i > 0 && c.Timestamp.Before(commits[i-1].Timestamp) {
			return BatchResult{}, fmt.Errorf("%w: commit %s at %s precedes %s",
				catalog.ErrInvalidInput, c.ID, catalog.NewTime(c.Timestamp), catalog.NewTime(commits[i-1].Timestamp))
		}
	}
	return w.write(ctx, commits, catalogBase, leafBase)
}

type state struct {
	index  *catalog.Index
	etag   string
	exists bool
	open   int
}

func (w *Writer) load(ctx context.Context, catalogBase string) (*state, error) {
	res, ok, err := w.store.ReadIndex(ctx)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &state{index: newIndex(catalogBase), open: -1}, nil
	}
	x := res.Value
	if x.ID != catalog.IndexID(catalogBase) {
		return nil, fmt.Errorf("%w: index %s is not under %s", catalog.ErrInvalidInput, x.ID, catalogBase)
	}
	if x.Count != len(x.Items) {
		return nil, fmt.Errorf("%w: count %d with %d items", ErrCorruptIndex, x.Count, len(x.Items))
	}
	open := x.OpenPage()
	if open < 0 {
		return nil, fmt.Errorf("%w: no page item has commit %s", ErrCorruptIndex, x.CommitID)
	}
	return &state{index: x, etag: res.ETag, exists: true, open: open}, nil
}

func newIndex(catalogBase string) *catalog.Index {
	return &catalog.Index{
		ID:      catalog.IndexID(catalogBase),
		Type:    catalog.IndexTypes(),
		Items:   []catalog.PageItem{},
		Context: catalog.DefaultContext(),
	}
}

// pack returns the longest prefix of commits whose events fit in room.
func pack(commits []catalog.Commit, room int) []catalog.Commit {
	n, used := 0, 0
	for _, c := range commits {
		if used+len(c.Events) > room {
			break
		}
		used += len(c.Events)
		n++
	}
	return commits[:n]
}

func (w *Writer) write(ctx context.Context, commits []catalog.Commit, catalogBase, leafBase string) (BatchResult, error) {
	st, err := w.load(ctx, catalogBase)
	if err != nil {
		return BatchResult{}, err
	}
	if st.exists && commits[0].Timestamp.Before(st.index.CommitTimestamp.Time) {
		return BatchResult{}, fmt.Errorf("%w: commit %s at %s precedes the catalog's last commit at %s",
			catalog.ErrInvalidInput, commits[0].ID, catalog.NewTime(commits[0].Timestamp), st.index.CommitTimestamp)
	}

	var packed []catalog.Commit
	if st.open >= 0 {
		packed = pack(commits, catalog.MaxItemsPerPage-st.index.Items[st.open].Count)
	}

	var res store.WriteResult
	if len(packed) > 0 {
		res, err = w.appendToOpen(ctx, st, packed, leafBase)
	} else {
		packed = pack(commits, catalog.MaxItemsPerPage)
		if len(packed) == 0 {
			// A commit larger than a page is split across fresh pages.
			packed = commits[:1]
		}
		res, err = w.addPages(ctx, st, packed, catalogBase, leafBase)
	}
	if err != nil || res == store.Conflict {
		return w.conflicted(res, err)
	}

	last := packed[len(packed)-1]
	res, err = w.writeIndex(ctx, st, last)
	if err != nil || res == store.Conflict {
		return w.conflicted(res, err)
	}

	events := 0
	for _, c := range packed {
		events += len(c.Events)
	}
	w.logger.Debug("catalog commit written",
		log.Str(log.CommitIDKey, last.ID),
		log.Int("commits", len(packed)),
		log.Int("events", events),
		log.Int("pages", st.index.Count))
	return BatchResult{Result: store.Success, Written: len(packed), Events: events}, nil
}

func (w *Writer) conflicted(res store.WriteResult, err error) (BatchResult, error) {
	if err != nil {
		return BatchResult{}, err
	}
	w.conflicts.Add(1)
	return BatchResult{Result: res}, nil
}

func (w *Writer) appendToOpen(ctx context.Context, st *state, packed []catalog.Commit, leafBase string) (store.WriteResult, error) {
	item := &st.index.Items[st.open]
	read, err := w.store.ReadPage(ctx, item.ID)
	if err != nil {
		return 0, fmt.Errorf("open page %s: %w", item.ID, err)
	}
	page := read.Value
	for _, c := range packed {
		page.Items = append(page.Items, c.LeafItems(leafBase)...)
	}
	if len(page.Items) > catalog.MaxItemsPerPage {
		return 0, fmt.Errorf("%w: page %s would hold %d items while its page item says %d",
			ErrCorruptIndex, page.ID, len(page.Items), item.Count)
	}
	last := packed[len(packed)-1]
	page.CommitID = last.ID
	page.CommitTimestamp = catalog.NewTime(last.Timestamp)
	page.Count = len(page.Items)

	res, err := w.store.UpdatePage(ctx, page, read.ETag)
	if err != nil || res == store.Conflict {
		return res, err
	}
	w.pagesUpdated.Add(1)
	*item = page.Summary()
	return store.Success, nil
}

func (w *Writer) addPages(ctx context.Context, st *state, packed []catalog.Commit, catalogBase, leafBase string) (store.WriteResult, error) {
	var leaves []catalog.LeafItem
	for _, c := range packed {
		leaves = append(leaves, c.LeafItems(leafBase)...)
	}
	last := packed[len(packed)-1]
	for start := 0; start < len(leaves); start += catalog.MaxItemsPerPage {
		end := min(start+catalog.MaxItemsPerPage, len(leaves))
		page := &catalog.Page{
			ID:              catalog.PageID(catalogBase, len(st.index.Items)),
			Type:            catalog.PageType,
			CommitID:        last.ID,
			CommitTimestamp: catalog.NewTime(last.Timestamp),
			Count:           end - start,
			Parent:          st.index.ID,
			Items:           leaves[start:end],
			Context:         catalog.DefaultContext(),
		}
		res, err := w.store.AddPage(ctx, page)
		if err != nil || res == store.Conflict {
			return res, err
		}
		w.pagesAdded.Add(1)
		st.index.Items = append(st.index.Items, page.Summary())
	}
	st.index.Count = len(st.index.Items)
	return store.Success, nil
}

func (w *Writer) writeIndex(ctx context.Context, st *state, last catalog.Commit) (store.WriteResult, error) {
	x := st.index
	x.CommitID = last.ID
	x.CommitTimestamp = catalog.NewTime(last.Timestamp)
	x.LastCreated = catalog.NewTime(last.LastCreated)
	x.LastEdited = catalog.NewTime(last.LastEdited)
	x.LastDeleted = catalog.NewTime(last.LastDeleted)
	x.Count = len(x.Items)

	var (
		res store.WriteResult
		err error
	)
	if st.exists {
		res, err = w.store.UpdateIndex(ctx, x, st.etag)
	} else {
		res, err = w.store.AddIndex(ctx, x)
	}
	if err == nil && res == store.Success {
		w.indexWrites.Add(1)
	}
	return res, err
}
