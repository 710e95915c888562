package replaycache

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/cockroachdb/pebble"

	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
)

// Cache is the commit store.
type Cache struct {
	db *pebblestore.DB

	mu      sync.Mutex
	commits int64
	events  int64
}

// Open loads the totals from db.
func Open(db *pebblestore.DB) (*Cache, error) {
	c := &Cache{db: db}
	meta, err := db.Get(metaKey)
	switch {
	case errors.Is(err, pebblestore.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("replaycache: load totals: %w", err)
	case len(meta) != 16:
		return nil, fmt.Errorf("%w: totals are %d bytes", ErrCorruptRecord, len(meta))
	default:
		c.commits = int64(binary.BigEndian.Uint64(meta[:8]))
		c.events = int64(binary.BigEndian.Uint64(meta[8:]))
	}
	return c, nil
}

// CommitCount returns the number of cached commits.
func (c *Cache) CommitCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commits
}

// EventCount returns the sum of the declared event counts.
func (c *Cache) EventCount() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.events
}

// Clear removes every record and resets the totals.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.db.Update(ctx, func(b *pebble.Batch) error {
		return b.DeleteRange(cachePrefix, pebblestore.PrefixUpperBound(cachePrefix), nil)
	})
	if err != nil {
		return err
	}
	c.commits, c.events = 0, 0
	return nil
}

// Batch accumulates records for one atomic commit.
type Batch struct {
	c       *Cache
	b       *pebble.Batch
	seen    map[string]struct{}
	commits int64
	events  int64
}

// NewBatch starts a batch. Close it when done.
func (c *Cache) NewBatch() *Batch {
	return &Batch{c: c, b: c.db.NewBatch(), seen: make(map[string]struct{})}
}

// Add stages r. It reports false when the commit is already cached or staged.
func (b *Batch) Add(r Record) (bool, error) {
	key := KeyCommit(r.Ticks, r.ID)
	if _, ok := b.seen[string(key)]; ok {
		return false, nil
	}
	exists, err := b.c.db.Has(key)
	if err != nil {
		return false, err
	}
	if exists {
		return false, nil
	}
	val, err := r.encode()
	if err != nil {
		return false, err
	}
	if err := b.b.Set(key, val, nil); err != nil {
		return false, err
	}
	b.seen[string(key)] = struct{}{}
	b.commits++
	b.events += int64(r.Count)
	return true, nil
}

// Len returns the number of staged records.
func (b *Batch) Len() int { return int(b.commits) }

// Commit writes the staged records and the new totals atomically.
func (b *Batch) Commit(ctx context.Context) error {
	b.c.mu.Lock()
	defer b.c.mu.Unlock()
	commits, events := b.c.commits+b.commits, b.c.events+b.events
	var meta [16]byte
	binary.BigEndian.PutUint64(meta[:8], uint64(commits))
	binary.BigEndian.PutUint64(meta[8:], uint64(events))
	if err := b.b.Set(metaKey, meta[:], nil); err != nil {
		return err
	}
	if err := b.c.db.CommitBatch(ctx, b.b); err != nil {
		return err
	}
	b.c.commits, b.c.events = commits, events
	return nil
}

// Close releases the batch.
func (b *Batch) Close() error { return b.b.Close() }

// Iterator walks records in (timestamp, id) order over a snapshot.
type Iterator struct {
	snap    *pebble.Snapshot
	it      *pebble.Iterator
	started bool
	rec     Record
	err     error
}

// Iter returns an iterator positioned before the first record.
func (c *Cache) Iter() (*Iterator, error) {
	snap := c.db.NewSnapshot()
	it, err := snap.NewIter(pebblestore.PrefixOptions(commitPrefix))
	if err != nil {
		_ = snap.Close()
		return nil, err
	}
	return &Iterator{snap: snap, it: it}, nil
}

// Next advances to the next record.
func (i *Iterator) Next() bool {
	if i.err != nil {
		return false
	}
	var ok bool
	if !i.started {
		i.started = true
		ok = i.it.First()
	} else {
		ok = i.it.Next()
	}
	if !ok {
		i.err = i.it.Error()
		return false
	}
	i.rec, i.err = decodeRecord(i.it.Key(), i.it.Value())
	return i.err == nil
}

// Record returns the current record.
func (i *Iterator) Record() Record { return i.rec }

// Err returns the error that stopped iteration, if any.
func (i *Iterator) Err() error { return i.err }

// Close releases the iterator and its snapshot.
func (i *Iterator) Close() error {
	err := i.it.Close()
	if serr := i.snap.Close(); err == nil {
		err = serr
	}
	return err
}
