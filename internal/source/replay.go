package source

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/replaycache"
)

// ErrCountMismatch is returned when a cached commit's declared count differs
// from its item list.
var ErrCountMismatch = errors.New("source: commit size mismatch")

// Replay yields cached commits oldest first, stopping after budget events.
// The last commit is truncated when the budget ends inside it.
type Replay struct {
	it        *replaycache.Iterator
	filter    Filter
	remaining int64
}

// NewReplay replays at most budget events from cache.
func NewReplay(cache *replaycache.Cache, budget int64, filter Filter) (*Replay, error) {
	it, err := cache.Iter()
	if err != nil {
		return nil, err
	}
	return &Replay{it: it, filter: filter, remaining: budget}, nil
}

func (r *Replay) Next(ctx context.Context) (catalog.Commit, error) {
	for {
		if err := ctx.Err(); err != nil {
			return catalog.Commit{}, err
		}
		if r.remaining <= 0 {
			return catalog.Commit{}, io.EOF
		}
		if !r.it.Next() {
			if err := r.it.Err(); err != nil {
				return catalog.Commit{}, err
			}
			return catalog.Commit{}, io.EOF
		}
		rec := r.it.Record()
		if rec.Count != len(rec.Items) {
			return catalog.Commit{}, fmt.Errorf("%w for commit %s: %d != %d", ErrCountMismatch, rec.ID, rec.Count, len(rec.Items))
		}
		c := toCommit(rec)
		if r.filter.Enabled() {
			kept := c.Events[:0]
			for _, e := range c.Events {
				if r.filter.Keep(c.ID, c.Timestamp, e) {
					kept = append(kept, e)
				}
			}
			c.Events = kept
		}
		if len(c.Events) == 0 {
			continue
		}
		if int64(len(c.Events)) > r.remaining {
			c.Events = c.Events[:r.remaining]
		}
		r.remaining -= int64(len(c.Events))
		return c, nil
	}
}

// Close releases the cache iterator.
func (r *Replay) Close() error { return r.it.Close() }

func toCommit(rec replaycache.Record) catalog.Commit {
	ts := rec.Timestamp()
	c := catalog.Commit{
		ID:          rec.ID.String(),
		Timestamp:   ts,
		Events:      make([]catalog.PackageEvent, 0, len(rec.Items)),
		LastCreated: ts,
		LastEdited:  ts,
		LastDeleted: ts,
	}
	kind := rec.Kind()
	for _, item := range rec.Items {
		c.Events = append(c.Events, catalog.PackageEvent{ID: item[0], Version: item[1], Kind: kind})
	}
	return c
}
