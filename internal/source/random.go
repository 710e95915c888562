package source

import (
	"context"
	"io"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/pkg/id"
)

// Random generates synthetic commits of 1 to MaxRandomEvents details events
// until the requested number of events has been produced. The output depends
// only on the generator's starting counter.
type Random struct {
	gen       *id.Generator
	remaining int64
}

// NewRandom returns a source producing events events from gen.
func NewRandom(gen *id.Generator, events int64) *Random {
	return &Random{gen: gen, remaining: events}
}

// Remaining returns the events still to be produced.
func (r *Random) Remaining() int64 { return r.remaining }

func (r *Random) Next(ctx context.Context) (catalog.Commit, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Commit{}, err
	}
	if r.remaining <= 0 {
		return catalog.Commit{}, io.EOF
	}
	n := r.gen.Intn(1, int(min(MaxRandomEvents, r.remaining))+1)
	c := catalog.Commit{
		ID:        r.gen.UUID().String(),
		Timestamp: r.gen.Time(),
		Events:    make([]catalog.PackageEvent, 0, n),
	}
	for i := 0; i < n; i++ {
		c.Events = append(c.Events, catalog.PackageEvent{
			ID:      r.gen.PackageID(),
			Version: r.gen.PackageVersion(),
			Kind:    catalog.Details,
		})
	}
	c.LastCreated = r.gen.Time()
	c.LastEdited = r.gen.Time()
	c.LastDeleted = r.gen.Time()
	r.remaining -= int64(n)
	return c, nil
}
