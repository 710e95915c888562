package simulate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/source"
	"github.com/joelverhagen/json-append-log/internal/store"
	"github.com/joelverhagen/json-append-log/internal/writer"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// ErrTooManyConflicts is returned when a write keeps conflicting after the
// configured number of retries.
var ErrTooManyConflicts = errors.New("simulate: too many conflicts")

// Mode selects the writer entry point.
type Mode string

const (
	ModeBatch  Mode = "batch"
	ModeSingle Mode = "single"
)

// ParseMode validates a mode name. Empty means batch.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeBatch:
		return ModeBatch, nil
	case ModeSingle:
		return ModeSingle, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want batch or single)", s)
	}
}

// bufferLimit caps the events held before the buffer is drained.
const bufferLimit = 2 * catalog.MaxItemsPerPage

// Options configure a Runner.
type Options struct {
	CatalogBase     string
	LeafBase        string
	Mode            Mode
	ConflictRetries int
	Logger          log.Logger
	// Progress, when set, is called after every successful write.
	Progress func(Stats)
}

// Stats summarizes a run.
type Stats struct {
	Commits   int64
	Events    int64
	Writes    int64
	Conflicts int64
	Elapsed   time.Duration
}

// Runner feeds commits from a source into a writer.
type Runner struct {
	w      *writer.Writer
	opts   Options
	logger log.Logger
	stats  Stats
}

// New returns a Runner writing through w.
func New(w *writer.Writer, opts Options) *Runner {
	if opts.Mode == "" {
		opts.Mode = ModeBatch
	}
	return &Runner{w: w, opts: opts, logger: log.OrDefault(opts.Logger, "simulate")}
}

// Run writes every commit src yields.
func (r *Runner) Run(ctx context.Context, src source.Source) (Stats, error) {
	start := time.Now()

	var (
		buf  []catalog.Commit
		size int
	)
	drain := func() error {
		n, err := r.writeOnce(ctx, buf)
		if err != nil {
			return err
		}
		for _, c := range buf[:n] {
			size -= len(c.Events)
		}
		buf = append(buf[:0], buf[n:]...)
		return nil
	}

	for {
		c, err := src.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return r.result(start), err
		}
		for len(buf) > 0 && size+len(c.Events) > bufferLimit {
			if err := drain(); err != nil {
				return r.result(start), err
			}
		}
		buf = append(buf, c)
		size += len(c.Events)
	}
	for len(buf) > 0 {
		if err := drain(); err != nil {
			return r.result(start), err
		}
	}
	st := r.result(start)
	r.logger.Info("simulation finished",
		log.Int64("commits", st.Commits),
		log.Int64("events", st.Events),
		log.Int64("writes", st.Writes),
		log.Int64("conflicts", st.Conflicts),
		log.Dur("elapsed", st.Elapsed))
	return st, nil
}

func (r *Runner) result(start time.Time) Stats {
	st := r.stats
	st.Elapsed = time.Since(start)
	return st
}

// writeOnce performs one successful writer call, retrying on conflict, and
// returns how many leading commits of buf it consumed.
func (r *Runner) writeOnce(ctx context.Context, buf []catalog.Commit) (int, error) {
	for attempt := 0; ; attempt++ {
		var (
			res    store.WriteResult
			n      int
			events int
			err    error
		)
		switch r.opts.Mode {
		case ModeSingle:
			res, err = r.w.WriteOne(ctx, buf[0], r.opts.CatalogBase, r.opts.LeafBase)
			n, events = 1, len(buf[0].Events)
		default:
			var br writer.BatchResult
			br, err = r.w.WriteBatch(ctx, buf, r.opts.CatalogBase, r.opts.LeafBase)
			res, n, events = br.Result, br.Written, br.Events
		}
		if err != nil {
			return 0, err
		}
		if res == store.Success {
			r.stats.Commits += int64(n)
			r.stats.Events += int64(events)
			r.stats.Writes++
			if r.opts.Progress != nil {
				r.opts.Progress(r.stats)
			}
			return n, nil
		}

		r.stats.Conflicts++
		if attempt >= r.opts.ConflictRetries {
			return 0, fmt.Errorf("%w: commit %s after %d attempts", ErrTooManyConflicts, buf[0].ID, attempt+1)
		}
		r.logger.Warn("write conflicted, retrying", log.Str(log.CommitIDKey, buf[0].ID), log.Int("attempt", attempt+1))
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-time.After(time.Duration(attempt+1) * 10 * time.Millisecond):
		}
	}
}
