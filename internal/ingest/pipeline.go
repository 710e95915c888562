package ingest

import (
	"context"
	"fmt"
	"sort"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/replaycache"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// Fetcher reads catalog documents. reader.Client satisfies it.
type Fetcher interface {
	ReadIndex(ctx context.Context, url string) (*catalog.Index, error)
	ReadPage(ctx context.Context, url string) (*catalog.Page, error)
}

// Options tune the pipeline. Zero values take the defaults.
type Options struct {
	Workers        int
	Capacity       int
	FlushThreshold int
	Logger         log.Logger
	// Progress, when set, is called after each page is persisted.
	Progress func(Stats)
}

const (
	defaultWorkers        = 8
	defaultCapacity       = 2000
	defaultFlushThreshold = 250000
)

// Stats counts pipeline progress.
type Stats struct {
	Pages      int
	Downloaded int64
	Failed     int64
	Persisted  int64
	Commits    int64
	Duplicates int64
	Flushes    int64
}

// Pipeline loads a catalog into a replay cache.
type Pipeline struct {
	fetch  Fetcher
	cache  *replaycache.Cache
	opts   Options
	logger log.Logger

	downloaded atomic.Int64
	failed     atomic.Int64
}

// New returns a pipeline reading with f and writing to cache.
func New(f Fetcher, cache *replaycache.Cache, opts Options) *Pipeline {
	if opts.Workers <= 0 {
		opts.Workers = defaultWorkers
	}
	if opts.Capacity <= 0 {
		opts.Capacity = defaultCapacity
	}
	if opts.FlushThreshold <= 0 {
		opts.FlushThreshold = defaultFlushThreshold
	}
	return &Pipeline{fetch: f, cache: cache, opts: opts, logger: log.OrDefault(opts.Logger, "ingest")}
}

// Run downloads every page of the catalog at indexURL.
func (p *Pipeline) Run(ctx context.Context, indexURL string) (Stats, error) {
	x, err := p.fetch.ReadIndex(ctx, indexURL)
	if err != nil {
		return Stats{}, fmt.Errorf("read index: %w", err)
	}
	items := append([]catalog.PageItem(nil), x.Items...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CommitTimestamp.Before(items[j].CommitTimestamp.Time)
	})
	p.logger.Info("catalog index loaded", log.Str("url", indexURL), log.Int("pages", len(items)))

	work := make(chan catalog.PageItem, len(items))
	for _, it := range items {
		work <- it
	}
	close(work)

	fetchCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	results := make(chan []replaycache.Record, p.opts.Capacity)
	fetchers, gctx := errgroup.WithContext(fetchCtx)
	for i := 0; i < p.opts.Workers; i++ {
		fetchers.Go(func() error { return p.worker(gctx, work, results) })
	}
	fetchErr := make(chan error, 1)
	go func() {
		fetchErr <- fetchers.Wait()
		close(results)
	}()

	stats, err := p.consume(ctx, len(items), results)
	if err != nil {
		cancel()
		for range results {
		}
		<-fetchErr
		return stats, err
	}
	if err := <-fetchErr; err != nil {
		return stats, err
	}
	stats.Downloaded = p.downloaded.Load()
	stats.Failed = p.failed.Load()
	p.logger.Info("catalog ingested",
		log.Int64("pages", stats.Persisted),
		log.Int64("failed", stats.Failed),
		log.Int64("commits", stats.Commits),
		log.Int64("duplicates", stats.Duplicates))
	return stats, nil
}

func (p *Pipeline) worker(ctx context.Context, work <-chan catalog.PageItem, results chan<- []replaycache.Record) error {
	for item := range work {
		if err := ctx.Err(); err != nil {
			return err
		}
		page, err := p.fetch.ReadPage(ctx, item.ID)
		if err == nil {
			var recs []replaycache.Record
			recs, err = GroupPage(page)
			if err == nil {
				select {
				case results <- recs:
				case <-ctx.Done():
					return ctx.Err()
				}
				p.downloaded.Add(1)
				continue
			}
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		p.failed.Add(1)
		p.logger.Error("page skipped", log.Str("url", item.ID), log.Err(err))
	}
	return nil
}

// consume persists records, committing whenever the open batch exceeds the
// flush threshold. The open batch is always committed before the next opens.
func (p *Pipeline) consume(ctx context.Context, pages int, results <-chan []replaycache.Record) (Stats, error) {
	stats := Stats{Pages: pages}
	batch := p.cache.NewBatch()
	defer func() { _ = batch.Close() }()

	flush := func() error {
		if err := batch.Commit(ctx); err != nil {
			return fmt.Errorf("persist commits: %w", err)
		}
		stats.Flushes++
		_ = batch.Close()
		batch = p.cache.NewBatch()
		return nil
	}

	for recs := range results {
		for _, r := range recs {
			added, err := batch.Add(r)
			if err != nil {
				return stats, fmt.Errorf("persist commits: %w", err)
			}
			if !added {
				stats.Duplicates++
				p.logger.Warn("duplicate commit skipped", log.Str(log.CommitIDKey, r.ID.String()))
				continue
			}
			stats.Commits++
			if batch.Len() > p.opts.FlushThreshold {
				if err := flush(); err != nil {
					return stats, err
				}
			}
		}
		stats.Persisted++
		if p.opts.Progress != nil {
			s := stats
			s.Downloaded = p.downloaded.Load()
			s.Failed = p.failed.Load()
			p.opts.Progress(s)
		}
	}
	if batch.Len() > 0 {
		if err := flush(); err != nil {
			return stats, err
		}
	}
	return stats, nil
}
