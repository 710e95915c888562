package runtime

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joelverhagen/json-append-log/internal/blob"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	DataDir       string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	Logger        log.Logger
}

// Runtime wires storage and the blob service for a single emulator instance.
type Runtime struct {
	db     *pebblestore.DB
	blobs  *blob.Service
	logger log.Logger
}

// Open initializes the underlying storage and returns a Runtime.
func Open(opts Options) (*Runtime, error) {
	logger := log.OrDefault(opts.Logger, "runtime")
	db, err := pebblestore.Open(pebblestore.Options{
		DataDir:       opts.DataDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Metrics:       slowCommitLogger{logger: logger, threshold: 250 * time.Millisecond},
	})
	if err != nil {
		return nil, err
	}
	svc, err := blob.NewService(db, logger.WithComponent("blob"))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runtime: %w", err)
	}
	return &Runtime{db: db, blobs: svc, logger: logger}, nil
}

// Close closes underlying resources.
func (r *Runtime) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

// CheckHealth verifies the database still serves iterators.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not open")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	it, err := r.db.NewIter(nil)
	if err != nil {
		return err
	}
	return it.Close()
}

// Blobs returns the blob service.
func (r *Runtime) Blobs() *blob.Service { return r.blobs }

// DB exposes the underlying DB for advanced operations (internal use only).
func (r *Runtime) DB() *pebblestore.DB { return r.db }

// Logger returns the runtime logger.
func (r *Runtime) Logger() log.Logger { return r.logger }

// slowCommitLogger reports batch commits slower than threshold.
type slowCommitLogger struct {
	logger    log.Logger
	threshold time.Duration
}

func (slowCommitLogger) ObserveRead(time.Duration, int) {}

func (m slowCommitLogger) ObserveBatchCommit(elapsed time.Duration, bytes int) {
	if elapsed >= m.threshold {
		m.logger.Warn("slow batch commit", log.Dur("elapsed", elapsed), log.Int("bytes", bytes))
	}
}
