package serverrun

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joelverhagen/json-append-log/internal/blob"
	cfgpkg "github.com/joelverhagen/json-append-log/internal/config"
	"github.com/joelverhagen/json-append-log/internal/runtime"
	grpcserver "github.com/joelverhagen/json-append-log/internal/server/grpc"
	httpserver "github.com/joelverhagen/json-append-log/internal/server/http"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing
var getenv = func(key string) string { return os.Getenv(key) }

// Options configures the blob emulator process.
type Options struct {
	DataDir       string
	GRPCAddr      string
	HTTPAddr      string
	Fsync         pebblestore.FsyncMode
	FsyncInterval time.Duration
	// Containers are created at startup when missing.
	Containers []string
	// Logger defaults to one built from JSONLOG_LOG_LEVEL and JSONLOG_LOG_FORMAT.
	Logger logpkg.Logger
}

// Run starts the HTTP blob API and the gRPC health endpoint and blocks until
// ctx is cancelled or a signal arrives. An empty GRPCAddr disables gRPC.
func Run(ctx context.Context, opts Options) error {
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	procLogger := opts.Logger
	if procLogger == nil {
		procLogger = loggerFromEnv()
	}

	opts.DataDir = cfgpkg.ResolveDataDir(opts.DataDir)
	storeDir := filepath.Join(opts.DataDir, "store")
	rt, err := runtime.Open(runtime.Options{
		DataDir:       storeDir,
		Fsync:         opts.Fsync,
		FsyncInterval: opts.FsyncInterval,
		Logger:        procLogger.WithComponent("runtime"),
	})
	if err != nil {
		return err
	}
	defer rt.Close()

	for _, c := range opts.Containers {
		if err := rt.Blobs().CreateContainer(sctx, c); err != nil && !errors.Is(err, blob.ErrConflict) {
			return err
		}
	}

	procLogger.Info("starting blob emulator",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("grpc", opts.GRPCAddr),
		logpkg.Str("data_dir", storeDir),
	)

	hsrv := httpserver.New(rt, procLogger.WithComponent("http"))
	var gsrv *grpcserver.Server
	if opts.GRPCAddr != "" {
		gsrv = grpcserver.New(rt, procLogger.WithComponent("grpc"))
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			procLogger.Error("http server failed", logpkg.Err(err))
			errCh <- err
			stop()
		}
	}()
	if gsrv != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := gsrv.ListenAndServe(sctx, opts.GRPCAddr); err != nil && sctx.Err() == nil {
				procLogger.Error("grpc server failed", logpkg.Err(err))
				errCh <- err
				stop()
			}
		}()
	}

	<-sctx.Done()
	// Stop transports before the deferred runtime close.
	if gsrv != nil {
		gsrv.Close()
	}
	hsrv.Close()
	wg.Wait()
	close(errCh)
	return <-errCh
}

func loggerFromEnv() logpkg.Logger {
	cfg := &logpkg.Config{
		Level:  getenvDefault("JSONLOG_LOG_LEVEL", "info"),
		Format: getenvDefault("JSONLOG_LOG_FORMAT", "text"),
	}
	l, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		return logpkg.NewLogger(logpkg.WithLevel(logpkg.InfoLevel), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}
	return l
}
