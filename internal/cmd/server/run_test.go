package serverrun

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/joelverhagen/json-append-log/internal/blob"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
)

func TestGetenvDefault(t *testing.T) {
	orig := getenv
	t.Cleanup(func() { getenv = orig })
	env := map[string]string{"SET": "value", "EMPTY": ""}
	getenv = func(k string) string { return env[k] }

	tests := []struct {
		name     string
		key      string
		expected string
	}{
		{"environment variable set", "SET", "value"},
		{"environment variable not set", "MISSING", "default"},
		{"environment variable empty", "EMPTY", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := getenvDefault(tt.key, "default"); got != tt.expected {
				t.Errorf("getenvDefault(%s) = %s, expected %s", tt.key, got, tt.expected)
			}
		})
	}
}

func TestLoggerFromEnvFallsBack(t *testing.T) {
	orig := getenv
	t.Cleanup(func() { getenv = orig })
	getenv = func(k string) string {
		if k == "JSONLOG_LOG_LEVEL" {
			return "loud"
		}
		return ""
	}
	if l := loggerFromEnv(); l.GetLevel() != logpkg.InfoLevel {
		t.Fatalf("fallback level %v", l.GetLevel())
	}
}

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := l.Addr().String()
	_ = l.Close()
	return addr
}

func TestRunServesBlobs(t *testing.T) {
	if testing.Short() {
		t.Skip("starts real listeners")
	}
	httpAddr := freeAddr(t)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Run(ctx, Options{
			DataDir:    t.TempDir(),
			HTTPAddr:   httpAddr,
			GRPCAddr:   freeAddr(t),
			Fsync:      pebblestore.FsyncModeNever,
			Containers: []string{"catalog0"},
			Logger:     logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{})),
		})
	}()

	c := blob.NewClient("http://"+httpAddr, &http.Client{Timeout: time.Second})
	deadline := time.Now().Add(5 * time.Second)
	for !c.Healthy(ctx) {
		if time.Now().After(deadline) {
			cancel()
			t.Fatalf("server did not become healthy")
		}
		time.Sleep(20 * time.Millisecond)
	}
	if ok, err := c.ContainerExists(ctx, "catalog0"); err != nil || !ok {
		t.Fatalf("startup container missing: %v %v", ok, err)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatalf("run did not stop")
	}
}
