package pebblestore

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/go-cmp/cmp"
)

func set(t *testing.T, db *DB, key, value []byte) {
	t.Helper()
	if err := db.Update(context.Background(), func(b *pebble.Batch) error { return b.Set(key, value, nil) }); err != nil {
		t.Fatalf("set %q: %v", key, err)
	}
}

type testMetrics struct {
	read         int
	batchCommits int
	batchBytes   int
}

func (m *testMetrics) ObserveRead(d time.Duration, bytes int) { m.read += bytes }
func (m *testMetrics) ObserveBatchCommit(d time.Duration, bytes int) {
	m.batchCommits++
	m.batchBytes += bytes
}

func newTestDB(t *testing.T) (*DB, *testMetrics) {
	t.Helper()
	metrics := &testMetrics{}
	db, err := Open(Options{
		DataDir:       t.TempDir(),
		Fsync:         FsyncModeInterval,
		FsyncInterval: 2 * time.Millisecond,
		Metrics:       metrics,
	})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, metrics
}

func TestCRUD(t *testing.T) {
	db, metrics := newTestDB(t)

	key := []byte("k1")
	ctx := context.Background()
	if err := db.Update(ctx, func(b *pebble.Batch) error { return b.Set(key, []byte("v1"), nil) }); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "v1" {
		t.Fatalf("got %q", got)
	}
	if metrics.read == 0 {
		t.Fatalf("expected read metrics to record bytes")
	}
	if ok, err := db.Has(key); err != nil || !ok {
		t.Fatalf("has: %v %v", ok, err)
	}

	if err := db.Update(ctx, func(b *pebble.Batch) error { return b.Delete(key, nil) }); err != nil {
		t.Fatalf("delete: %v", err)
	}
	failed := errors.New("abort")
	err = db.Update(ctx, func(b *pebble.Batch) error {
		_ = b.Set(key, []byte("v2"), nil)
		return failed
	})
	if !errors.Is(err, failed) {
		t.Fatalf("update error: %v", err)
	}
	if _, err := db.Get(key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if ok, err := db.Has(key); err != nil || ok {
		t.Fatalf("has after delete: %v %v", ok, err)
	}
}

func TestBatchCommitMetrics(t *testing.T) {
	db, metrics := newTestDB(t)

	b := db.NewBatch()
	defer b.Close()
	if err := b.Set([]byte("a"), []byte("1"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := b.Set([]byte("b"), []byte("2"), nil); err != nil {
		t.Fatalf("batch set: %v", err)
	}
	if err := db.CommitBatch(context.Background(), b); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if metrics.batchCommits != 1 || metrics.batchBytes <= 0 {
		t.Fatalf("unexpected metrics %+v", metrics)
	}
}

func TestCommitBatchHonoursCancellation(t *testing.T) {
	db, _ := newTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := db.NewBatch()
	defer b.Close()
	_ = b.Set([]byte("a"), []byte("1"), nil)
	if err := db.CommitBatch(ctx, b); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, err := db.Get([]byte("a")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cancelled batch must not be visible")
	}
}

func TestSnapshotConsistency(t *testing.T) {
	db, _ := newTestDB(t)

	key := []byte("k2")
	set(t, db, key, []byte("old"))
	snap := db.NewSnapshot()
	defer snap.Close()

	set(t, db, key, []byte("new"))

	valOld, closer, err := snap.Get(key)
	if err != nil {
		t.Fatalf("snap get: %v", err)
	}
	if string(valOld) != "old" {
		t.Fatalf("snapshot saw %q want %q", valOld, "old")
	}
	closer.Close()
}

func TestPrefixOptions(t *testing.T) {
	db, _ := newTestDB(t)
	for _, k := range []string{"a/1", "a/2", "a0", "b/1", "a/\xff"} {
		set(t, db, []byte(k), []byte("x"))
	}
	snap := db.NewSnapshot()
	defer snap.Close()
	set(t, db, []byte("a/3"), []byte("x"))

	collect := func(it *pebble.Iterator, err error) []string {
		t.Helper()
		if err != nil {
			t.Fatalf("iter: %v", err)
		}
		defer it.Close()
		var keys []string
		for ok := it.First(); ok; ok = it.Next() {
			keys = append(keys, string(it.Key()))
		}
		return keys
	}
	opts := PrefixOptions([]byte("a/"))
	if diff := cmp.Diff([]string{"a/1", "a/2", "a/3", "a/\xff"}, collect(db.NewIter(opts))); diff != "" {
		t.Fatalf("db keys (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"a/1", "a/2", "a/\xff"}, collect(snap.NewIter(opts))); diff != "" {
		t.Fatalf("snapshot keys (-want +got):\n%s", diff)
	}
}

func TestPrefixUpperBound(t *testing.T) {
	cases := []struct{ in, want []byte }{
		{[]byte("ab"), []byte("ac")},
		{[]byte{'a', 0xff}, []byte("b")},
		{[]byte{0xff, 0xff}, nil},
	}
	for _, tc := range cases {
		if got := PrefixUpperBound(tc.in); !bytes.Equal(got, tc.want) {
			t.Fatalf("upper(%q) = %q want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseFsyncMode(t *testing.T) {
	for in, want := range map[string]FsyncMode{"": FsyncModeUnspecified, "always": FsyncModeAlways, "interval": FsyncModeInterval, "never": FsyncModeNever} {
		got, err := ParseFsyncMode(in)
		if err != nil || got != want {
			t.Fatalf("%q: %v %v", in, got, err)
		}
	}
	if _, err := ParseFsyncMode("sometimes"); err == nil {
		t.Fatalf("expected error")
	}
}
