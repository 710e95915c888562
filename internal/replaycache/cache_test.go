package replaycache

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
)

func openDB(t *testing.T, dir string) *pebblestore.DB {
	t.Helper()
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dir, Fsync: pebblestore.FsyncModeNever})
	if err != nil {
		t.Fatalf("open pebble: %v", err)
	}
	return db
}

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	db := openDB(t, t.TempDir())
	t.Cleanup(func() { _ = db.Close() })
	c, err := Open(db)
	if err != nil {
		t.Fatalf("open cache: %v", err)
	}
	return c
}

func rec(ticks int64, idByte byte, items ...string) Record {
	var id uuid.UUID
	id[15] = idByte
	r := Record{ID: id, Ticks: ticks, Count: len(items)}
	for _, it := range items {
		r.Items = append(r.Items, [2]string{it, "1.0.0"})
	}
	return r
}

func writeAll(t *testing.T, c *Cache, recs ...Record) {
	t.Helper()
	b := c.NewBatch()
	defer b.Close()
	for _, r := range recs {
		if _, err := b.Add(r); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if err := b.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
}

func readAll(t *testing.T, c *Cache) []Record {
	t.Helper()
	it, err := c.Iter()
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()
	var out []Record
	for it.Next() {
		out = append(out, it.Record())
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iterate: %v", err)
	}
	return out
}

func TestIterOrdersByTimestampThenID(t *testing.T) {
	c := newTestCache(t)
	writeAll(t, c,
		rec(300, 1, "c"),
		rec(100, 9, "b"),
		rec(100, 2, "a", "a2"),
		rec(200, 5, "d"),
	)
	got := readAll(t, c)
	var order []string
	for _, r := range got {
		order = append(order, r.Items[0][0])
	}
	if diff := cmp.Diff([]string{"a", "b", "d", "c"}, order); diff != "" {
		t.Fatalf("order (-want +got):\n%s", diff)
	}
	if got[0].Count != 2 || len(got[0].Items) != 2 {
		t.Fatalf("first record %+v", got[0])
	}
}

func TestTotalsPersistAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	db := openDB(t, dir)
	c, err := Open(db)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	writeAll(t, c, rec(1, 1, "a", "b"), rec(2, 2, "c"))
	writeAll(t, c, rec(3, 3, "d"))
	if c.CommitCount() != 3 || c.EventCount() != 4 {
		t.Fatalf("totals %d %d", c.CommitCount(), c.EventCount())
	}
	if err := db.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	db2 := openDB(t, dir)
	t.Cleanup(func() { _ = db2.Close() })
	c2, err := Open(db2)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if c2.CommitCount() != 3 || c2.EventCount() != 4 {
		t.Fatalf("totals after reopen %d %d", c2.CommitCount(), c2.EventCount())
	}
	if n := len(readAll(t, c2)); n != 3 {
		t.Fatalf("records after reopen %d", n)
	}
}

func TestDuplicatesAreSkipped(t *testing.T) {
	c := newTestCache(t)
	writeAll(t, c, rec(1, 1, "a"))

	b := c.NewBatch()
	defer b.Close()
	if added, err := b.Add(rec(1, 1, "a")); err != nil || added {
		t.Fatalf("cached duplicate: %v %v", added, err)
	}
	if added, err := b.Add(rec(2, 2, "b")); err != nil || !added {
		t.Fatalf("new record: %v %v", added, err)
	}
	if added, err := b.Add(rec(2, 2, "b")); err != nil || added {
		t.Fatalf("staged duplicate: %v %v", added, err)
	}
	if b.Len() != 1 {
		t.Fatalf("len %d", b.Len())
	}
	if err := b.Commit(context.Background()); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if c.CommitCount() != 2 {
		t.Fatalf("commits %d", c.CommitCount())
	}
}

func TestRecordFields(t *testing.T) {
	c := newTestCache(t)
	ts := time.Date(2019, 5, 6, 7, 8, 9, 1234500, time.UTC)
	want := Record{
		ID:       uuid.MustParse("0b8a1e4c-1111-2222-3333-444455556666"),
		Ticks:    catalog.Ticks(ts),
		IsDelete: true,
		Count:    1,
		Items:    [][2]string{{"Newtonsoft.Json", "13.0.1"}},
	}
	writeAll(t, c, want)
	got := readAll(t, c)
	if diff := cmp.Diff([]Record{want}, got); diff != "" {
		t.Fatalf("record (-want +got):\n%s", diff)
	}
	if !got[0].Timestamp().Equal(ts) || got[0].Kind() != catalog.Delete {
		t.Fatalf("timestamp %s kind %s", got[0].Timestamp(), got[0].Kind())
	}
}

func TestIterReportsCorruption(t *testing.T) {
	c := newTestCache(t)
	writeAll(t, c, rec(1, 1, "a"))
	key := KeyCommit(1, rec(1, 1).ID)
	val, err := c.db.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	val[len(val)-1] ^= 0xFF
	if err := c.db.Update(context.Background(), func(b *pebble.Batch) error { return b.Set(key, val, nil) }); err != nil {
		t.Fatalf("set: %v", err)
	}
	it, err := c.Iter()
	if err != nil {
		t.Fatalf("iter: %v", err)
	}
	defer it.Close()
	if it.Next() {
		t.Fatalf("expected corrupt record to stop iteration")
	}
	if !errors.Is(it.Err(), ErrCorruptRecord) {
		t.Fatalf("expected corrupt record, got %v", it.Err())
	}
}

func TestClear(t *testing.T) {
	c := newTestCache(t)
	writeAll(t, c, rec(1, 1, "a"), rec(2, 2, "b"))
	if err := c.Clear(context.Background()); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if c.CommitCount() != 0 || c.EventCount() != 0 || len(readAll(t, c)) != 0 {
		t.Fatalf("cache not empty")
	}
}

func TestKeysSortByTicks(t *testing.T) {
	var id uuid.UUID
	a := KeyCommit(5, id)
	b := KeyCommit(1<<40, id)
	if bytes.Compare(a, b) >= 0 {
		t.Fatalf("keys out of order")
	}
	ticks, got, ok := parseCommitKey(b)
	if !ok || ticks != 1<<40 || got != id {
		t.Fatalf("parse: %d %v %v", ticks, got, ok)
	}
}
