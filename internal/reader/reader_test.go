package reader

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/store"
	"github.com/joelverhagen/json-append-log/internal/writer"
	"github.com/joelverhagen/json-append-log/pkg/id"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
)

func quiet() logpkg.Logger { return logpkg.NewLogger(logpkg.WithOutput(logpkg.NullOutput{})) }

// serveCatalog writes commits of 1000 events into a memory store and serves
// its documents under the returned base URL. Entries added to the returned
// map replace a document by file name.
func serveCatalog(t *testing.T, commits int) (string, *store.Memory, map[string]string) {
	t.Helper()
	mem := store.NewMemory(nil)
	overrides := map[string]string{}
	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	base := ts.URL + "/catalog0/"

	w := writer.New(mem, quiet())
	gen := id.NewGenerator(0)
	for i := 0; i < commits; i++ {
		c := catalog.Commit{ID: gen.UUID().String(), Timestamp: gen.Time()}
		for j := 0; j < 1000; j++ {
			c.Events = append(c.Events, catalog.PackageEvent{ID: gen.PackageID(), Version: gen.PackageVersion()})
		}
		c.LastCreated, c.LastEdited, c.LastDeleted = c.Timestamp, c.Timestamp, c.Timestamp
		if _, err := w.WriteOne(context.Background(), c, base, "https://leaves.test/"); err != nil {
			t.Fatalf("write: %v", err)
		}
	}

	mux.HandleFunc("GET /catalog0/{name}", func(rw http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		if body, ok := overrides[name]; ok {
			rw.Write([]byte(body))
			return
		}
		docID := base + name
		if name == "index.json" {
			docID = ""
		}
		data, ok := mem.Raw(docID)
		if !ok {
			http.NotFound(rw, r)
			return
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.Write(data)
	})
	return base, mem, overrides
}

func TestStrictReadOfWrittenCatalog(t *testing.T) {
	base, mem, _ := serveCatalog(t, 4)
	c := New(WithStrict(true), WithLogger(quiet()))
	ctx := context.Background()

	x, err := c.ReadIndex(ctx, base+"index.json")
	if err != nil {
		t.Fatalf("read index: %v", err)
	}
	want, _, _ := mem.ReadIndex(ctx)
	if diff := cmp.Diff(want.Value, x); diff != "" {
		t.Fatalf("index (-want +got):\n%s", diff)
	}

	rep, err := c.Validate(ctx, base+"index.json", -1)
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if rep.IndexCount != 2 || rep.Pages != 2 || rep.Leaves != 4000 {
		t.Fatalf("report %+v", rep)
	}
	rep, err = c.Validate(ctx, base+"index.json", 1)
	if err != nil || rep.Pages != 1 || rep.Leaves != 2000 {
		t.Fatalf("newest page only: %+v %v", rep, err)
	}
}

func TestStrictReadReportsDiff(t *testing.T) {
	base, mem, overrides := serveCatalog(t, 1)
	raw, _ := mem.Raw(base + "page0.json")
	// An unknown field survives a generic round trip but not the typed one.
	overrides["page0.json"] = strings.Replace(string(raw), `"parent":`, `"extra":1,"parent":`, 1)

	c := New(WithStrict(true), WithLogger(quiet()))
	_, err := c.ReadPage(context.Background(), base+"page0.json")
	var mismatch *RoundTripMismatchError
	if !errors.As(err, &mismatch) {
		t.Fatalf("expected mismatch, got %v", err)
	}
	if mismatch.URL != base+"page0.json" {
		t.Fatalf("url %s", mismatch.URL)
	}
	found := false
	for _, l := range mismatch.Lines {
		if l.Kind == '-' && strings.Contains(l.Text, `"extra": 1`) {
			found = true
		}
		if l.Kind == '+' {
			t.Fatalf("unexpected insertion %q", l.Text)
		}
	}
	if !found {
		t.Fatalf("diff does not show the dropped field:\n%s", err)
	}

	lenient := New(WithLogger(quiet()))
	if _, err := lenient.ReadPage(context.Background(), base+"page0.json"); err != nil {
		t.Fatalf("lenient read: %v", err)
	}
}

func TestVerifyRoundTrip(t *testing.T) {
	ts := catalog.NewTime(time.Date(2025, 1, 1, 0, 0, 0, 100, time.UTC))
	item := catalog.PageItem{ID: "https://x.test/page0.json", Type: catalog.PageType, CommitID: "c", CommitTimestamp: ts, Count: 1}
	exact, err := catalog.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var mismatch *RoundTripMismatchError
	cases := []struct {
		name  string
		doc   string
		check func(error) bool
	}{
		{"exact", string(exact), func(err error) bool { return err == nil }},
		{"pretty printed", strings.Replace(string(exact), ",", ", ", 1), func(err error) bool { return errors.Is(err, ErrNotRoundTrippable) }},
		{"two values", string(exact) + string(exact), func(err error) bool { return errors.Is(err, ErrNotRoundTrippable) }},
		{"eight digit fraction", strings.Replace(string(exact), ".0000001Z", ".00000010Z", 1), func(err error) bool { return errors.As(err, &mismatch) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var decoded catalog.PageItem
			_ = json.Unmarshal([]byte(tc.doc), &decoded)
			if err := VerifyRoundTrip([]byte(tc.doc), &decoded); !tc.check(err) {
				t.Fatalf("unexpected result: %v", err)
			}
		})
	}
}

func TestCanonicalizeKeepsOrderAndNumbers(t *testing.T) {
	in := `{"b":1.50,"a":[true,null,"x<y"],"c":{}}`
	out, err := canonicalize([]byte(` ` + in + "\n"))
	if err != nil {
		t.Fatalf("canonicalize: %v", err)
	}
	if string(out) != in {
		t.Fatalf("got %s want %s", out, in)
	}
}

func TestReadErrors(t *testing.T) {
	base, _, overrides := serveCatalog(t, 1)
	overrides["null.json"] = "null"
	overrides["garbage.json"] = "{not json"
	c := New(WithLogger(quiet()))
	ctx := context.Background()
	if _, err := c.ReadPage(ctx, base+"null.json"); !errors.Is(err, catalog.ErrSchemaViolation) {
		t.Fatalf("null root: %v", err)
	}
	if _, err := c.ReadPage(ctx, base+"garbage.json"); !errors.Is(err, catalog.ErrSchemaViolation) {
		t.Fatalf("garbage: %v", err)
	}
	if _, err := c.ReadPage(ctx, base+"page9.json"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Fatalf("missing: %v", err)
	}
}

func TestValidateDetectsStalePageItem(t *testing.T) {
	base, mem, overrides := serveCatalog(t, 1)
	raw, _ := mem.Raw("")
	x, err := catalog.DecodeIndex(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	x.Items[0].Count = 999
	broken, _ := catalog.Marshal(x)
	overrides["index.json"] = string(broken)

	c := New(WithLogger(quiet()))
	if _, err := c.Validate(context.Background(), base+"index.json", -1); !errors.Is(err, ErrInvalidCatalog) {
		t.Fatalf("expected invalid catalog, got %v", err)
	}
}

func TestFileURLs(t *testing.T) {
	dir := t.TempDir()
	abs, err := filepath.Abs(dir)
	if err != nil {
		t.Fatalf("abs: %v", err)
	}
	base := "file://" + filepath.ToSlash(abs) + "/"
	fstore, err := store.NewFile(base, dir)
	if err != nil {
		t.Fatalf("file store: %v", err)
	}
	gen := id.NewGenerator(0)
	c := catalog.Commit{ID: gen.UUID().String(), Timestamp: gen.Time(), Events: []catalog.PackageEvent{{ID: "A", Version: "1.0.0"}}}
	c.LastCreated, c.LastEdited, c.LastDeleted = c.Timestamp, c.Timestamp, c.Timestamp
	if _, err := writer.New(fstore, quiet()).WriteOne(context.Background(), c, base, "https://leaves.test/"); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "page0.json")); err != nil {
		t.Fatalf("page0: %v", err)
	}
	rep, err := New(WithStrict(true), WithLogger(quiet())).Validate(context.Background(), base+"index.json", -1)
	if err != nil || rep.Leaves != 1 {
		t.Fatalf("validate: %+v %v", rep, err)
	}
}
