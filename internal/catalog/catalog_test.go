package catalog

import (
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

var ts = time.Date(2025, 3, 4, 5, 6, 7, 123400000, time.UTC)

func sampleCommit() Commit {
	return Commit{
		ID:        "00000000-0000-0000-0000-000000000001",
		Timestamp: ts,
		Events: []PackageEvent{
			{ID: "Newtonsoft.Json", Version: "13.0.1-Beta", Kind: Details},
			{ID: "Ünïcode<&>", Version: "1.0.0", Kind: Delete},
		},
		LastCreated: ts,
		LastEdited:  ts,
		LastDeleted: ts,
	}
}

func sampleIndex() *Index {
	c := sampleCommit()
	return &Index{
		ID:              IndexID("https://example/catalog/"),
		Type:            IndexTypes(),
		CommitID:        c.ID,
		CommitTimestamp: NewTime(c.Timestamp),
		Count:           1,
		LastCreated:     NewTime(c.LastCreated),
		LastDeleted:     NewTime(c.LastDeleted),
		LastEdited:      NewTime(c.LastEdited),
		Items: []PageItem{{
			ID:              PageID("https://example/catalog/", 0),
			Type:            PageType,
			CommitID:        c.ID,
			CommitTimestamp: NewTime(c.Timestamp),
			Count:           2,
		}},
		Context: DefaultContext(),
	}
}

func samplePage() *Page {
	c := sampleCommit()
	return &Page{
		ID:              PageID("https://example/catalog/", 0),
		Type:            PageType,
		CommitID:        c.ID,
		CommitTimestamp: NewTime(c.Timestamp),
		Count:           2,
		Parent:          IndexID("https://example/catalog/"),
		Items:           c.LeafItems("https://example/leaf/"),
		Context:         DefaultContext(),
	}
}

func TestTimeRendersSevenDigits(t *testing.T) {
	cases := []struct {
		in   time.Time
		want string
	}{
		{time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), `"2025-01-01T00:00:00.0000000Z"`},
		{ts, `"2025-03-04T05:06:07.1234000Z"`},
		{time.Date(2025, 1, 1, 0, 0, 0, 999999999, time.UTC), `"2025-01-01T00:00:00.9999999Z"`},
		{time.Date(2025, 1, 1, 2, 0, 0, 0, time.FixedZone("zero", 0)), `"2025-01-01T02:00:00.0000000Z"`},
	}
	for _, tc := range cases {
		b, err := Marshal(NewTime(tc.in))
		if err != nil {
			t.Fatalf("marshal %v: %v", tc.in, err)
		}
		if string(b) != tc.want {
			t.Fatalf("got %s want %s", b, tc.want)
		}
	}
}

func TestNonUTCRejected(t *testing.T) {
	x := sampleIndex()
	x.CommitTimestamp = NewTime(ts.In(time.FixedZone("plus2", 2*3600)))
	_, err := Marshal(x)
	if !errors.Is(err, ErrNonUTC) || !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected ErrNonUTC, got %v", err)
	}
}

func TestTimeParsesShortFractions(t *testing.T) {
	var got Time
	if err := got.UnmarshalJSON([]byte(`"2025-03-04T05:06:07.1234Z"`)); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !got.Equal(NewTime(ts)) {
		t.Fatalf("got %s want %s", got, NewTime(ts))
	}
	if err := got.UnmarshalJSON([]byte(`"yesterday"`)); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected schema violation, got %v", err)
	}
}

func TestTicks(t *testing.T) {
	epoch := time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC)
	if got := Ticks(epoch); got != 0 {
		t.Fatalf("ticks at 0001-01-01 = %d", got)
	}
	if got := Ticks(time.Unix(0, 0)); got != ticksAtUnixEpoch {
		t.Fatalf("ticks at unix epoch = %d", got)
	}
	for _, in := range []time.Time{epoch, ts, time.Date(1969, 12, 31, 23, 59, 59, 100, time.UTC)} {
		want := in.Truncate(100 * time.Nanosecond)
		if got := TimeFromTicks(Ticks(in)); !got.Equal(want) {
			t.Fatalf("round trip %s -> %s", want, got)
		}
	}
}

func TestFieldOrder(t *testing.T) {
	b, err := Marshal(sampleIndex())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertOrder(t, string(b), `"@id"`, `"@type"`, `"commitId"`, `"commitTimeStamp"`, `"count"`,
		`"nuget:lastCreated"`, `"nuget:lastDeleted"`, `"nuget:lastEdited"`, `"items"`, `"@context"`)

	b, err = Marshal(samplePage())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	assertOrder(t, string(b), `"@id"`, `"@type"`, `"commitId"`, `"commitTimeStamp"`, `"count"`,
		`"parent"`, `"items"`, `"nuget:id"`, `"nuget:version"`, `"@context"`)
}

func assertOrder(t *testing.T, doc string, keys ...string) {
	t.Helper()
	last := -1
	for _, k := range keys {
		i := strings.Index(doc[last+1:], k)
		if i < 0 {
			t.Fatalf("key %s missing or out of order in %s", k, doc)
		}
		last += i + 1
	}
}

func TestLenientEscaping(t *testing.T) {
	b, err := Marshal(samplePage())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(b), `"nuget:id":"Ünïcode<&>"`) {
		t.Fatalf("expected unescaped id in %s", b)
	}
	if strings.HasSuffix(string(b), "\n") {
		t.Fatalf("unexpected trailing newline")
	}
}

func TestRoundTrip(t *testing.T) {
	x := sampleIndex()
	b, err := Marshal(x)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gotIndex, err := DecodeIndex(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(x, gotIndex); diff != "" {
		t.Fatalf("index mismatch (-want +got):\n%s", diff)
	}

	p := samplePage()
	b, err = Marshal(p)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	gotPage, err := DecodePage(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if diff := cmp.Diff(p, gotPage); diff != "" {
		t.Fatalf("page mismatch (-want +got):\n%s", diff)
	}
	again, _ := Marshal(gotPage)
	if string(again) != string(b) {
		t.Fatalf("re-encoding changed bytes")
	}

	re := regexp.MustCompile(`"commitTimeStamp":"\d{4}-\d\d-\d\dT\d\d:\d\d:\d\d\.\d{7}Z"`)
	if !re.Match(b) {
		t.Fatalf("timestamp format not found in %s", b)
	}
}

func TestDecodeRejectsNullAndGarbage(t *testing.T) {
	for _, in := range []string{"null", "{", "[]", `{"count":"x"}`} {
		if _, err := DecodePage([]byte(in)); !errors.Is(err, ErrSchemaViolation) {
			t.Fatalf("%s: expected schema violation, got %v", in, err)
		}
	}
	if _, err := DecodeIndex([]byte(" null ")); !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected schema violation for null index, got %v", err)
	}
}

func TestLeafIDIsStable(t *testing.T) {
	a := LeafID("https://leaf/", ts, "Foo.Bar", "1.0.0-RC")
	b := LeafID("https://leaf/", ts.Truncate(time.Second).Add(999*time.Millisecond), "foo.bar", "1.0.0-rc")
	if a != b {
		t.Fatalf("%s != %s", a, b)
	}
	if want := "https://leaf/data/2025.03.04.05.06.07/foo.bar.1.0.0-rc.json"; a != want {
		t.Fatalf("got %s want %s", a, want)
	}
	if PageID("https://c/", 12) != "https://c/page12.json" || IndexID("https://c/") != "https://c/index.json" {
		t.Fatalf("unexpected document ids")
	}
}

func TestCommitValidate(t *testing.T) {
	c := sampleCommit()
	if err := c.Validate(); err != nil {
		t.Fatalf("valid commit rejected: %v", err)
	}
	empty := c
	empty.Events = nil
	if err := empty.Validate(); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	shifted := c
	shifted.LastEdited = ts.In(time.FixedZone("minus5", -5*3600))
	if err := shifted.Validate(); !errors.Is(err, ErrNonUTC) {
		t.Fatalf("expected non-UTC, got %v", err)
	}
}

func TestOpenPageScansFromTail(t *testing.T) {
	x := sampleIndex()
	x.Items = append(x.Items,
		PageItem{ID: "p1", CommitID: "other"},
		PageItem{ID: "p2", CommitID: x.CommitID},
	)
	if got := x.OpenPage(); got != 2 {
		t.Fatalf("open page = %d", got)
	}
	x.CommitID = "missing"
	if got := x.OpenPage(); got != -1 {
		t.Fatalf("open page = %d", got)
	}
}

func TestLeafTypes(t *testing.T) {
	for _, k := range []EventKind{Details, Delete} {
		got, err := ParseLeafType(k.LeafType())
		if err != nil || got != k {
			t.Fatalf("kind %v: got %v, %v", k, got, err)
		}
	}
	if _, err := ParseLeafType("nuget:Other"); err == nil {
		t.Fatalf("expected error")
	}
}
