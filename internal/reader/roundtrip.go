package reader

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// ErrNotRoundTrippable is returned when a document does not survive a
// generic JSON decode and encode, so a byte comparison would be meaningless.
var ErrNotRoundTrippable = errors.New("reader: document is not round-trippable as generic JSON")

// DiffLine is one line of a round trip diff. Kind is ' ', '-' (only in the
// fetched document) or '+' (only in the re-encoded document).
type DiffLine struct {
	Kind byte
	Text string
}

// RoundTripMismatchError reports a document whose typed re-encoding differs
// from the fetched bytes.
type RoundTripMismatchError struct {
	URL   string
	Lines []DiffLine
}

func (e *RoundTripMismatchError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "reader: %s does not round trip:", e.URL)
	for _, l := range e.Lines {
		b.WriteByte('\n')
		b.WriteByte(l.Kind)
		b.WriteByte(' ')
		b.WriteString(l.Text)
	}
	return b.String()
}

// VerifyRoundTrip checks that encoding decoded with the catalog encoder yields
// exactly original. It first confirms original is stable through a generic
// JSON tree, which rules out whitespace-only differences.
func VerifyRoundTrip(original []byte, decoded any) error {
	generic, err := canonicalize(original)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNotRoundTrippable, err)
	}
	if !bytes.Equal(generic, original) {
		return ErrNotRoundTrippable
	}
	typed, err := catalog.Marshal(decoded)
	if err != nil {
		return err
	}
	if bytes.Equal(typed, original) {
		return nil
	}
	want, err := indent(original)
	if err != nil {
		return err
	}
	got, err := indent(typed)
	if err != nil {
		return err
	}
	return &RoundTripMismatchError{Lines: lineDiff(want, got)}
}

func indent(b []byte) (string, error) {
	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		return "", err
	}
	return out.String(), nil
}

// canonicalize re-encodes data compactly, keeping key order and the exact
// text of numbers.
func canonicalize(data []byte) ([]byte, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	type frame struct {
		object bool
		n      int
	}
	var (
		buf    bytes.Buffer
		stack  []frame
		values int
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		if d, ok := tok.(json.Delim); ok && (d == '}' || d == ']') {
			stack = stack[:len(stack)-1]
			buf.WriteByte(byte(d))
			continue
		}
		if len(stack) == 0 {
			values++
			if values > 1 {
				return nil, errors.New("more than one top-level value")
			}
		} else {
			top := &stack[len(stack)-1]
			switch {
			case top.object && top.n%2 == 1:
				buf.WriteByte(':')
			case top.n > 0:
				buf.WriteByte(',')
			}
			top.n++
		}
		switch v := tok.(type) {
		case json.Delim:
			buf.WriteByte(byte(v))
			stack = append(stack, frame{object: v == '{'})
		case json.Number:
			buf.WriteString(v.String())
		case string:
			if err := writeString(&buf, v); err != nil {
				return nil, err
			}
		case bool:
			buf.WriteString(strconv.FormatBool(v))
		case nil:
			buf.WriteString("null")
		}
	}
	if values == 0 {
		return nil, errors.New("empty document")
	}
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) error {
	var tmp bytes.Buffer
	enc := json.NewEncoder(&tmp)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	buf.Write(bytes.TrimSuffix(tmp.Bytes(), []byte("\n")))
	return nil
}

// contextLines is how many unchanged lines surround each change.
const contextLines = 3

func lineDiff(want, got string) []DiffLine {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var all []DiffLine
	for _, d := range diffs {
		kind := byte(' ')
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			kind = '-'
		case diffmatchpatch.DiffInsert:
			kind = '+'
		}
		for _, text := range strings.SplitAfter(d.Text, "\n") {
			if text == "" {
				continue
			}
			all = append(all, DiffLine{Kind: kind, Text: strings.TrimSuffix(text, "\n")})
		}
	}

	keep := make([]bool, len(all))
	for i, l := range all {
		if l.Kind == ' ' {
			continue
		}
		for j := max(0, i-contextLines); j <= min(len(all)-1, i+contextLines); j++ {
			keep[j] = true
		}
	}
	var out []DiffLine
	skipped := false
	for i, l := range all {
		if !keep[i] {
			skipped = true
			continue
		}
		if skipped && len(out) > 0 {
			out = append(out, DiffLine{Kind: ' ', Text: "..."})
		}
		skipped = false
		out = append(out, l)
	}
	return out
}
