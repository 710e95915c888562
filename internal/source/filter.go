package source

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// Filter is a compiled CEL predicate over single package events. The
// expression sees id, version, kind ("details" or "delete"), commitId and
// timestamp. The zero Filter keeps everything.
type Filter struct {
	prog    cel.Program
	enabled bool
}

// NewFilter compiles expr. An empty expression keeps every event.
func NewFilter(expr string) (Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return Filter{}, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("id", cel.StringType),
		cel.Variable("version", cel.StringType),
		cel.Variable("kind", cel.StringType),
		cel.Variable("commitId", cel.StringType),
		cel.Variable("timestamp", cel.TimestampType),
	)
	if err != nil {
		return Filter{}, err
	}
	ast, iss := env.Compile(expr)
	if iss != nil && iss.Err() != nil {
		return Filter{}, fmt.Errorf("filter %q: %w", expr, iss.Err())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return Filter{}, fmt.Errorf("filter %q: result is %s, want bool", expr, ast.OutputType())
	}
	prog, err := env.Program(ast)
	if err != nil {
		return Filter{}, err
	}
	return Filter{prog: prog, enabled: true}, nil
}

// Enabled reports whether the filter drops anything.
func (f Filter) Enabled() bool { return f.enabled }

// Keep evaluates the predicate for one event. Evaluation errors drop the event.
func (f Filter) Keep(commitID string, ts time.Time, e catalog.PackageEvent) bool {
	if !f.enabled {
		return true
	}
	out, _, err := f.prog.Eval(map[string]any{
		"id":        e.ID,
		"version":   e.Version,
		"kind":      e.Kind.String(),
		"commitId":  commitID,
		"timestamp": ts,
	})
	if err != nil {
		return false
	}
	b, ok := out.Value().(bool)
	return ok && b
}
