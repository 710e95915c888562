package source

import (
	"context"

	"github.com/joelverhagen/json-append-log/internal/catalog"
)

// MaxRandomEvents bounds the size of a generated commit.
const MaxRandomEvents = 20

// Source yields commits in ascending timestamp order.
type Source interface {
	Next(ctx context.Context) (catalog.Commit, error)
}
