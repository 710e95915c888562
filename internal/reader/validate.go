package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/pkg/log"
)

// ErrInvalidCatalog is returned when fetched documents break the catalog's
// structural rules.
var ErrInvalidCatalog = errors.New("reader: invalid catalog")

// Report summarizes a validation run.
type Report struct {
	IndexCount int
	Pages      int
	Leaves     int
}

// Validate reads the index at indexURL and its newest maxPages pages (every
// page when maxPages < 0), checking counts and that each page item matches
// its page. In strict mode every document is also round-trip checked.
func (c *Client) Validate(ctx context.Context, indexURL string, maxPages int) (Report, error) {
	x, err := c.ReadIndex(ctx, indexURL)
	if err != nil {
		return Report{}, err
	}
	if x.Count != len(x.Items) {
		return Report{}, fmt.Errorf("%w: index count %d with %d items", ErrInvalidCatalog, x.Count, len(x.Items))
	}
	rep := Report{IndexCount: x.Count}

	first := 0
	if maxPages >= 0 && maxPages < len(x.Items) {
		first = len(x.Items) - maxPages
	}
	for _, item := range x.Items[first:] {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		p, err := c.ReadPage(ctx, item.ID)
		if err != nil {
			return rep, err
		}
		if err := checkPage(item, p); err != nil {
			return rep, err
		}
		rep.Pages++
		rep.Leaves += len(p.Items)
		c.logger.Debug("page ok", log.Str("url", item.ID), log.Int("count", p.Count))
	}
	return rep, nil
}

func checkPage(item catalog.PageItem, p *catalog.Page) error {
	switch {
	case p.ID != item.ID:
		return fmt.Errorf("%w: page %s served for %s", ErrInvalidCatalog, p.ID, item.ID)
	case p.Count != len(p.Items):
		return fmt.Errorf("%w: page %s count %d with %d items", ErrInvalidCatalog, p.ID, p.Count, len(p.Items))
	case p.Count > catalog.MaxItemsPerPage:
		return fmt.Errorf("%w: page %s holds %d items", ErrInvalidCatalog, p.ID, p.Count)
	case item.Count != p.Count || item.CommitID != p.CommitID || !item.CommitTimestamp.Equal(p.CommitTimestamp):
		return fmt.Errorf("%w: page item for %s is out of date", ErrInvalidCatalog, p.ID)
	}
	return nil
}
