package ingest

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	"github.com/joelverhagen/json-append-log/internal/replaycache"
)

// GroupPage turns the leaves of a page into one record per commit, in order of
// first appearance. Every leaf of a commit must share its timestamp and type.
func GroupPage(p *catalog.Page) ([]replaycache.Record, error) {
	var (
		order []string
		byID  = make(map[string]*replaycache.Record)
		times = make(map[string]catalog.Time)
	)
	for _, leaf := range p.Items {
		kind, err := catalog.ParseLeafType(leaf.Type)
		if err != nil {
			return nil, fmt.Errorf("page %s leaf %s: %w", p.ID, leaf.ID, err)
		}
		rec, ok := byID[leaf.CommitID]
		if !ok {
			id, err := uuid.Parse(leaf.CommitID)
			if err != nil {
				return nil, fmt.Errorf("page %s: commit id %q: %w", p.ID, leaf.CommitID, err)
			}
			rec = &replaycache.Record{
				ID:       id,
				Ticks:    catalog.Ticks(leaf.CommitTimestamp.Time),
				IsDelete: kind == catalog.Delete,
			}
			byID[leaf.CommitID] = rec
			times[leaf.CommitID] = leaf.CommitTimestamp
			order = append(order, leaf.CommitID)
		} else {
			if !times[leaf.CommitID].Equal(leaf.CommitTimestamp) {
				return nil, fmt.Errorf("page %s: commit %s has more than one timestamp", p.ID, leaf.CommitID)
			}
			if rec.IsDelete != (kind == catalog.Delete) {
				return nil, fmt.Errorf("page %s: commit %s mixes leaf types", p.ID, leaf.CommitID)
			}
		}
		rec.Items = append(rec.Items, [2]string{leaf.PackageID, leaf.PackageVersion})
		rec.Count++
	}
	out := make([]replaycache.Record, 0, len(order))
	for _, commitID := range order {
		out = append(out, *byID[commitID])
	}
	return out, nil
}
