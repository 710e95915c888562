package catalog

import (
	"fmt"
	"time"
)

// EventKind distinguishes package lifecycle events.
type EventKind int

const (
	// Details marks a package that was published or edited.
	Details EventKind = iota
	// Delete marks a package that was deleted.
	Delete
)

func (k EventKind) String() string {
	switch k {
	case Details:
		return "details"
	case Delete:
		return "delete"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}

// LeafType returns the leaf @type for k.
func (k EventKind) LeafType() string {
	if k == Delete {
		return DeleteType
	}
	return DetailsType
}

// ParseLeafType maps a leaf @type back to its kind.
func ParseLeafType(s string) (EventKind, error) {
	switch s {
	case DetailsType:
		return Details, nil
	case DeleteType:
		return Delete, nil
	default:
		return 0, fmt.Errorf("%w: unknown leaf type %q", ErrSchemaViolation, s)
	}
}

// PackageEvent is one observed change to one package version.
type PackageEvent struct {
	ID      string
	Version string
	Kind    EventKind
}

// Commit is an atomic batch of package events.
type Commit struct {
	ID          string
	Timestamp   time.Time
	Events      []PackageEvent
	LastCreated time.Time
	LastEdited  time.Time
	LastDeleted time.Time
}

// Validate rejects commits that cannot be written.
func (c Commit) Validate() error {
	if len(c.Events) == 0 {
		return fmt.Errorf("%w: commit %q has no events", ErrInvalidInput, c.ID)
	}
	if c.ID == "" {
		return fmt.Errorf("%w: commit id is empty", ErrInvalidInput)
	}
	for _, ts := range []time.Time{c.Timestamp, c.LastCreated, c.LastEdited, c.LastDeleted} {
		if !IsUTC(ts) {
			return fmt.Errorf("commit %s: %w", c.ID, ErrNonUTC)
		}
	}
	return nil
}

// LeafItems materializes one leaf item per event, in event order.
func (c Commit) LeafItems(leafBase string) []LeafItem {
	items := make([]LeafItem, 0, len(c.Events))
	for _, e := range c.Events {
		items = append(items, c.leaf(leafBase, e))
	}
	return items
}

func (c Commit) leaf(leafBase string, e PackageEvent) LeafItem {
	return LeafItem{
		ID:              LeafID(leafBase, c.Timestamp, e.ID, e.Version),
		Type:            e.Kind.LeafType(),
		CommitID:        c.ID,
		CommitTimestamp: NewTime(c.Timestamp),
		PackageID:       e.ID,
		PackageVersion:  e.Version,
	}
}
