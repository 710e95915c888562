package replaycache

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/joelverhagen/json-append-log/internal/catalog"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
)

// ErrCorruptRecord is returned when a stored value fails its checksum or
// cannot be parsed.
var ErrCorruptRecord = errors.New("replaycache: corrupt record")

// Record is one cached commit.
type Record struct {
	ID       uuid.UUID
	Ticks    int64
	IsDelete bool
	// Count is the number of events the commit declared. Readers check it
	// against len(Items).
	Count int
	Items [][2]string
}

// Timestamp returns the commit timestamp in UTC.
func (r Record) Timestamp() time.Time { return catalog.TimeFromTicks(r.Ticks) }

// Kind returns the event kind shared by every item of the commit.
func (r Record) Kind() catalog.EventKind {
	if r.IsDelete {
		return catalog.Delete
	}
	return catalog.Details
}

func (r Record) encode() ([]byte, error) {
	items := r.Items
	if items == nil {
		items = [][2]string{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return nil, err
	}
	header := make([]byte, 1, 1+binary.MaxVarintLen64)
	if r.IsDelete {
		header[0] = 1
	}
	header = binary.AppendUvarint(header, uint64(r.Count))
	return pebblestore.EncodeRecord(header, payload), nil
}

func decodeRecord(key, value []byte) (Record, error) {
	ticks, id, ok := parseCommitKey(key)
	if !ok {
		return Record{}, fmt.Errorf("%w: key %x", ErrCorruptRecord, key)
	}
	dec, ok := pebblestore.DecodeRecord(value)
	if !ok || len(dec.Header) < 2 {
		return Record{}, fmt.Errorf("%w: commit %s", ErrCorruptRecord, uuid.UUID(id))
	}
	count, n := binary.Uvarint(dec.Header[1:])
	if n <= 0 {
		return Record{}, fmt.Errorf("%w: commit %s count", ErrCorruptRecord, uuid.UUID(id))
	}
	r := Record{ID: id, Ticks: ticks, IsDelete: dec.Header[0] == 1, Count: int(count)}
	if err := json.Unmarshal(dec.Payload, &r.Items); err != nil {
		return Record{}, fmt.Errorf("%w: commit %s items: %v", ErrCorruptRecord, uuid.UUID(id), err)
	}
	return r, nil
}
