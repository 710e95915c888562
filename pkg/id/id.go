package id

import (
	"encoding/binary"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Epoch is the instant Time() counts from.
var Epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// tick matches the 100ns resolution of catalog timestamps.
const tick = 100 * time.Nanosecond

// Generator hands out deterministic tokens from a single counter. Each call
// increments the counter exactly once, so two generators started from the
// same value produce the same sequence of ids, timestamps and numbers.
type Generator struct {
	mu   sync.Mutex
	next int64
}

// NewGenerator creates a Generator whose first call observes start+1.
func NewGenerator(start int64) *Generator { return &Generator{next: start} }

func (g *Generator) increment() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}

// Counter returns the last value handed out.
func (g *Generator) Counter() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.next
}

// ETag returns a quoted opaque version token.
func (g *Generator) ETag() string {
	return fmt.Sprintf("%q", fmt.Sprint(g.increment()))
}

// UUID returns a UUID made of 12 zero bytes followed by the big-endian counter.
func (g *Generator) UUID() uuid.UUID {
	var u uuid.UUID
	binary.BigEndian.PutUint32(u[12:], uint32(g.increment()))
	return u
}

// Time returns Epoch advanced by the counter in 100ns ticks. Always UTC.
func (g *Generator) Time() time.Time {
	return Epoch.Add(time.Duration(g.increment()) * tick)
}

// PackageID returns a synthetic package id.
func (g *Generator) PackageID() string {
	return fmt.Sprintf("Package%d", g.increment())
}

// PackageVersion returns a synthetic package version.
func (g *Generator) PackageVersion() string {
	return fmt.Sprintf("1.0.%d", g.increment())
}

// Intn returns a number in [min, max) drawn from a source seeded with the counter.
func (g *Generator) Intn(min, max int) int {
	seed := g.increment()
	if max <= min {
		return min
	}
	return min + rand.New(rand.NewSource(seed)).Intn(max-min)
}
