// Package id provides a deterministic token generator for synthetic catalogs.
//
// # Determinism
//
// A Generator owns one counter. Every method increments it once and derives
// its result from the new value, so the whole stream of ids, timestamps,
// package names and random numbers is a pure function of the starting value.
// The generator is passed explicitly to whichever component needs it; there is
// no process-wide state.
//
// Usage
//
//	g := id.NewGenerator(0)
//	commitID := g.UUID()    // 00000000-0000-0000-0000-000000000001
//	ts := g.Time()          // 2025-01-01T00:00:00.0000002Z
//	n := g.Intn(1, 21)      // 1..20
package id
