// Package source produces the commits a simulation writes: synthetic commits
// from a deterministic generator, or commits replayed from the replay cache.
//
// Every Source returns io.EOF once its event budget is spent.
package source
