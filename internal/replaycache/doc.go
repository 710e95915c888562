// Package replaycache persists observed catalog commits so a simulation can
// replay them later in their original order.
//
// One pebble record is stored per commit. Keys sort by commit timestamp and
// then by commit id, so a forward scan yields (timestamp ASC, id ASC):
//
//	replay/m                          totals: commits_be8 | events_be8
//	replay/c/{ticks_be8}{id_16}       record
//
// Record values use the length-prefixed, CRC-checked encoding of
// internal/storage/pebble. The header carries the delete flag and the event
// count; the payload is the JSON array of [packageId, packageVersion] pairs.
//
// Batches commit atomically together with the updated totals.
package replaycache
