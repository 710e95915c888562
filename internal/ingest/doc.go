// Package ingest downloads a live catalog and loads its commits into the
// replay cache.
//
// Page items are fetched oldest first by a fixed pool of workers. Each worker
// groups the leaves of one page by commit and sends the resulting records over
// a bounded channel to a single consumer, which writes them in large batches.
// A page that cannot be fetched or grouped is logged and skipped.
package ingest
