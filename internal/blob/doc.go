// Package blob is a small blob storage service: containers of named blobs,
// each carrying a server-assigned ETag. It backs the blob-style catalog store.
//
// Writes may carry a precondition. IfNoneMatch "*" creates a blob only when it
// is absent and IfMatch replaces it only when the stored ETag still matches.
// The check and the write happen under one lock and land in one Pebble batch,
// so concurrent writers in different processes observe a single winner.
//
// Service is the storage side and Client speaks the HTTP API served by
// internal/server/http. Both satisfy the same method set.
package blob
