// Package store persists catalog documents with optimistic concurrency.
//
// Every read returns the document together with an opaque ETag and every
// update must present the ETag it read. Writes report Success or Conflict as
// a WriteResult; errors are reserved for I/O failures and broken invariants
// such as a page id that does not resolve (ErrNotFound).
//
// Three variants implement Store:
//
//   - Memory serializes everything behind one mutex and draws ETags from an
//     id.Generator. It is the test double and the fastest simulation target.
//   - File keeps one JSON file per document. The ETag is the file's
//     modification time and a process-local mutex serializes operations.
//   - Blob talks to a blob service whose conditional writes (If-None-Match
//     and If-Match) detect conflicts remotely, so several processes may
//     write the same catalog.
package store
