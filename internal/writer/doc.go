// Package writer appends commits to a catalog held in a store.Store.
//
// Each call performs one read-modify-write cycle: read the index, locate the
// open page (the page item whose commitId equals the index commitId), then
// either append to that page or start new ones, and finally write the index.
// Pages are written before the index so that readers following the index
// never see a page item whose page is missing.
//
// A Conflict result means another writer changed a document between the read
// and the write. The writer never retries; callers re-invoke it.
package writer
