// Package pebblestore is the embedded key-value layer under the replay cache
// and the blob emulator: a thin Pebble wrapper with an fsync policy, batches,
// prefix iteration and a checksummed record framing shared by both users.
//
// Usage:
//
//	db, err := pebblestore.Open(pebblestore.Options{
//	    DataDir: "./data",
//	    Fsync:   pebblestore.FsyncModeInterval,
//	})
//	if err != nil { /* handle */ }
//	defer db.Close()
//
//	b := db.NewBatch()
//	_ = b.Set(key, pebblestore.EncodeRecord(header, payload), nil)
//	_ = db.CommitBatch(ctx, b)
//	b.Close()
//
//	snap := db.NewSnapshot()
//	it, _ := snap.NewIter(pebblestore.PrefixOptions([]byte("replay/c/")))
//	for ok := it.First(); ok; ok = it.Next() { /* ... */ }
//	_ = it.Close()
//	_ = snap.Close()
package pebblestore
