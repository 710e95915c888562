// Package runtime owns the blob emulator's process state: the Pebble
// database and the blob service built on it. Transports in internal/server
// take a *Runtime and never open storage themselves.
//
// Example:
//
//	rt, err := runtime.Open(runtime.Options{DataDir: dir, Fsync: pebblestore.FsyncModeAlways})
//	if err != nil { /* handle */ }
//	defer rt.Close()
//	_ = rt.Blobs().CreateContainer(ctx, "catalog0")
package runtime
