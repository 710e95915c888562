// Package serverrun exposes the Run entrypoint used by `jsonlog blob serve`
// to start the blob emulator with its HTTP and gRPC listeners and to shut
// both down before the runtime closes.
//
// Example:
//
//	opts := serverrun.Options{DataDir: "./data", HTTPAddr: ":10000", GRPCAddr: ":10001", Containers: []string{"catalog0"}}
//	_ = serverrun.Run(ctx, opts)
package serverrun
