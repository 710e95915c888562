// Package grpcserver serves the standard grpc.health.v1 protocol for the
// blob emulator so orchestrators can probe it without speaking HTTP. The
// reported status follows runtime.CheckHealth.
//
// Example:
//
//	s := grpcserver.New(rt, logger)
//	_ = s.ListenAndServe(ctx, ":10001")
package grpcserver
