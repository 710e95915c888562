package client

import (
	"context"
	"fmt"
	"strings"
	"time"

	serverrun "github.com/joelverhagen/json-append-log/internal/cmd/server"
	grpcserver "github.com/joelverhagen/json-append-log/internal/server/grpc"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// dialGRPC connects to the emulator's gRPC listener with insecure transport
// for local use. Tests replace it with an in-memory dialer.
var dialGRPC = func(addr string) (*grpc.ClientConn, error) {
	return grpc.NewClient(addr, grpc.WithTransportCredentials(insecure.NewCredentials()))
}

// NewBlobCommand constructs the `blob` command group for the local emulator.
func NewBlobCommand(g *Globals) *cobra.Command {
	blobCmd := &cobra.Command{Use: "blob", Short: "Local blob storage emulator"}
	blobCmd.AddCommand(
		newBlobServeCommand(g),
		newBlobHealthCommand(g),
	)
	return blobCmd
}

// newBlobServeCommand constructs the `blob serve` subcommand.
func newBlobServeCommand(g *Globals) *cobra.Command {
	serveCmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the blob API over HTTP and health over gRPC",
		Aliases: []string{"start"},
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.Config.Blob
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			grpcAddr, _ := cmd.Flags().GetString("grpc")
			fsyncName, _ := cmd.Flags().GetString("fsync")
			fsyncIntervalMs, _ := cmd.Flags().GetInt("fsync-interval-ms")
			containers, _ := cmd.Flags().GetStringSlice("container")
			if dataDir == "" {
				dataDir = cfg.DataDir
			}
			if !cmd.Flags().Changed("http") && cfg.HTTPAddr != "" {
				httpAddr = cfg.HTTPAddr
			}
			if !cmd.Flags().Changed("grpc") && cfg.GRPCAddr != "" {
				grpcAddr = cfg.GRPCAddr
			}
			if fsyncName == "" {
				fsyncName = cfg.Fsync
			}
			mode, err := pebblestore.ParseFsyncMode(fsyncName)
			if err != nil {
				return fmt.Errorf("invalid --fsync; use always|interval|never")
			}
			if len(containers) == 0 {
				containers = []string{g.Config.BlobContainer}
			}

			logger := g.Logger.WithComponent("blob")
			logger.Info("starting blob emulator")
			if err := serverrun.Run(cmd.Context(), serverrun.Options{
				DataDir:       dataDir,
				HTTPAddr:      httpAddr,
				GRPCAddr:      grpcAddr,
				Fsync:         mode,
				FsyncInterval: time.Duration(fsyncIntervalMs) * time.Millisecond,
				Containers:    containers,
				Logger:        g.Logger,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
	serveCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serveCmd.Flags().String("http", ":10000", "HTTP listen address of the blob API")
	serveCmd.Flags().String("grpc", ":10001", "gRPC listen address of the health service (empty disables)")
	serveCmd.Flags().String("fsync", "", "Fsync mode: always|interval|never (default from config)")
	serveCmd.Flags().Int("fsync-interval-ms", 5, "When --fsync=interval, group-commit window in ms")
	serveCmd.Flags().StringSlice("container", nil, "Containers to create at startup (default from config)")
	return serveCmd
}

// newBlobHealthCommand constructs the `blob health` subcommand.
func newBlobHealthCommand(g *Globals) *cobra.Command {
	healthCmd := &cobra.Command{
		Use:   "health",
		Short: "Ask the emulator's gRPC health service whether the blob API is serving",
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("grpc")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if addr == "" {
				addr = g.Config.Blob.GRPCAddr
			}
			if strings.HasPrefix(addr, ":") {
				addr = "127.0.0.1" + addr
			}

			conn, err := dialGRPC(addr)
			if err != nil {
				return err
			}
			defer func() { _ = conn.Close() }()

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			res, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: grpcserver.BlobServiceName})
			if err != nil {
				return fmt.Errorf("health check %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", grpcserver.BlobServiceName, res.GetStatus())
			if res.GetStatus() != healthpb.HealthCheckResponse_SERVING {
				return fmt.Errorf("%s is %s", grpcserver.BlobServiceName, res.GetStatus())
			}
			return nil
		},
	}
	healthCmd.Flags().String("grpc", "", "gRPC address of the emulator (default from config)")
	healthCmd.Flags().Duration("timeout", 5*time.Second, "Health check timeout")
	return healthCmd
}
