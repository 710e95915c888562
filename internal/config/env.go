package config

import (
	"os"
	"strconv"
)

// FromEnv overlays JSONLOG_* environment variables onto cfg.
func FromEnv(cfg *Config) {
	str := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v := os.Getenv(key); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("JSONLOG_CATALOG_INDEX_URL", &cfg.CatalogIndexURL)
	str("JSONLOG_LEAF_BASE_URL", &cfg.LeafBaseURL)
	str("JSONLOG_CATALOG_BASE_URL", &cfg.CatalogBaseURL)
	str("JSONLOG_DB_PATH", &cfg.DBPath)
	str("JSONLOG_DESTINATION_DIR", &cfg.DestinationDir)
	str("JSONLOG_BLOB_ENDPOINT", &cfg.BlobEndpoint)
	str("JSONLOG_BLOB_CONTAINER", &cfg.BlobContainer)

	num("JSONLOG_DOWNLOAD_WORKERS", &cfg.Ingest.DownloadWorkers)
	num("JSONLOG_CHANNEL_CAPACITY", &cfg.Ingest.ChannelCapacity)
	num("JSONLOG_FLUSH_THRESHOLD", &cfg.Ingest.FlushThreshold)

	num("JSONLOG_CONFLICT_RETRIES", &cfg.Simulate.ConflictRetries)
	if v := os.Getenv("JSONLOG_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.Simulate.Seed = n
		}
	}
	str("JSONLOG_SIMULATE_MODE", &cfg.Simulate.Mode)

	str("JSONLOG_BLOB_DATA_DIR", &cfg.Blob.DataDir)
	str("JSONLOG_BLOB_HTTP", &cfg.Blob.HTTPAddr)
	str("JSONLOG_BLOB_GRPC", &cfg.Blob.GRPCAddr)
	str("JSONLOG_BLOB_FSYNC", &cfg.Blob.Fsync)

	num("JSONLOG_HTTP_TIMEOUT_SECONDS", &cfg.HTTPTimeoutSeconds)
	str("JSONLOG_LOG_LEVEL", &cfg.LogLevel)
	str("JSONLOG_LOG_FORMAT", &cfg.LogFormat)
}
