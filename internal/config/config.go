package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// CatalogIndexURL is the live feed read by build-db and validate.
	CatalogIndexURL string `json:"catalogIndexUrl" yaml:"catalogIndexUrl"`
	// LeafBaseURL prefixes generated leaf ids.
	LeafBaseURL string `json:"leafBaseUrl" yaml:"leafBaseUrl"`
	// CatalogBaseURL prefixes index and page ids for the memory destination.
	CatalogBaseURL string `json:"catalogBaseUrl" yaml:"catalogBaseUrl"`

	DBPath         string `json:"dbPath" yaml:"dbPath"`
	DestinationDir string `json:"destinationDir" yaml:"destinationDir"`
	BlobEndpoint   string `json:"blobEndpoint" yaml:"blobEndpoint"`
	BlobContainer  string `json:"blobContainer" yaml:"blobContainer"`

	Ingest   IngestConfig   `json:"ingest" yaml:"ingest"`
	Simulate SimulateConfig `json:"simulate" yaml:"simulate"`
	Blob     BlobConfig     `json:"blob" yaml:"blob"`

	HTTPTimeoutSeconds int    `json:"httpTimeoutSeconds" yaml:"httpTimeoutSeconds"`
	LogLevel           string `json:"logLevel" yaml:"logLevel"`
	LogFormat          string `json:"logFormat" yaml:"logFormat"`
}

// IngestConfig tunes the build-db pipeline.
type IngestConfig struct {
	DownloadWorkers int `json:"downloadWorkers" yaml:"downloadWorkers"`
	ChannelCapacity int `json:"channelCapacity" yaml:"channelCapacity"`
	FlushThreshold  int `json:"flushThreshold" yaml:"flushThreshold"`
}

// SimulateConfig tunes the simulate command.
type SimulateConfig struct {
	ConflictRetries int    `json:"conflictRetries" yaml:"conflictRetries"`
	Seed            int64  `json:"seed" yaml:"seed"`
	Mode            string `json:"mode" yaml:"mode"`
}

// BlobConfig configures the blob emulator.
type BlobConfig struct {
	DataDir  string `json:"dataDir" yaml:"dataDir"`
	HTTPAddr string `json:"httpAddr" yaml:"httpAddr"`
	GRPCAddr string `json:"grpcAddr" yaml:"grpcAddr"`
	Fsync    string `json:"fsync" yaml:"fsync"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		CatalogIndexURL: "https://api.nuget.org/v3/catalog0/index.json",
		LeafBaseURL:     "https://api.nuget.org/v3/catalog0/",
		CatalogBaseURL:  "http://127.0.0.1:10000/devstoreaccount1/catalog0/",
		DBPath:          "commits.db",
		DestinationDir:  "catalog0",
		BlobEndpoint:    "http://127.0.0.1:10000",
		BlobContainer:   "catalog0",
		Ingest: IngestConfig{
			DownloadWorkers: 8,
			ChannelCapacity: 2000,
			FlushThreshold:  250_000,
		},
		Simulate: SimulateConfig{
			ConflictRetries: 3,
			Mode:            "batch",
		},
		Blob: BlobConfig{
			HTTPAddr: ":10000",
			GRPCAddr: ":10001",
			Fsync:    "interval",
		},
		HTTPTimeoutSeconds: 100,
		LogLevel:           "info",
		LogFormat:          "text",
	}
}

// Load reads configuration from a JSON or YAML file (by extension) over the
// defaults. If path is empty, returns defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("config: %s: %w", path, err)
		}
	}
	return cfg, nil
}

// Validate rejects values no component can run with.
func (c Config) Validate() error {
	switch {
	case c.Ingest.DownloadWorkers <= 0:
		return fmt.Errorf("config: ingest.downloadWorkers must be positive")
	case c.Ingest.ChannelCapacity <= 0:
		return fmt.Errorf("config: ingest.channelCapacity must be positive")
	case c.Ingest.FlushThreshold <= 0:
		return fmt.Errorf("config: ingest.flushThreshold must be positive")
	case c.Simulate.ConflictRetries < 0:
		return fmt.Errorf("config: simulate.conflictRetries must not be negative")
	case c.Simulate.Mode != "batch" && c.Simulate.Mode != "single":
		return fmt.Errorf("config: simulate.mode must be batch or single")
	case c.HTTPTimeoutSeconds <= 0:
		return fmt.Errorf("config: httpTimeoutSeconds must be positive")
	}
	return nil
}
