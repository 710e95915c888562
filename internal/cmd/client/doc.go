// Package client provides the `jsonlog` command-line commands.
//
// The commands build a replay cache from a live catalog, simulate writing a
// catalog into one of the store variants, validate a published catalog and
// run the local blob emulator.
//
// Installation
//
//	go install github.com/joelverhagen/json-append-log/cmd/jsonlog@latest
//
// # Configuration
//
// Defaults come from internal/config. A --config file (JSON or YAML) is
// applied first, then JSONLOG_* environment variables, then flags.
//
// Usage
//
//	# Load every commit of the live catalog into ./commits.db
//	jsonlog build-db --db-path commits.db --yes
//
//	# Write 100k random events into an in-memory catalog
//	jsonlog simulate --destination memory --event-count 100000
//
//	# Replay the cache into a directory, keeping only deletes
//	jsonlog simulate --destination filesystem --source database \
//	    --destination-dir ./catalog0 --filter 'kind == "PackageDelete"'
//
//	# Replay into the blob emulator
//	jsonlog blob serve --data-dir ./blobdata &
//	jsonlog simulate --destination blob --blob-endpoint http://127.0.0.1:10000
//
//	# Check the newest 3 pages of a catalog, byte for byte
//	jsonlog validate --url https://api.nuget.org/v3/catalog0/index.json --strict --pages 3
//
//	jsonlog blob health --grpc 127.0.0.1:10001
//
// Notes
//
//   - Commands that would delete existing data (build-db, filesystem and blob
//     destinations) ask first. --yes skips the question; without a terminal
//     the answer is no.
//   - A declined prompt or an event count larger than the cache exits with 1.
package client
