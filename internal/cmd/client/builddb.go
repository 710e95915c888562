package client

import (
	"fmt"
	"time"

	"github.com/joelverhagen/json-append-log/internal/ingest"
	"github.com/joelverhagen/json-append-log/internal/reader"
	"github.com/joelverhagen/json-append-log/internal/replaycache"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
	"github.com/spf13/cobra"
)

// progressEvery is how many persisted pages pass between progress log lines.
const progressEvery = 500

// openCache opens the replay cache stored under dbPath.
func openCache(dbPath string, fsync pebblestore.FsyncMode) (*pebblestore.DB, *replaycache.Cache, error) {
	db, err := pebblestore.Open(pebblestore.Options{DataDir: dbPath, Fsync: fsync})
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", dbPath, err)
	}
	cache, err := replaycache.Open(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return db, cache, nil
}

// newBuildDBCommand constructs the `build-db` command.
func newBuildDBCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build-db",
		Short: "Download every commit of a catalog into a replay cache",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.Config
			dbPath, _ := cmd.Flags().GetString("db-path")
			indexURL, _ := cmd.Flags().GetString("catalog-index")
			yes, _ := cmd.Flags().GetBool("yes")
			if dbPath == "" {
				dbPath = cfg.DBPath
			}
			if indexURL == "" {
				indexURL = cfg.CatalogIndexURL
			}

			if err := removeWithConfirm(cmd, yes, dbPath, "database"); err != nil {
				return err
			}
			db, cache, err := openCache(dbPath, pebblestore.FsyncModeNever)
			if err != nil {
				return err
			}
			defer db.Close()

			logger := g.Logger.WithComponent("build-db")
			rdr := reader.New(
				reader.WithTimeout(time.Duration(cfg.HTTPTimeoutSeconds)*time.Second),
				reader.WithLogger(logger),
			)
			start := time.Now()
			p := ingest.New(rdr, cache, ingest.Options{
				Workers:        cfg.Ingest.DownloadWorkers,
				Capacity:       cfg.Ingest.ChannelCapacity,
				FlushThreshold: cfg.Ingest.FlushThreshold,
				Logger:         logger,
				Progress: func(s ingest.Stats) {
					if s.Persisted%progressEvery == 0 {
						logger.Info("progress",
							logpkg.Int64("persisted", s.Persisted),
							logpkg.Int("pages", s.Pages),
							logpkg.Int64("commits", s.Commits),
							logpkg.Str("rate", perSecond(s.Persisted, time.Since(start))))
					}
				},
			})
			st, err := p.Run(cmd.Context(), indexURL)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "pages: %d (downloaded %d, failed %d)\n", st.Pages, st.Downloaded, st.Failed)
			fmt.Fprintf(out, "commits: %d (duplicates skipped %d)\n", st.Commits, st.Duplicates)
			fmt.Fprintf(out, "cache: %d commits, %d events in %s\n", cache.CommitCount(), cache.EventCount(), dbPath)
			fmt.Fprintf(out, "elapsed: %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().String("db-path", "", "Replay cache directory (default from config)")
	cmd.Flags().String("catalog-index", "", "Catalog index URL to download (default from config)")
	cmd.Flags().Bool("yes", false, "Delete an existing database without asking")
	return cmd
}
