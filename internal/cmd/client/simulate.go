package client

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/joelverhagen/json-append-log/internal/blob"
	"github.com/joelverhagen/json-append-log/internal/simulate"
	"github.com/joelverhagen/json-append-log/internal/source"
	pebblestore "github.com/joelverhagen/json-append-log/internal/storage/pebble"
	"github.com/joelverhagen/json-append-log/internal/store"
	"github.com/joelverhagen/json-append-log/internal/writer"
	"github.com/joelverhagen/json-append-log/pkg/id"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
	"github.com/spf13/cobra"
)

// defaultRandomEvents is the event count of a random simulation when
// --event-count is not given.
const defaultRandomEvents = 15_000_000

// destination is a prepared store plus the base URL its documents live under.
type destination struct {
	store       store.Store
	catalogBase string
	// report prints destination specific totals after the run.
	report func(io.Writer)
}

// newSimulateCommand constructs the `simulate` command.
func newSimulateCommand(g *Globals) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Write random or replayed commits into a catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := g.Config
			destName, _ := cmd.Flags().GetString("destination")
			srcName, _ := cmd.Flags().GetString("source")
			events, _ := cmd.Flags().GetInt64("event-count")
			modeName, _ := cmd.Flags().GetString("mode")
			leafBase, _ := cmd.Flags().GetString("leaf-base-url")
			filterExpr, _ := cmd.Flags().GetString("filter")
			yes, _ := cmd.Flags().GetBool("yes")
			if leafBase == "" {
				leafBase = cfg.LeafBaseURL
			}
			if modeName == "" {
				modeName = cfg.Simulate.Mode
			}
			mode, err := simulate.ParseMode(modeName)
			if err != nil {
				return err
			}
			if events < 0 {
				return fmt.Errorf("--event-count must not be negative")
			}
			logger := g.Logger.WithComponent("simulate")

			var src source.Source
			switch srcName {
			case "random":
				if filterExpr != "" {
					return fmt.Errorf("--filter requires --source database")
				}
				if !cmd.Flags().Changed("event-count") {
					events = defaultRandomEvents
				}
				seed, _ := cmd.Flags().GetInt64("seed")
				if !cmd.Flags().Changed("seed") {
					seed = cfg.Simulate.Seed
				}
				src = source.NewRandom(id.NewGenerator(seed), events)
			case "database":
				dbPath, _ := cmd.Flags().GetString("db-path")
				if dbPath == "" {
					dbPath = cfg.DBPath
				}
				exists, err := pathExists(dbPath)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("%w: database %s does not exist; run build-db first", ErrPrecondition, dbPath)
				}
				db, cache, err := openCache(dbPath, pebblestore.FsyncModeUnspecified)
				if err != nil {
					return err
				}
				defer db.Close()
				available := cache.EventCount()
				if !cmd.Flags().Changed("event-count") {
					events = available
				} else if events > available {
					return fmt.Errorf("%w: %d events requested but the database holds %d", ErrPrecondition, events, available)
				}
				filter, err := source.NewFilter(filterExpr)
				if err != nil {
					return err
				}
				replay, err := source.NewReplay(cache, events, filter)
				if err != nil {
					return err
				}
				defer replay.Close()
				src = replay
			default:
				return fmt.Errorf("unknown --source %q (want random or database)", srcName)
			}

			dest, err := openDestination(cmd, g, destName, yes)
			if err != nil {
				return err
			}

			w := writer.New(dest.store, logger)
			runner := simulate.New(w, simulate.Options{
				CatalogBase:     dest.catalogBase,
				LeafBase:        leafBase,
				Mode:            mode,
				ConflictRetries: cfg.Simulate.ConflictRetries,
				Logger:          logger,
				Progress: func(s simulate.Stats) {
					if s.Writes%100 == 0 {
						logger.Info("progress",
							logpkg.Int64("events", s.Events),
							logpkg.Int64("commits", s.Commits),
							logpkg.Str("rate", perSecond(s.Events, s.Elapsed)))
					}
				},
			})
			logger.Info("simulating",
				logpkg.Str("source", srcName),
				logpkg.Str("destination", destName),
				logpkg.Str("catalog", dest.catalogBase),
				logpkg.Int64("events", events),
				logpkg.Str("mode", string(mode)))
			st, err := runner.Run(cmd.Context(), src)
			if err != nil {
				return err
			}

			ws := w.Stats()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "catalog: %sindex.json\n", dest.catalogBase)
			fmt.Fprintf(out, "events: %d in %d commits (%s)\n", st.Events, st.Commits, perSecond(st.Events, st.Elapsed))
			fmt.Fprintf(out, "writes: %d, conflicts: %d\n", st.Writes, st.Conflicts)
			fmt.Fprintf(out, "pages added: %d, pages updated: %d, index writes: %d\n", ws.PagesAdded, ws.PagesUpdated, ws.IndexWrites)
			if dest.report != nil {
				dest.report(out)
			}
			fmt.Fprintf(out, "elapsed: %s\n", st.Elapsed.Round(time.Millisecond))
			return nil
		},
	}
	cmd.Flags().String("destination", "memory", "Store variant: memory|filesystem|blob")
	cmd.Flags().String("source", "random", "Commit source: random|database")
	cmd.Flags().Int64("event-count", 0, "Events to write (default 15000000 for random, the whole cache for database)")
	cmd.Flags().String("db-path", "", "Replay cache directory for --source database (default from config)")
	cmd.Flags().String("destination-dir", "", "Output directory for --destination filesystem (default from config)")
	cmd.Flags().String("blob-endpoint", "", "Blob service endpoint for --destination blob (default from config)")
	cmd.Flags().String("container", "", "Blob container for --destination blob (default from config)")
	cmd.Flags().String("catalog-base-url", "", "Catalog base URL for --destination memory (default from config)")
	cmd.Flags().String("leaf-base-url", "", "Base URL of leaf ids (default from config)")
	cmd.Flags().String("filter", "", "CEL expression over id, version, kind, commitId, timestamp; --source database only")
	cmd.Flags().Int64("seed", 0, "Starting counter of the random generator (default from config)")
	cmd.Flags().String("mode", "", "Writer entry point: batch|single (default from config)")
	cmd.Flags().Bool("yes", false, "Delete an existing destination without asking")
	return cmd
}

// openDestination prepares the requested store, clearing old output first.
func openDestination(cmd *cobra.Command, g *Globals, name string, yes bool) (destination, error) {
	cfg := g.Config
	switch name {
	case "memory":
		base, _ := cmd.Flags().GetString("catalog-base-url")
		if base == "" {
			base = cfg.CatalogBaseURL
		}
		mem := store.NewMemory(nil)
		return destination{
			store:       mem,
			catalogBase: base,
			report: func(out io.Writer) {
				ms := mem.Stats()
				fmt.Fprintf(out, "memory: index %d bytes, %d pages, %d page bytes\n", ms.IndexBytes, ms.Pages, ms.PageBytes)
			},
		}, nil

	case "filesystem":
		dir, _ := cmd.Flags().GetString("destination-dir")
		if dir == "" {
			dir = cfg.DestinationDir
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return destination{}, err
		}
		if err := removeWithConfirm(cmd, yes, abs, "directory"); err != nil {
			return destination{}, err
		}
		base := "file://" + filepath.ToSlash(abs) + "/"
		if !strings.HasPrefix(filepath.ToSlash(abs), "/") {
			base = "file:///" + filepath.ToSlash(abs) + "/"
		}
		fstore, err := store.NewFile(base, abs)
		if err != nil {
			return destination{}, err
		}
		return destination{store: fstore, catalogBase: base}, nil

	case "blob":
		endpoint, _ := cmd.Flags().GetString("blob-endpoint")
		container, _ := cmd.Flags().GetString("container")
		if endpoint == "" {
			endpoint = cfg.BlobEndpoint
		}
		if container == "" {
			container = cfg.BlobContainer
		}
		endpoint = strings.TrimSuffix(endpoint, "/")
		cli := blob.NewClient(endpoint, nil)
		ctx := cmd.Context()
		exists, err := cli.ContainerExists(ctx, container)
		if err != nil {
			return destination{}, fmt.Errorf("blob service at %s: %w", endpoint, err)
		}
		if exists {
			ok, err := confirm(cmd, yes, fmt.Sprintf("container %s exists at %s. Delete it?", container, endpoint))
			if err != nil {
				return destination{}, err
			}
			if !ok {
				return destination{}, fmt.Errorf("%w: container %s was kept", ErrDeclined, container)
			}
			if err := cli.DeleteContainer(ctx, container); err != nil && !errors.Is(err, blob.ErrContainerNotFound) {
				return destination{}, err
			}
		}
		if err := cli.CreateContainer(ctx, container); err != nil {
			return destination{}, err
		}
		base := endpoint + "/" + container + "/"
		return destination{store: store.NewBlob(cli, container, base), catalogBase: base}, nil

	default:
		return destination{}, fmt.Errorf("unknown --destination %q (want memory, filesystem or blob)", name)
	}
}
