package client

import (
	"github.com/joelverhagen/json-append-log/internal/config"
	logpkg "github.com/joelverhagen/json-append-log/pkg/log"
	"github.com/spf13/cobra"
)

// Globals holds the state the root command resolves before a subcommand runs.
type Globals struct {
	Config config.Config
	// Logger is built from the resolved config unless it is already set.
	Logger logpkg.Logger
	// RedirectStdLog routes the standard library logger (used by Pebble)
	// through Logger.
	RedirectStdLog bool
}

// NewRoot constructs the jsonlog root command and registers every command group.
func NewRoot(g *Globals) *cobra.Command {
	root := &cobra.Command{
		Use:           "jsonlog",
		Short:         "Append-only JSON catalog tools",
		Long:          "jsonlog writes, replays and validates paginated append-only JSON catalogs.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return g.resolve(cmd)
		},
	}
	root.PersistentFlags().String("config", "", "Config file (.json, .yaml or .yml)")
	root.PersistentFlags().String("log-level", "", "Log level: debug|info|warn|error")
	root.PersistentFlags().String("log-format", "", "Log format: text|json")

	root.AddCommand(
		newBuildDBCommand(g),
		newSimulateCommand(g),
		newValidateCommand(g),
		NewBlobCommand(g),
	)
	return root
}

func (g *Globals) resolve(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	config.FromEnv(&cfg)
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.LogFormat = v
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	g.Config = cfg

	l, err := logpkg.ApplyConfig(&logpkg.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		return err
	}
	if g.Logger == nil {
		g.Logger = l
	}
	if g.RedirectStdLog {
		logpkg.RedirectStdLog(g.Logger)
	}
	return nil
}
