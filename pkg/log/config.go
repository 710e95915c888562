package log

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// Config declares a logger: level, format and destination.
type Config struct {
	Level  string // debug|info|warn|error
	Format string // text|json
	// Output is console (default), file, or null.
	Output string
	// File is required when Output is "file".
	File   string
	Redact []string
	// SampleInitial/SampleThereafter enable per-message sampling when SampleThereafter > 0.
	SampleInitial    int
	SampleThereafter int
}

// ParseLevel converts a level name to a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DebugLevel, nil
	case "info", "":
		return InfoLevel, nil
	case "warn", "warning":
		return WarnLevel, nil
	case "error":
		return ErrorLevel, nil
	case "fatal":
		return FatalLevel, nil
	default:
		return InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
}

// ApplyConfig builds a Logger from cfg.
func ApplyConfig(cfg *Config) (Logger, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var out Output
	switch strings.ToLower(cfg.Output) {
	case "", "console", "stderr":
		out = NewConsoleOutput()
	case "file":
		if cfg.File == "" {
			return nil, fmt.Errorf("log output file requires a path")
		}
		fo, err := NewFileOutput(cfg.File)
		if err != nil {
			return nil, err
		}
		out = fo
	case "null", "none":
		out = NullOutput{}
	default:
		return nil, fmt.Errorf("unknown log output %q", cfg.Output)
	}

	var formatter Formatter
	switch strings.ToLower(cfg.Format) {
	case "", "text":
		_, console := out.(*ConsoleOutput)
		formatter = &TextFormatter{Colors: console && isatty.IsTerminal(os.Stderr.Fd())}
	case "json":
		formatter = &JSONFormatter{}
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	return NewLogger(
		WithLevel(level),
		WithFormatter(formatter),
		WithOutput(out),
		WithRedaction(cfg.Redact...),
		WithSampling(cfg.SampleInitial, cfg.SampleThereafter),
	), nil
}
