package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultDataDirXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/jsonlog" {
		t.Fatalf("got %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	t.Setenv("HOME", "")
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("expected fallback to ./data, got %s", got)
	}
}

func TestDefaultDataDirUnderHome(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_DATA_HOME", "")
	if got, want := DefaultDataDir(), filepath.Join(home, ".jsonlog"); got != want {
		t.Fatalf("got %s want %s", got, want)
	}
	if err := os.MkdirAll(filepath.Join(home, ".local", "share"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if got := DefaultDataDir(); !strings.HasPrefix(got, home) || filepath.Base(got) != "jsonlog" {
		t.Fatalf("unexpected dir %s", got)
	}
}

func TestResolveDataDir(t *testing.T) {
	if got := ResolveDataDir("/x"); got != "/x" {
		t.Fatalf("got %s", got)
	}
	if ResolveDataDir("") == "" {
		t.Fatalf("empty resolve")
	}
}

func TestIsDir(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"existing directory", ".", true},
		{"non-existent path", "/non/existent/path/that/does/not/exist", false},
		{"file instead of directory", os.Args[0], false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := isDir(tt.path); got != tt.expected {
				t.Errorf("isDir(%s) = %v, expected %v", tt.path, got, tt.expected)
			}
		})
	}
}
