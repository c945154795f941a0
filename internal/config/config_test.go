package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CHARARCHIVE_DSN", "")
	t.Setenv("EXTERNAL_URL", "")
	t.Setenv("LOG_LEVEL", "")
}

func TestLoadProjectConfig(t *testing.T) {
	clearEnv(t)

	t.Run("valid config loads", func(t *testing.T) {
		cfg, err := LoadProjectConfig(filepath.Join("testdata", "valid_config.yaml"))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Project != "test-archive" {
			t.Fatalf("expected project name, got %q", cfg.Project)
		}
		if cfg.ImageServer.ExternalURL != "http://images.local:9000" {
			t.Fatalf("expected trailing slash trimmed, got %q", cfg.ImageServer.ExternalURL)
		}
		if cfg.Cache.TTLOrDefault() != 30*time.Second || cfg.Cache.Size != 64 {
			t.Fatalf("unexpected cache config %+v", cfg.Cache)
		}
		if cfg.Search.DefaultLimit != 25 || cfg.Search.MaxLimit != 50 {
			t.Fatalf("unexpected search config %+v", cfg.Search)
		}
	})

	t.Run("defaults applied", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.ImageServer.Addr != DefaultImageAddr {
			t.Fatalf("expected default addr, got %q", cfg.ImageServer.Addr)
		}
		if cfg.Cache.TTLOrDefault() != DefaultCacheTTL || cfg.Cache.Size != DefaultCacheSize {
			t.Fatalf("unexpected cache defaults %+v", cfg.Cache)
		}
		if cfg.Search.DefaultLimit != DefaultSearchLimit || cfg.Search.MaxLimit != DefaultMaxLimit {
			t.Fatalf("unexpected search defaults %+v", cfg.Search)
		}
		if cfg.Log.Level != DefaultLogLevel {
			t.Fatalf("unexpected log level %q", cfg.Log.Level)
		}
	})

	t.Run("zero ttl disables cache", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\ncache:\n  ttl: 0s\n")
		cfg, err := LoadProjectConfig(path)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Cache.TTLOrDefault() != 0 {
			t.Fatalf("expected zero ttl, got %v", cfg.Cache.TTLOrDefault())
		}
	})

	t.Run("missing project name", func(t *testing.T) {
		path := writeTempConfig(t, "version: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unsupported version", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 2\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing image root", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\ndatabase:\n  dsn: postgres://x\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("missing dsn", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid duration", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\ncache:\n  ttl: soon\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("max limit below default", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\nsearch:\n  default_limit: 50\n  max_limit: 10\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("unknown log level", func(t *testing.T) {
		path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\ndatabase:\n  dsn: postgres://x\nlog:\n  level: loud\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("file not found", func(t *testing.T) {
		if _, err := LoadProjectConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
			t.Fatalf("expected error")
		}
	})

	t.Run("invalid yaml", func(t *testing.T) {
		path := writeTempConfig(t, "project: [\n")
		if _, err := LoadProjectConfig(path); err == nil {
			t.Fatalf("expected error")
		}
	})
}

func TestLoadProjectConfig_EnvOverrides(t *testing.T) {
	t.Setenv("CHARARCHIVE_DSN", "postgres://from-env")
	t.Setenv("EXTERNAL_URL", "https://cdn.example/")
	t.Setenv("LOG_LEVEL", "warn")

	path := writeTempConfig(t, "project: p\nversion: 1\nimage_root: /tmp\n")
	cfg, err := LoadProjectConfig(path)
	if err != nil {
		t.Fatalf("expected env dsn to satisfy validation, got %v", err)
	}
	if cfg.Database.DSN != "postgres://from-env" {
		t.Fatalf("unexpected dsn %q", cfg.Database.DSN)
	}
	if cfg.ImageServer.ExternalURL != "https://cdn.example" {
		t.Fatalf("unexpected external url %q", cfg.ImageServer.ExternalURL)
	}
	if cfg.Log.Level != "warn" {
		t.Fatalf("unexpected log level %q", cfg.Log.Level)
	}
}

func TestCheckImageRoot(t *testing.T) {
	dir := t.TempDir()
	cfg := &ProjectConfig{ImageRoot: dir}
	if err := cfg.CheckImageRoot(); err != nil {
		t.Fatalf("expected directory to pass, got %v", err)
	}

	file := filepath.Join(dir, "file")
	if err := os.WriteFile(file, []byte("x"), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	cfg.ImageRoot = file
	if err := cfg.CheckImageRoot(); err == nil {
		t.Fatalf("expected error for non-directory root")
	}

	cfg.ImageRoot = filepath.Join(dir, "missing")
	if err := cfg.CheckImageRoot(); err == nil {
		t.Fatalf("expected error for missing root")
	}
}

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("writing temp config: %v", err)
	}
	return path
}
