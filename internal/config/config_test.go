package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendSQLite || cfg.ScopeSize != 4 || cfg.ArchiveSize != 10 || cfg.MinObservations != 2 {
		t.Errorf("defaults = %+v", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	cfg, err := Load(filepath.Join("testdata", "imitate.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendBadger || cfg.ScopeSize != 6 || cfg.MinObservations != 3 || !cfg.Generalize || cfg.Seed != 42 {
		t.Errorf("file config = %+v", cfg)
	}
	// unset keys keep their defaults
	if cfg.DBPath != "imitate.db" {
		t.Errorf("db_path = %q", cfg.DBPath)
	}
	sc := cfg.Session()
	if sc.ScopeSize != 6 || sc.ArchiveSize != 20 || !sc.Generalize {
		t.Errorf("session config = %+v", sc)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("IMITATE_BACKEND", "memory")
	t.Setenv("IMITATE_SCOPE_SIZE", "2")
	t.Setenv("IMITATE_GENERALIZE", "true")
	t.Setenv("IMITATE_SEED", "9")

	cfg, err := Load(filepath.Join("testdata", "imitate.yaml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Backend != BackendMemory || cfg.ScopeSize != 2 || !cfg.Generalize || cfg.Seed != 9 {
		t.Errorf("env config = %+v", cfg)
	}
}

func TestLoad_BadEnv(t *testing.T) {
	t.Setenv("IMITATE_ARCHIVE_SIZE", "lots")
	if _, err := Load(""); err == nil || !strings.Contains(err.Error(), "IMITATE_ARCHIVE_SIZE") {
		t.Fatalf("err = %v", err)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("scope_size: [1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"ok", func(*Config) {}, ""},
		{"scope", func(c *Config) { c.ScopeSize = 0 }, "scope_size"},
		{"archive", func(c *Config) { c.ArchiveSize = -1 }, "archive_size"},
		{"threshold", func(c *Config) { c.MinObservations = 0 }, "min_observations"},
		{"backend", func(c *Config) { c.Backend = "redis" }, "unknown backend"},
		{"remote addr", func(c *Config) { c.Backend = BackendRemote; c.CodecAddr = "" }, "codec_addr"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
}
