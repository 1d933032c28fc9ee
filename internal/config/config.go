package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/imitate/internal/session"
)

// #region types

// Backend names the feedback store.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendBadger Backend = "badger"
	BackendRemote Backend = "remote"
)

// Config is the process configuration. Values come from an optional YAML
// file, then IMITATE_* environment variables.
type Config struct {
	Backend       Backend `yaml:"backend"`
	DBPath        string  `yaml:"db_path"`
	BadgerDir     string  `yaml:"badger_dir"`
	CodecAddr     string  `yaml:"codec_addr"`
	ListenAddr    string  `yaml:"listen_addr"`
	SequencesPath string  `yaml:"sequences"`
	Seed          int64   `yaml:"seed"`

	ScopeSize       int  `yaml:"scope_size"`
	ArchiveSize     int  `yaml:"archive_size"`
	MinObservations int  `yaml:"min_observations"`
	Generalize      bool `yaml:"generalize"`
}

// #endregion types

// #region defaults

// Default returns the built-in configuration.
func Default() Config {
	d := session.DefaultConfig()
	return Config{
		Backend:         BackendSQLite,
		DBPath:          "imitate.db",
		BadgerDir:       "imitate.badger",
		CodecAddr:       "localhost:50051",
		ListenAddr:      ":50051",
		ScopeSize:       d.ScopeSize,
		ArchiveSize:     d.ArchiveSize,
		MinObservations: d.MinObservations,
	}
}

// #endregion defaults

// #region load

// Load reads path (if non-empty) over the defaults, applies environment
// overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	c.Backend = Backend(envOr("IMITATE_BACKEND", string(c.Backend)))
	c.DBPath = envOr("IMITATE_DB", c.DBPath)
	c.BadgerDir = envOr("IMITATE_BADGER_DIR", c.BadgerDir)
	c.CodecAddr = envOr("IMITATE_CODEC_ADDR", c.CodecAddr)
	c.ListenAddr = envOr("IMITATE_LISTEN_ADDR", c.ListenAddr)
	c.SequencesPath = envOr("IMITATE_SEQUENCES", c.SequencesPath)

	var err error
	if c.ScopeSize, err = envInt("IMITATE_SCOPE_SIZE", c.ScopeSize); err != nil {
		return err
	}
	if c.ArchiveSize, err = envInt("IMITATE_ARCHIVE_SIZE", c.ArchiveSize); err != nil {
		return err
	}
	if c.MinObservations, err = envInt("IMITATE_MIN_OBSERVATIONS", c.MinObservations); err != nil {
		return err
	}
	seed, err := envInt("IMITATE_SEED", int(c.Seed))
	if err != nil {
		return err
	}
	c.Seed = int64(seed)
	if v := os.Getenv("IMITATE_GENERALIZE"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("IMITATE_GENERALIZE: %w", err)
		}
		c.Generalize = b
	}
	return nil
}

// #endregion load

// #region validate

// Validate rejects non-positive bounds and unknown backends.
func (c Config) Validate() error {
	var errs []error
	if c.ScopeSize <= 0 {
		errs = append(errs, fmt.Errorf("scope_size must be positive, got %d", c.ScopeSize))
	}
	if c.ArchiveSize <= 0 {
		errs = append(errs, fmt.Errorf("archive_size must be positive, got %d", c.ArchiveSize))
	}
	if c.MinObservations <= 0 {
		errs = append(errs, fmt.Errorf("min_observations must be positive, got %d", c.MinObservations))
	}
	switch c.Backend {
	case BackendMemory:
	case BackendSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("sqlite backend needs db_path"))
		}
	case BackendBadger:
		if c.BadgerDir == "" {
			errs = append(errs, errors.New("badger backend needs badger_dir"))
		}
	case BackendRemote:
		if c.CodecAddr == "" {
			errs = append(errs, errors.New("remote backend needs codec_addr"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown backend %q (want %s)", c.Backend,
			strings.Join([]string{string(BackendMemory), string(BackendSQLite), string(BackendBadger), string(BackendRemote)}, "|")))
	}
	return errors.Join(errs...)
}

// Session returns the session bounds.
func (c Config) Session() session.Config {
	return session.Config{
		ScopeSize:       c.ScopeSize,
		ArchiveSize:     c.ArchiveSize,
		MinObservations: c.MinObservations,
		Generalize:      c.Generalize,
	}
}

// #endregion validate

// #region helpers
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return n, nil
}
// #endregion helpers
