// Package settings loads engine-wide settings from a TOML file.
//
// Settings cover what is shared by every part in a process: catalog paths,
// logging, the state store backend and the HTTP listener. Per-part values
// live in the part's HCL block instead.
//
//	log_level = "info"
//
//	[catalog]
//	paths = ["catalog"]
//
//	[store]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "720h"
package settings

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/log"

	"github.com/matzehuels/stackwright/pkg/errors"
)

// Store backends.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Duration is a time.Duration written as a string such as "90m".
type Duration struct{ time.Duration }

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(b)))
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidValue, err, "duration %q", string(b))
	}
	d.Duration = v
	return nil
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// Catalog locates layout and model definitions.
type Catalog struct {
	Paths []string `toml:"paths"`
}

// Store selects where assembly state is persisted.
type Store struct {
	Backend       string   `toml:"backend"`
	Dir           string   `toml:"dir"`
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	MongoURI      string   `toml:"mongo_uri"`
	MongoDatabase string   `toml:"mongo_database"`
	TTL           Duration `toml:"ttl"`
}

// Server configures the HTTP API.
type Server struct {
	Addr         string   `toml:"addr"`
	ReadTimeout  Duration `toml:"read_timeout"`
	WriteTimeout Duration `toml:"write_timeout"`
}

// Export configures mesh export.
type Export struct {
	Cells int `toml:"cells"`
}

// Settings is the top-level settings document.
type Settings struct {
	LogLevel       string `toml:"log_level"`
	PersistRecolor bool   `toml:"persist_recolor"`
	MinNodeSize    int    `toml:"min_node_size"`

	Catalog Catalog `toml:"catalog"`
	Store   Store   `toml:"store"`
	Server  Server  `toml:"server"`
	Export  Export  `toml:"export"`
}

// Default returns settings used when no file is given.
func Default() Settings {
	return Settings{
		LogLevel:    "info",
		MinNodeSize: 1,
		Catalog:     Catalog{Paths: []string{"catalog"}},
		Store: Store{
			Backend:       BackendFile,
			RedisAddr:     "localhost:6379",
			MongoURI:      "mongodb://localhost:27017",
			MongoDatabase: "stackwright",
			TTL:           Duration{30 * 24 * time.Hour},
		},
		Server: Server{
			Addr:         ":8080",
			ReadTimeout:  Duration{10 * time.Second},
			WriteTimeout: Duration{30 * time.Second},
		},
		Export: Export{Cells: 200},
	}
}

// Load reads a TOML file over the defaults. Relative catalog paths and the
// store directory resolve against the file's directory.
func Load(path string) (Settings, error) {
	s := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, errors.Wrap(errors.ErrCodeFileNotFound, err, "settings %s", path)
		}
		return s, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read settings %s", path)
	}
	md, err := toml.Decode(string(data), &s)
	if err != nil {
		return s, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse settings %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return s, errors.New(errors.ErrCodeInvalidConfig, "settings %s: unknown key %s", path, undecoded[0])
	}

	base := filepath.Dir(path)
	for i, p := range s.Catalog.Paths {
		if !filepath.IsAbs(p) {
			s.Catalog.Paths[i] = filepath.Join(base, p)
		}
	}
	if s.Store.Dir != "" && !filepath.IsAbs(s.Store.Dir) {
		s.Store.Dir = filepath.Join(base, s.Store.Dir)
	}
	return s, s.Validate()
}

// Validate checks enumerations and ranges.
func (s Settings) Validate() error {
	if _, err := log.ParseLevel(s.LogLevel); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "log_level")
	}
	switch s.Store.Backend {
	case BackendNone, BackendFile, BackendRedis, BackendMongo:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "store.backend %q must be one of none, file, redis, mongo", s.Store.Backend)
	}
	if s.MinNodeSize < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "min_node_size must not be negative")
	}
	if s.Store.TTL.Duration < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "store.ttl must not be negative")
	}
	if s.Export.Cells < 8 {
		return errors.New(errors.ErrCodeInvalidConfig, "export.cells must be at least 8")
	}
	return nil
}

// Level returns the parsed log level, defaulting to info.
func (s Settings) Level() log.Level {
	l, err := log.ParseLevel(s.LogLevel)
	if err != nil {
		return log.InfoLevel
	}
	return l
}

// Encode writes s as TOML.
func (s Settings) Encode(w io.Writer) error {
	return toml.NewEncoder(w).Encode(s)
}
