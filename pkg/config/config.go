// Package config loads tracetower settings from a TOML file.
//
// Every field has a default, so a missing file is not an error. Values are
// resolved in this order, later ones winning:
//
//  1. built-in defaults ([Default])
//  2. the TOML file ([DefaultPath] unless another path is given)
//  3. TRACETOWER_* environment variables ([Config.ApplyEnv])
//  4. command-line flags (applied by the CLI)
//
// Example file:
//
//	[render]
//	default_model = "gpt-4o"
//	output_budget = 40
//	direction = "LR"
//
//	[cache]
//	redis_addr = "localhost:6379"
//
//	[mongo]
//	uri = "mongodb://localhost:27017"
//	database = "agents"
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/tracetower/pkg/cache"
	"github.com/matzehuels/tracetower/pkg/pipeline"
	"github.com/matzehuels/tracetower/pkg/render/flowchart"
	"github.com/matzehuels/tracetower/pkg/render/timeline"
	"github.com/matzehuels/tracetower/pkg/source"
)

// AppName names the configuration and cache directories.
const AppName = "tracetower"

// DefaultAddr is the listen address of the HTTP server.
const DefaultAddr = ":8080"

// Config is the complete configuration.
type Config struct {
	Render RenderConfig `toml:"render"`
	Cache  CacheConfig  `toml:"cache"`
	Mongo  MongoConfig  `toml:"mongo"`
	Server ServerConfig `toml:"server"`
}

// RenderConfig holds render defaults shared by every command.
type RenderConfig struct {
	DefaultModel string `toml:"default_model"`
	OutputBudget int    `toml:"output_budget"`
	Direction    string `toml:"direction"`
	ClickHandler string `toml:"click_handler"`
	DeriveLinks  bool   `toml:"derive_links"`
}

// CacheConfig selects the artifact cache backend. A non-empty RedisAddr
// selects Redis, otherwise entries go to Dir.
type CacheConfig struct {
	Disabled    bool   `toml:"disabled"`
	Dir         string `toml:"dir"`
	RedisAddr   string `toml:"redis_addr"`
	RedisDB     int    `toml:"redis_db"`
	RedisPrefix string `toml:"redis_prefix"`
}

// MongoConfig locates the recorder's node collection.
type MongoConfig struct {
	URI        string `toml:"uri"`
	Database   string `toml:"database"`
	Collection string `toml:"collection"`
}

// ServerConfig configures `tracetower serve`.
type ServerConfig struct {
	Addr string `toml:"addr"`
	// TraceDir serves traces from JSON files when no Mongo URI is set.
	TraceDir string `toml:"trace_dir"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Render: RenderConfig{
			OutputBudget: flowchart.DefaultOutputBudget,
			Direction:    flowchart.DefaultDirection,
			ClickHandler: timeline.DefaultClickHandler,
			DeriveLinks:  true,
		},
		Cache: CacheConfig{
			RedisPrefix: cache.DefaultRedisPrefix,
		},
		Mongo: MongoConfig{
			Database:   source.DefaultMongoDatabase,
			Collection: source.DefaultMongoCollection,
		},
		Server: ServerConfig{
			Addr:     DefaultAddr,
			TraceDir: ".",
		},
	}
}

// Load reads the TOML file at path over [Default]. An empty path means
// [DefaultPath]; a missing default file is not an error, a missing explicit
// file is.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return cfg, nil
		}
		path = p
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		return Config{}, fmt.Errorf("load config %s: unknown key %q", path, keys[0].String())
	}
	return cfg, nil
}

// ApplyEnv overrides fields from TRACETOWER_* environment variables.
func (c *Config) ApplyEnv() {
	setString(&c.Mongo.URI, "TRACETOWER_MONGO_URI")
	setString(&c.Mongo.Database, "TRACETOWER_MONGO_DATABASE")
	setString(&c.Mongo.Collection, "TRACETOWER_MONGO_COLLECTION")
	setString(&c.Cache.RedisAddr, "TRACETOWER_REDIS_ADDR")
	setString(&c.Server.Addr, "TRACETOWER_ADDR")
	setString(&c.Render.DefaultModel, "TRACETOWER_DEFAULT_MODEL")
	if v := os.Getenv("TRACETOWER_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.RedisDB = n
		}
	}
}

// PipelineOptions returns the render defaults as pipeline options.
func (c Config) PipelineOptions(formats ...string) pipeline.Options {
	return pipeline.Options{
		Formats:      formats,
		DefaultModel: c.Render.DefaultModel,
		OutputBudget: c.Render.OutputBudget,
		Direction:    c.Render.Direction,
		ClickHandler: c.Render.ClickHandler,
		DeriveLinks:  c.Render.DeriveLinks,
	}
}

// SourceConfig returns the Mongo settings in the form [source.NewMongoSource]
// expects.
func (c Config) SourceConfig() source.MongoConfig {
	return source.MongoConfig{
		URI:        c.Mongo.URI,
		Database:   c.Mongo.Database,
		Collection: c.Mongo.Collection,
	}
}

// DefaultPath returns the config file location using the XDG standard
// (~/.config/tracetower/config.toml).
func DefaultPath() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, AppName, "config.toml"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", AppName, "config.toml"), nil
}

// CacheDir returns the cache directory: c.Cache.Dir if set, otherwise the
// XDG cache location (~/.cache/tracetower/).
func (c Config) CacheDir() (string, error) {
	if c.Cache.Dir != "" {
		return c.Cache.Dir, nil
	}
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, AppName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", AppName), nil
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
