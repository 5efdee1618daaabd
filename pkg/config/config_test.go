package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
[render]
default_model = "gpt-4o"
output_budget = 40
direction = "LR"

[cache]
redis_addr = "localhost:6379"
redis_db = 2

[mongo]
uri = "mongodb://localhost:27017"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Render.DefaultModel != "gpt-4o" || cfg.Render.OutputBudget != 40 || cfg.Render.Direction != "LR" {
		t.Errorf("Render = %+v", cfg.Render)
	}
	if cfg.Cache.RedisAddr != "localhost:6379" || cfg.Cache.RedisDB != 2 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Mongo.URI != "mongodb://localhost:27017" {
		t.Errorf("Mongo.URI = %q", cfg.Mongo.URI)
	}

	// Unset keys keep their defaults.
	def := Default()
	if cfg.Render.ClickHandler != def.Render.ClickHandler {
		t.Errorf("ClickHandler = %q, want default %q", cfg.Render.ClickHandler, def.Render.ClickHandler)
	}
	if cfg.Mongo.Collection != def.Mongo.Collection {
		t.Errorf("Collection = %q, want default %q", cfg.Mongo.Collection, def.Mongo.Collection)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, DefaultAddr)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		want string
	}{
		{"missing explicit file", filepath.Join(t.TempDir(), "nope.toml"), "nope.toml"},
		{"syntax error", writeConfig(t, "[render\n"), "load config"},
		{"unknown key", writeConfig(t, "[render]\ncolour = \"red\"\n"), "render.colour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Load() error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}

func TestLoad_DefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	if err := os.MkdirAll(filepath.Join(dir, AppName), 0o755); err != nil {
		t.Fatal(err)
	}
	body := "[server]\naddr = \":9999\"\n"
	if err := os.WriteFile(filepath.Join(dir, AppName, "config.toml"), []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Addr != ":9999" {
		t.Errorf("Server.Addr = %q, want :9999", cfg.Server.Addr)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TRACETOWER_MONGO_URI", "mongodb://db:27017")
	t.Setenv("TRACETOWER_REDIS_ADDR", "cache:6379")
	t.Setenv("TRACETOWER_REDIS_DB", "3")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Mongo.URI != "mongodb://db:27017" {
		t.Errorf("Mongo.URI = %q", cfg.Mongo.URI)
	}
	if cfg.Cache.RedisAddr != "cache:6379" || cfg.Cache.RedisDB != 3 {
		t.Errorf("Cache = %+v", cfg.Cache)
	}
	if cfg.Server.Addr != DefaultAddr {
		t.Errorf("unset env changed Server.Addr to %q", cfg.Server.Addr)
	}
}

func TestPipelineOptions(t *testing.T) {
	cfg := Default()
	cfg.Render.DefaultModel = "m"
	opts := cfg.PipelineOptions("timeline")
	if len(opts.Formats) != 1 || opts.Formats[0] != "timeline" {
		t.Errorf("Formats = %v", opts.Formats)
	}
	if opts.DefaultModel != "m" || !opts.DeriveLinks || opts.Direction != cfg.Render.Direction {
		t.Errorf("PipelineOptions() = %+v", opts)
	}
	if err := opts.Validate(); err != nil {
		t.Errorf("default options should validate: %v", err)
	}
}

func TestCacheDir(t *testing.T) {
	cfg := Default()
	cfg.Cache.Dir = "/tmp/x"
	if dir, _ := cfg.CacheDir(); dir != "/tmp/x" {
		t.Errorf("CacheDir() = %q, want /tmp/x", dir)
	}

	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)
	dir, err := Default().CacheDir()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(xdg, AppName); dir != want {
		t.Errorf("CacheDir() = %q, want %q", dir, want)
	}
}
