package cli

import (
	"io"
	"path/filepath"
	"slices"
	"testing"

	"github.com/charmbracelet/log"

	perrors "github.com/complexdatacollective/pedigree/pkg/errors"
	"github.com/complexdatacollective/pedigree/pkg/pipeline"
)

func TestConfigPathXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/tmp/custom-config")

	path, err := configPath()
	if err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join("/tmp/custom-config", appName, "config.toml"); path != want {
		t.Errorf("configPath() = %q, want %q", path, want)
	}
}

func TestLoadConfigDefaultMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := loadConfig("")
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Layout.Align != nil || cfg.Server.Addr != "" {
		t.Errorf("expected empty config, got %+v", cfg)
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	writeFile(t, path, `
[layout]
align = false
width = 14
spouse_penalty = 4

[render]
formats = ["dot", "json"]
detailed = true

[cache]
dir = "/var/cache/pedigree"

[server]
addr = ":9090"
redis_addr = "redis:6379"
key_prefix = "staging:"
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig() error: %v", err)
	}
	if cfg.Cache.Dir != "/var/cache/pedigree" || cfg.Server.Addr != ":9090" || cfg.Server.RedisAddr != "redis:6379" {
		t.Errorf("config = %+v", cfg)
	}

	opts := pipeline.DefaultOptions()
	cfg.apply(&opts)
	if opts.Align || !opts.Packed {
		t.Errorf("align/packed = %v/%v", opts.Align, opts.Packed)
	}
	if opts.Width != 14 || opts.SpousePenalty != 4 || opts.ChildPenalty != pipeline.DefaultOptions().ChildPenalty {
		t.Errorf("numbers = %v %v %v", opts.Width, opts.ChildPenalty, opts.SpousePenalty)
	}
	if !slices.Equal(opts.Formats, []string{"dot", "json"}) || !opts.Detailed {
		t.Errorf("render = %v %v", opts.Formats, opts.Detailed)
	}
}

func TestLoadConfigErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := loadConfig(filepath.Join(dir, "missing.toml"))
	if !perrors.Is(err, perrors.ErrCodeFileNotFound) {
		t.Errorf("explicit missing file: %v", err)
	}

	unknown := filepath.Join(dir, "unknown.toml")
	writeFile(t, unknown, "[layout]\nheight = 3\n")
	_, err = loadConfig(unknown)
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("unknown key: %v", err)
	}

	broken := filepath.Join(dir, "broken.toml")
	writeFile(t, broken, "[layout\n")
	_, err = loadConfig(broken)
	if !perrors.Is(err, perrors.ErrCodeInvalidInput) {
		t.Errorf("broken file: %v", err)
	}
}

func TestConfigFileUsedByCommands(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "config", appName, "config.toml"), "[render]\nformats = [\"dot\"]\n")
	input := filepath.Join(dir, "trio.toml")
	writeFile(t, input, trioTOML)

	if err := runCLI(t, "render", input); err != nil {
		t.Fatalf("render: %v", err)
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "trio.*"))
	if !slices.Contains(matches, filepath.Join(dir, "trio.dot")) || slices.Contains(matches, filepath.Join(dir, "trio.svg")) {
		t.Errorf("outputs = %v, want only the configured dot", matches)
	}
}

func TestServerConfigFlagsOverride(t *testing.T) {
	c := New(io.Discard, log.InfoLevel)
	c.config = &Config{Server: ServerConfig{Addr: ":9090", RedisAddr: "redis:6379"}}

	cmd := c.serveCommand()
	if err := cmd.Flags().Parse([]string{"--addr", ":7070"}); err != nil {
		t.Fatal(err)
	}
	cfg := c.serverConfig(cmd, ServerConfig{Addr: ":7070"})
	if cfg.Addr != ":7070" {
		t.Errorf("Addr = %q, want the flag value", cfg.Addr)
	}
	if cfg.RedisAddr != "redis:6379" {
		t.Errorf("RedisAddr = %q, want the config value", cfg.RedisAddr)
	}
	if cfg.MaxBody == 0 {
		t.Error("MaxBody not defaulted")
	}
}
