package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name  string
		env   map[string]string
		cache string
		cfg   string
	}{
		{
			name:  "home fallback",
			env:   map[string]string{"XDG_CACHE_HOME": "", "XDG_CONFIG_HOME": ""},
			cache: filepath.Join(home, ".cache", appName),
			cfg:   filepath.Join(home, ".config", appName, "config.toml"),
		},
		{
			name:  "xdg",
			env:   map[string]string{"XDG_CACHE_HOME": "/tmp/xc", "XDG_CONFIG_HOME": "/tmp/xg"},
			cache: filepath.Join("/tmp/xc", appName),
			cfg:   filepath.Join("/tmp/xg", appName, "config.toml"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if got, err := cacheDir(); err != nil || got != tt.cache {
				t.Errorf("cacheDir() = %q, %v; want %q", got, err, tt.cache)
			}
			if got, err := configPath(); err != nil || got != tt.cfg {
				t.Errorf("configPath() = %q, %v; want %q", got, err, tt.cfg)
			}
		})
	}
}
