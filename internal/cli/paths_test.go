package cli

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCacheDir(t *testing.T) {
	xdg := t.TempDir()
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}

	tests := []struct {
		name string
		xdg  string
		want string
	}{
		{"xdg cache home", xdg, filepath.Join(xdg, appName)},
		{"home fallback", "", filepath.Join(home, ".cache", appName)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_CACHE_HOME", tt.xdg)
			got, err := cacheDir()
			if err != nil {
				t.Fatalf("cacheDir: %v", err)
			}
			if got != tt.want {
				t.Errorf("cacheDir() = %q, want %q", got, tt.want)
			}
		})
	}
}
