package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	bperrors "github.com/matzehuels/bigpicture/pkg/errors"
	"github.com/matzehuels/bigpicture/pkg/pipeline"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), FileName)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := pipeline.DefaultOptions()
	if diff := cmp.Diff(want, opts, cmp.AllowUnexported(pipeline.Options{})); diff != "" {
		t.Errorf("default options mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
[source]
scope = "local"

[filter]
tags = false
merges = true
include = ["v1.0"]

[render]
format = "svg"
show_ids = true
digits = 9

[cache]
backend = "redis"
url = "redis://localhost:6379/1"
ttl = "2h"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q", cfg.Path)
	}

	opts, err := cfg.Options()
	if err != nil {
		t.Fatalf("Options: %v", err)
	}
	want := pipeline.Options{
		Scope:    "local",
		Branches: true,
		Merges:   true,
		Include:  []string{"v1.0"},
		Format:   "svg",
		ShowIDs:  true,
		Digits:   9,
	}
	if diff := cmp.Diff(want, opts, cmp.AllowUnexported(pipeline.Options{})); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}

	ttl, err := cfg.CacheTTL()
	if err != nil || ttl != 2*time.Hour {
		t.Errorf("CacheTTL = %v, %v", ttl, err)
	}
}

func TestLoad_DigitsString(t *testing.T) {
	cfg, err := Load(writeConfig(t, "[render]\ndigits = \"auto\"\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if d, _ := cfg.Render.Digits.Value(); d != pipeline.DigitsAuto {
		t.Errorf("digits = %d, want auto", d)
	}
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[filter\n"},
		{"unknown key", "[filter]\ncolour = true\n"},
		{"bad scope", "[source]\nscope = \"tracking\"\n"},
		{"bad format", "[render]\nformat = \"gif\"\n"},
		{"bad digits", "[render]\ndigits = 3\n"},
		{"bad digits type", "[render]\ndigits = true\n"},
		{"bad backend", "[cache]\nbackend = \"memcached\"\n"},
		{"bad redis url", "[cache]\nbackend = \"redis\"\nurl = \"http://x\"\n"},
		{"bad ttl", "[cache]\nttl = \"soon\"\n"},
		{"bad include", "[filter]\ninclude = [\"a..b\"]\n"},
		{"bad timeout", "[serve]\ntimeout = \"-1s\"\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			if !bperrors.Is(err, bperrors.ErrCodeInvalidConfig) {
				t.Errorf("Load error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !bperrors.Is(err, bperrors.ErrCodeFileNotFound) {
		t.Errorf("Load error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestFind(t *testing.T) {
	dir := t.TempDir()
	if got := Find(dir); got != "" {
		t.Errorf("Find(empty dir) = %q", got)
	}
	path := filepath.Join(dir, FileName)
	if err := os.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}
	if got := Find(dir); got != path {
		t.Errorf("Find = %q, want %q", got, path)
	}
}
