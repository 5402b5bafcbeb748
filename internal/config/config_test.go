// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/pyflat/pyflat/internal/flaterr"
	"github.com/pyflat/pyflat/internal/issue"
	"github.com/pyflat/pyflat/pkg/types"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()

	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func load(t *testing.T, opts LoadOptions) (*Config, string, error) {
	t.Helper()

	if opts.ConfigDirPath == "" {
		opts.ConfigDirPath = t.TempDir()
	}
	if opts.BaseDir == "" {
		opts.BaseDir = t.TempDir()
	}
	return loadWithOptions(context.Background(), opts)
}

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if cfg.LineWidth != types.DefaultLineWidth {
		t.Errorf("LineWidth = %d, want %d", cfg.LineWidth, types.DefaultLineWidth)
	}
	if cfg.Shebang != types.DefaultShebang {
		t.Errorf("Shebang = %q, want %q", cfg.Shebang, types.DefaultShebang)
	}
	if cfg.IgnoreClashes || cfg.Guards.All {
		t.Error("expected clash checking on and guards off by default")
	}
	if cfg.UI.ColorScheme != ColorSchemeAuto {
		t.Errorf("ColorScheme = %s, want auto", cfg.UI.ColorScheme)
	}
	if cfg.Watch.Debounce != DefaultDebounce {
		t.Errorf("Debounce = %s, want %s", cfg.Watch.Debounce, DefaultDebounce)
	}
	if valid, errs := cfg.IsValid(); !valid {
		t.Errorf("DefaultConfig() is invalid: %v", errs)
	}
}

func TestConfigDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}

	t.Setenv("XDG_CONFIG_HOME", "/tmp/test-xdg-config")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if want := filepath.Join("/tmp/test-xdg-config", AppName); dir != want {
		t.Errorf("ConfigDir() = %q, want %q", dir, want)
	}
}

func TestConfigDirOverride(t *testing.T) {
	t.Cleanup(Reset)

	SetConfigDirOverride("/custom/dir")
	dir, err := ConfigDir()
	if err != nil {
		t.Fatalf("ConfigDir() returned error: %v", err)
	}
	if dir != "/custom/dir" {
		t.Errorf("ConfigDir() = %q, want /custom/dir", dir)
	}

	Reset()
	if configDirOverride != "" {
		t.Error("Reset() should clear the override")
	}
}

func TestLoad_ReturnsDefaultsWhenNoConfigFile(t *testing.T) {
	t.Parallel()

	cfg, path, err := load(t, LoadOptions{})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if path != "" {
		t.Errorf("resolved path = %q, want empty", path)
	}
	if diff := cmp.Diff(DefaultConfig(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MergesFileOverDefaults(t *testing.T) {
	t.Parallel()

	cfgDir := t.TempDir()
	want := writeConfig(t, cfgDir, `
line_width: 100
guards: from: ["cli", "tools.run"]
exclude: ["tests"]
ui: color_scheme: "dark"
watch: debounce: "2s"
`)

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if cfg.LineWidth != 100 {
		t.Errorf("LineWidth = %d, want 100", cfg.LineWidth)
	}
	if diff := cmp.Diff([]string{"cli", "tools.run"}, cfg.Guards.From); diff != "" {
		t.Errorf("Guards.From mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"tests"}, cfg.Exclude); diff != "" {
		t.Errorf("Exclude mismatch (-want +got):\n%s", diff)
	}
	if cfg.UI.ColorScheme != ColorSchemeDark {
		t.Errorf("ColorScheme = %s, want dark", cfg.UI.ColorScheme)
	}
	if cfg.Watch.Debounce != 2*time.Second {
		t.Errorf("Debounce = %s, want 2s", cfg.Watch.Debounce)
	}
	// untouched keys keep their defaults
	if cfg.Shebang != types.DefaultShebang {
		t.Errorf("Shebang = %q, want default", cfg.Shebang)
	}
	if !cfg.Watch.ClearScreen {
		t.Error("ClearScreen should keep its default")
	}
}

func TestLoad_FallsBackToBaseDir(t *testing.T) {
	t.Parallel()

	baseDir := t.TempDir()
	want := writeConfig(t, baseDir, `ignore_clashes: true`)

	cfg, path, err := load(t, LoadOptions{BaseDir: baseDir})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if path != want {
		t.Errorf("resolved path = %q, want %q", path, want)
	}
	if !cfg.IgnoreClashes {
		t.Error("IgnoreClashes should be read from the base dir config")
	}
}

func TestLoad_ConfigDirWinsOverBaseDir(t *testing.T) {
	t.Parallel()

	cfgDir, baseDir := t.TempDir(), t.TempDir()
	want := writeConfig(t, cfgDir, `line_width: 60`)
	writeConfig(t, baseDir, `line_width: 70`)

	cfg, path, err := load(t, LoadOptions{ConfigDirPath: cfgDir, BaseDir: baseDir})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if path != want || cfg.LineWidth != 60 {
		t.Errorf("got %q with line_width %d, want %q with 60", path, cfg.LineWidth, want)
	}
}

func TestLoad_CustomPath(t *testing.T) {
	t.Parallel()

	custom := filepath.Join(t.TempDir(), "custom.cue")
	if err := os.WriteFile(custom, []byte(`shebang: "#!/usr/bin/python3 -u"`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, path, err := load(t, LoadOptions{ConfigFilePath: custom})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if path != custom {
		t.Errorf("resolved path = %q, want %q", path, custom)
	}
	if cfg.Shebang != "#!/usr/bin/python3 -u" {
		t.Errorf("Shebang = %q", cfg.Shebang)
	}
}

func TestLoad_CustomPath_NotFound(t *testing.T) {
	t.Parallel()

	_, _, err := load(t, LoadOptions{ConfigFilePath: filepath.Join(t.TempDir(), "missing.cue")})
	if err == nil {
		t.Fatal("expected error for missing config file")
	}

	var ae *issue.ActionableError
	if !errors.As(err, &ae) {
		t.Fatalf("error should be *issue.ActionableError, got %T", err)
	}
	if ae.Operation != "load configuration" {
		t.Errorf("Operation = %q, want %q", ae.Operation, "load configuration")
	}
	if ae.Issue != issue.ConfigLoadFailedId {
		t.Errorf("Issue = %d, want %d", ae.Issue, issue.ConfigLoadFailedId)
	}
	if len(ae.Suggestions) == 0 {
		t.Error("expected suggestions")
	}
	if !errors.Is(err, flaterr.ErrConfiguration) {
		t.Errorf("error should be a ConfigurationError, got %v", err)
	}
}

func TestLoad_InvalidFile(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"syntax error", `line_width: {`, ""},
		{"non-positive line width", `line_width: 0`, "line_width"},
		{"unknown field", `container_engine: "docker"`, "container_engine"},
		{"bad dotted name", `exclude: ["not-a-module"]`, "exclude[0]"},
		{"bad color scheme", `ui: color_scheme: "neon"`, "ui.color_scheme"},
		{"bad debounce", `watch: debounce: "soon"`, "watch.debounce"},
		{"multi-line shebang", `shebang: "#!/bin/sh\nx"`, "shebang"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfgDir := t.TempDir()
			writeConfig(t, cfgDir, tt.content)

			_, _, err := load(t, LoadOptions{ConfigDirPath: cfgDir})
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, flaterr.ErrConfiguration) {
				t.Errorf("error should be a ConfigurationError, got %v", err)
			}
			if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q should mention %q", err, tt.want)
			}
		})
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("PYFLAT_LINE_WIDTH", "120")
	t.Setenv("PYFLAT_UI_VERBOSE", "true")

	cfg, _, err := load(t, LoadOptions{})
	if err != nil {
		t.Fatalf("load returned error: %v", err)
	}
	if cfg.LineWidth != 120 {
		t.Errorf("LineWidth = %d, want 120", cfg.LineWidth)
	}
	if !cfg.UI.Verbose {
		t.Error("Verbose should come from PYFLAT_UI_VERBOSE")
	}
}

func TestLoad_EnvOverrideIsValidated(t *testing.T) {
	t.Setenv("PYFLAT_LINE_WIDTH", "-3")

	_, _, err := load(t, LoadOptions{})
	if !errors.Is(err, flaterr.ErrInvalidConfiguration) {
		t.Fatalf("error = %v, want InvalidConfigurationError", err)
	}
	if !errors.Is(err, types.ErrInvalidLineWidth) {
		t.Errorf("error should wrap ErrInvalidLineWidth, got %v", err)
	}
}

func TestLoad_Canceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestGenerateCUE_RoundTrip(t *testing.T) {
	t.Parallel()

	want := DefaultConfig()
	want.LineWidth = 72
	want.IgnoreClashes = true
	want.Guards = GuardsConfig{All: true, From: []string{"cli"}}
	want.Exclude = []string{"tests", "docs.build"}
	want.Include = []string{"tests.fixtures"}
	want.StdlibExtra = []string{"typing_extensions"}
	want.Output = "dist/app.py"
	want.UI = UIConfig{Verbose: true, ColorScheme: ColorSchemeLight}
	want.Watch = WatchConfig{Debounce: 1500 * time.Millisecond, Ignore: []string{"**/*_test.py"}}

	cfgDir := t.TempDir()
	writeConfig(t, cfgDir, GenerateCUE(want))

	got, _, err := load(t, LoadOptions{ConfigDirPath: cfgDir})
	if err != nil {
		t.Fatalf("generated CUE does not load: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateDefaultConfig(t *testing.T) {
	t.Cleanup(Reset)
	dir := filepath.Join(t.TempDir(), "nested")
	SetConfigDirOverride(dir)

	path, err := CreateDefaultConfig()
	if err != nil {
		t.Fatalf("CreateDefaultConfig() returned error: %v", err)
	}
	if want := filepath.Join(dir, "config.cue"); path != want {
		t.Errorf("path = %q, want %q", path, want)
	}

	if err := os.WriteFile(path, []byte("line_width: 99\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateDefaultConfig(); err != nil {
		t.Fatalf("second CreateDefaultConfig() returned error: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "line_width: 99\n" {
		t.Error("CreateDefaultConfig() should not overwrite an existing file")
	}

	if err := Save(DefaultConfig()); err != nil {
		t.Fatalf("Save() returned error: %v", err)
	}
	cfg, err := NewProvider().Load(context.Background(), LoadOptions{BaseDir: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}
	if cfg.LineWidth != types.DefaultLineWidth {
		t.Errorf("Save() should replace the file, got line_width %d", cfg.LineWidth)
	}
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0s"},
		{500 * time.Millisecond, "500ms"},
		{90 * time.Second, "90s"},
		{1500 * time.Microsecond, "1500000ns"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%s) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   []string
		want string
	}{
		{nil, ""},
		{[]string{"line_width"}, "line_width"},
		{[]string{"guards", "from", "0"}, "guards.from[0]"},
		{[]string{"watch", "ignore", "12"}, "watch.ignore[12]"},
	}
	for _, tt := range tests {
		if got := formatPath(tt.in); got != tt.want {
			t.Errorf("formatPath(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCheckFileSize(t *testing.T) {
	t.Parallel()

	if err := checkFileSize(make([]byte, maxFileSize), "config.cue"); err != nil {
		t.Errorf("data at exact limit should pass, got %v", err)
	}
	err := checkFileSize(make([]byte, maxFileSize+1), "config.cue")
	if err == nil || !strings.Contains(err.Error(), "config.cue") {
		t.Errorf("oversized data error = %v, want one naming the file", err)
	}
}
