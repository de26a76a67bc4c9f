package driver

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestLoadConfigLocalProgram(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
name: factorial
program: build/fact.yml
limits:
  max_steps: 5000
  max_call_depth: 64
log_level: debug
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Name != "factorial" {
		t.Fatalf("name = %q", cfg.Name)
	}
	if want := filepath.Join(dir, "build", "fact.yml"); cfg.Program != want {
		t.Fatalf("program = %q, want %q", cfg.Program, want)
	}
	if cfg.MaxSteps != 5000 || cfg.MaxCallDepth != 64 {
		t.Fatalf("limits = %d/%d", cfg.MaxSteps, cfg.MaxCallDepth)
	}
	level, err := cfg.Level()
	if err != nil || level != zerolog.DebugLevel {
		t.Fatalf("level = %v (%v), want debug", level, err)
	}
}

func TestLoadConfigGitSource(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
source:
  git: https://example.com/programs.git
  tag: v1.2.0
  path: images/doubler.yml
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Source == nil || cfg.Source.Git != "https://example.com/programs.git" {
		t.Fatalf("source = %+v", cfg.Source)
	}
	if got := cfg.Source.Revision(); got != "v1.2.0" {
		t.Fatalf("revision = %q, want v1.2.0", got)
	}
	level, err := cfg.Level()
	if err != nil || level != zerolog.WarnLevel {
		t.Fatalf("default level = %v (%v), want warn", level, err)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFileName)
	writeFile(t, path, `
program: a.yml
source:
  rev: abc
  branch: main
  path: ../escape.yml
limits:
  max_steps: -1
  max_call_depth: -2
log_level: loud
`)
	_, err := LoadConfig(path)
	if err == nil {
		t.Fatalf("expected validation error")
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %T (%v)", err, err)
	}
	wants := []string{
		"mutually exclusive",
		"source.git must be provided",
		"must stay inside the repository",
		"only one of rev, tag or branch",
		"max_steps must not be negative",
		"max_call_depth must not be negative",
		"not a known level",
	}
	if len(verr.Issues) != len(wants) {
		t.Fatalf("issues = %v, want %d", verr.Issues, len(wants))
	}
	for _, want := range wants {
		if !strings.Contains(err.Error(), want) {
			t.Fatalf("error %q missing %q", err.Error(), want)
		}
	}
}

func TestLoadConfigRequiresProgramOrSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, "name: nothing\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "one of program or source") {
		t.Fatalf("expected missing program error, got %v", err)
	}
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), ConfigFileName)
	writeFile(t, path, "program: a.yml\nentrypoint: main\n")
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "entrypoint") {
		t.Fatalf("expected unknown field error, got %v", err)
	}
}

func TestFindConfigWalksUp(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, ConfigFileName)
	writeFile(t, path, "program: a.yml\n")
	nested := filepath.Join(root, "src", "deep")
	writeFile(t, filepath.Join(nested, "placeholder.txt"), "")

	got, err := FindConfig(nested)
	if err != nil {
		t.Fatalf("FindConfig returned error: %v", err)
	}
	if got != path {
		t.Fatalf("FindConfig = %q, want %q", got, path)
	}
}

func TestFindConfigMissing(t *testing.T) {
	_, err := FindConfig(t.TempDir())
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
}
