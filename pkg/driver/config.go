package driver

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// ConfigFileName is the run configuration looked up by FindConfig.
const ConfigFileName = "quadvm.yml"

// ErrConfigNotFound is returned when no quadvm.yml exists between the start
// directory and the filesystem root.
var ErrConfigNotFound = errors.New("config: quadvm.yml not found")

// Config describes how to obtain and run a program image.
type Config struct {
	Path         string
	Name         string
	Program      string
	Source       *SourceSpec
	MaxSteps     int
	MaxCallDepth int
	LogLevel     string
}

// SourceSpec points at an image stored in a git repository.
type SourceSpec struct {
	Git    string
	Rev    string
	Tag    string
	Branch string
	Path   string
}

// Revision reports which of rev, tag and branch is pinned.
func (s *SourceSpec) Revision() string {
	if s == nil {
		return ""
	}
	switch {
	case s.Rev != "":
		return s.Rev
	case s.Tag != "":
		return s.Tag
	default:
		return s.Branch
	}
}

// Level parses LogLevel, defaulting to warn.
func (c *Config) Level() (zerolog.Level, error) {
	if c == nil || strings.TrimSpace(c.LogLevel) == "" {
		return zerolog.WarnLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(c.LogLevel)))
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("config: log_level %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// ValidationError aggregates issues discovered while validating a document.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "validation failed"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return "validation failed:\n - " + strings.Join(e.Issues, "\n - ")
}

type configFile struct {
	Name     string      `yaml:"name"`
	Program  string      `yaml:"program"`
	Source   *sourceDisk `yaml:"source"`
	Limits   limitsDisk  `yaml:"limits"`
	LogLevel string      `yaml:"log_level"`
}

type sourceDisk struct {
	Git    string `yaml:"git"`
	Rev    string `yaml:"rev"`
	Tag    string `yaml:"tag"`
	Branch string `yaml:"branch"`
	Path   string `yaml:"path"`
}

type limitsDisk struct {
	MaxSteps     int `yaml:"max_steps"`
	MaxCallDepth int `yaml:"max_call_depth"`
}

// LoadConfig parses and validates a quadvm.yml file. A relative program path
// is resolved against the directory holding the file.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config: empty path")
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("config: resolve %s: %w", path, err)
	}
	file, err := os.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("config: open %s: %w", abs, err)
	}
	defer file.Close()

	decoder := yaml.NewDecoder(file)
	decoder.KnownFields(true)

	var raw configFile
	if err := decoder.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("config: %s is empty", abs)
		}
		return nil, fmt.Errorf("config: parse %s: %w", abs, err)
	}
	cfg := raw.toConfig(filepath.Dir(abs))
	cfg.Path = abs
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", abs, err)
	}
	return cfg, nil
}

func (raw configFile) toConfig(dir string) *Config {
	cfg := &Config{
		Name:         strings.TrimSpace(raw.Name),
		Program:      strings.TrimSpace(raw.Program),
		MaxSteps:     raw.Limits.MaxSteps,
		MaxCallDepth: raw.Limits.MaxCallDepth,
		LogLevel:     strings.TrimSpace(raw.LogLevel),
	}
	if cfg.Program != "" && !filepath.IsAbs(cfg.Program) {
		cfg.Program = filepath.Join(dir, cfg.Program)
	}
	if raw.Source != nil {
		cfg.Source = &SourceSpec{
			Git:    strings.TrimSpace(raw.Source.Git),
			Rev:    strings.TrimSpace(raw.Source.Rev),
			Tag:    strings.TrimSpace(raw.Source.Tag),
			Branch: strings.TrimSpace(raw.Source.Branch),
			Path:   strings.TrimSpace(raw.Source.Path),
		}
	}
	return cfg
}

// Validate performs semantic checks on a parsed config.
func (c *Config) Validate() error {
	if c == nil {
		return fmt.Errorf("config: nil config")
	}
	var issues []string
	switch {
	case c.Program == "" && c.Source == nil:
		issues = append(issues, "one of program or source must be set")
	case c.Program != "" && c.Source != nil:
		issues = append(issues, "program and source are mutually exclusive")
	}
	if src := c.Source; src != nil {
		if src.Git == "" {
			issues = append(issues, "source.git must be provided")
		}
		if src.Path == "" {
			issues = append(issues, "source.path must be provided")
		} else if filepath.IsAbs(src.Path) || strings.HasPrefix(filepath.Clean(src.Path), "..") {
			issues = append(issues, fmt.Sprintf("source.path %q must stay inside the repository", src.Path))
		}
		pinned := 0
		for _, v := range []string{src.Rev, src.Tag, src.Branch} {
			if v != "" {
				pinned++
			}
		}
		if pinned > 1 {
			issues = append(issues, "source may pin only one of rev, tag or branch")
		}
	}
	if c.MaxSteps < 0 {
		issues = append(issues, "limits.max_steps must not be negative")
	}
	if c.MaxCallDepth < 0 {
		issues = append(issues, "limits.max_call_depth must not be negative")
	}
	if _, err := c.Level(); err != nil {
		issues = append(issues, fmt.Sprintf("log_level %q is not a known level", c.LogLevel))
	}
	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

// FindConfig walks up from start looking for quadvm.yml.
func FindConfig(start string) (string, error) {
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("config: resolve %s: %w", start, err)
	}
	for {
		candidate := filepath.Join(dir, ConfigFileName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}
		dir = parent
	}
}
