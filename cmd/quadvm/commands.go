package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/fedehuguet/compiler/pkg/driver"
	"github.com/fedehuguet/compiler/pkg/quad"
	"github.com/fedehuguet/compiler/pkg/runtime"
	"github.com/fedehuguet/compiler/pkg/vm"
)

// loadedTarget is an image ready to run plus the config that named it, if any.
type loadedTarget struct {
	image   *driver.Image
	program quad.Program
	config  *driver.Config
	logger  zerolog.Logger
}

func runProgram(args []string, opts cliOptions) int {
	target, err := loadTarget(args, opts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quadvm run: %v\n", err)
		return 1
	}
	if err := quad.Validate(target.program); err != nil {
		fmt.Fprintf(os.Stderr, "quadvm run: %s: %v\n", target.image.Path, err)
		return 1
	}

	engineOpts := vm.Options{Output: os.Stdout, Logger: target.logger}
	if cfg := target.config; cfg != nil {
		engineOpts.MaxSteps = cfg.MaxSteps
		engineOpts.MaxCallDepth = cfg.MaxCallDepth
	}
	if opts.limitsSet["--max-steps"] {
		engineOpts.MaxSteps = opts.maxSteps
	}
	if opts.limitsSet["--max-call-depth"] {
		engineOpts.MaxCallDepth = opts.maxCallDepth
	}

	engine, err := vm.New(target.program, target.image.Constants, engineOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "quadvm run: %v\n", err)
		return 1
	}
	target.logger.Debug().
		Str("image", target.image.Path).
		Int("quadruples", len(target.program)).
		Int("constants", target.image.Constants.Len()).
		Msg("starting")
	if err := engine.Run(); err != nil {
		fmt.Fprintln(os.Stderr, vm.DescribeError(err))
		return 1
	}
	target.logger.Debug().Int("steps", engine.Steps()).Msg("halted")
	return 0
}

func runCheck(args []string) int {
	target, err := loadTarget(args, cliOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "quadvm check: %v\n", err)
		return 1
	}
	if err := quad.Validate(target.program); err != nil {
		fmt.Fprintf(os.Stderr, "quadvm check: %s: %v\n", target.image.Path, err)
		return 1
	}
	fmt.Fprintf(os.Stdout, "%s: ok (%d quadruples, %d constants)\n", target.image.Path, len(target.program), target.image.Constants.Len())
	return 0
}

func runDump(args []string) int {
	target, err := loadTarget(args, cliOptions{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "quadvm dump: %v\n", err)
		return 1
	}
	if target.image.Name != "" {
		fmt.Fprintf(os.Stdout, "# %s\n", target.image.Name)
	}
	fmt.Fprintln(os.Stdout, "constants:")
	for _, addr := range target.image.Constants.Addresses() {
		val, kind, err := target.image.Constants.Get(addr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "quadvm dump: %v\n", err)
			return 1
		}
		fmt.Fprintf(os.Stdout, "  %5d %-6s %s\n", addr, kind, runtime.Format(val))
	}
	fmt.Fprintln(os.Stdout, "quadruples:")
	for idx, instr := range target.program {
		fmt.Fprintf(os.Stdout, "  %4d  %s\n", idx, quad.Format(instr))
	}
	return 0
}

func loadTarget(args []string, opts cliOptions) (*loadedTarget, error) {
	if len(args) > 1 {
		return nil, fmt.Errorf("expected at most one target, got %d", len(args))
	}
	var arg string
	if len(args) == 1 {
		arg = args[0]
	}

	imagePath, configPath, err := classifyTarget(arg)
	if err != nil {
		return nil, err
	}

	target := &loadedTarget{}
	configLevel := zerolog.WarnLevel
	if configPath != "" {
		cfg, err := driver.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		target.config = cfg
		if level, err := cfg.Level(); err == nil {
			configLevel = level
		}
	}
	target.logger = newLogger(opts, configLevel)

	if cfg := target.config; cfg != nil {
		imagePath = cfg.Program
		if cfg.Source != nil {
			home, err := resolveQuadvmHome()
			if err != nil {
				return nil, err
			}
			fetched, commit, err := newSourceFetcher(home).Fetch(cfg.Name, cfg.Source)
			if err != nil {
				return nil, err
			}
			target.logger.Info().Str("git", cfg.Source.Git).Str("commit", commit).Msg("fetched program source")
			imagePath = fetched
		}
	}

	img, err := driver.LoadImage(imagePath)
	if err != nil {
		return nil, err
	}
	program, err := img.Program()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", img.Path, err)
	}
	target.image = img
	target.program = program
	return target, nil
}

// classifyTarget decides whether arg names an image or a run configuration.
// With no argument the nearest quadvm.yml above the working directory is used.
func classifyTarget(arg string) (imagePath, configPath string, err error) {
	if arg == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", "", fmt.Errorf("resolve working directory: %w", err)
		}
		path, err := driver.FindConfig(wd)
		if err != nil {
			if errors.Is(err, driver.ErrConfigNotFound) {
				return "", "", fmt.Errorf("no target given and no %s found", driver.ConfigFileName)
			}
			return "", "", err
		}
		return "", path, nil
	}
	info, err := os.Stat(arg)
	if err != nil {
		return "", "", fmt.Errorf("target %s: %w", arg, err)
	}
	if info.IsDir() {
		return "", filepath.Join(arg, driver.ConfigFileName), nil
	}
	if filepath.Base(arg) == driver.ConfigFileName {
		return "", arg, nil
	}
	return arg, "", nil
}
