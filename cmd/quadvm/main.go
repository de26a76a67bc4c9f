package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
)

const cliToolVersion = "quadvm 0.1.0-dev"

type cliOptions struct {
	trace        bool
	logLevel     string
	maxSteps     int
	maxCallDepth int
	limitsSet    map[string]bool
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		printUsage()
		return 1
	}

	opts, remaining, err := parseOptions(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if len(remaining) == 0 {
		printUsage()
		return 1
	}

	switch remaining[0] {
	case "--help", "-h", "help":
		printUsage()
		return 0
	case "--version", "-V", "version":
		fmt.Fprintln(os.Stdout, cliToolVersion)
		return 0
	case "run":
		return runProgram(remaining[1:], opts)
	case "check":
		return runCheck(remaining[1:])
	case "dump":
		return runDump(remaining[1:])
	default:
		return runProgram(remaining, opts)
	}
}

// parseOptions pulls the global flags out of args, wherever they appear.
func parseOptions(args []string) (cliOptions, []string, error) {
	opts := cliOptions{limitsSet: make(map[string]bool)}
	remaining := make([]string, 0, len(args))
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		switch name {
		case "--trace":
			opts.trace = true
		case "--log-level":
			if !hasValue || value == "" {
				return opts, nil, fmt.Errorf("--log-level requires a value (e.g. --log-level=debug)")
			}
			if _, err := zerolog.ParseLevel(value); err != nil {
				return opts, nil, fmt.Errorf("--log-level: unknown level %q", value)
			}
			opts.logLevel = value
		case "--max-steps", "--max-call-depth":
			if !hasValue {
				return opts, nil, fmt.Errorf("%s requires a value", name)
			}
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return opts, nil, fmt.Errorf("%s: expected a non-negative integer, got %q", name, value)
			}
			if name == "--max-steps" {
				opts.maxSteps = n
			} else {
				opts.maxCallDepth = n
			}
			opts.limitsSet[name] = true
		default:
			remaining = append(remaining, arg)
		}
	}
	return opts, remaining, nil
}

// newLogger writes human-readable log lines to stderr. --trace wins over
// --log-level, which wins over the config file.
func newLogger(opts cliOptions, configLevel zerolog.Level) zerolog.Logger {
	level := configLevel
	if opts.logLevel != "" {
		if parsed, err := zerolog.ParseLevel(opts.logLevel); err == nil {
			level = parsed
		}
	}
	if opts.trace {
		level = zerolog.TraceLevel
	}
	writer := zerolog.ConsoleWriter{Out: os.Stderr, NoColor: true}
	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}
