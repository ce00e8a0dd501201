package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/intellisat/internal/app"
)

// Environment variables that provide flag defaults.
const (
	EnvLogLevel        = "INTELLISAT_LOG_LEVEL"
	EnvLogFormat       = "INTELLISAT_LOG_FORMAT"
	EnvHealthcheckPort = "INTELLISAT_HEALTHCHECK_PORT"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
// Flags override the INTELLISAT_* environment, which overrides the defaults.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	return parse(args, output, os.LookupEnv)
}

func parse(args []string, output io.Writer, lookupEnv func(string) (string, bool)) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("intellisat", flag.ContinueOnError)
	flagSet.SetOutput(output)

	// Custom usage/help text function
	flagSet.Usage = func() {
		fmt.Fprint(output, `
IntelliSat - flight computer kernel for a small satellite, run as a simulation.

Usage:
  intellisat [options] [CONFIG_PATH]

Arguments:
  CONFIG_PATH
    Path to a single .hcl file or a directory containing .hcl files.
    Without one the built-in defaults are used.

Options:
`)
		flagSet.PrintDefaults()
	}

	envString := func(key, def string) string {
		if v, ok := lookupEnv(key); ok && v != "" {
			return v
		}
		return def
	}
	defaultPort := 0
	if v, ok := lookupEnv(EnvHealthcheckPort); ok && v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, false, &ExitError{Code: 2, Message: fmt.Sprintf("invalid %s: %q", EnvHealthcheckPort, v)}
		}
		defaultPort = port
	}

	configFlag := flagSet.String("config", "", "Path to the kernel configuration file or directory.")
	cFlag := flagSet.String("c", "", "Path to the kernel configuration file or directory (shorthand).")
	ticksFlag := flagSet.Uint64("ticks", 0, "Stop after this many timer ticks. 0 runs until interrupted.")
	skipStartupFlag := flagSet.Bool("skip-startup", false, "Treat the post-deployment wait as already served.")
	seedFlag := flagSet.Uint64("seed", 0, "Seed for the simulated duties. 0 keeps the configured seed.")
	tickIntervalFlag := flagSet.Duration("tick-interval", 0, "Timer period, e.g. 10ms. 0 keeps the configured interval.")
	bootStateFlag := flagSet.String("boot-state", "", "Keep the boot record in this HCL file.")
	healthPortFlag := flagSet.Int("healthcheck-port", defaultPort, "Port for the HTTP health and status server. 0 is disabled.")
	logFormatFlag := flagSet.String("log-format", envString(EnvLogFormat, "text"), "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", envString(EnvLogLevel, "info"), "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	var paths []string
	switch {
	case *configFlag != "":
		paths = append(paths, *configFlag)
	case *cFlag != "":
		paths = append(paths, *cFlag)
	}
	paths = append(paths, flagSet.Args()...)
	slog.Debug("Config paths determined.", "paths", paths)

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		ConfigPaths:     paths,
		LogFormat:       logFormat,
		LogLevel:        logLevel,
		HealthcheckPort: *healthPortFlag,
		Ticks:           *ticksFlag,
		Seed:            *seedFlag,
		SkipStartup:     *skipStartupFlag,
		BootStatePath:   *bootStateFlag,
		TickInterval:    *tickIntervalFlag,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "config", config)
	return config, false, nil
}
