// Package main is the entry point for the xifront terminal front end.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"

	"github.com/dshills/xifront/internal/app"
	"github.com/dshills/xifront/internal/config"
	"github.com/dshills/xifront/internal/logging"
	"github.com/dshills/xifront/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type cliOptions struct {
	configPath string
	backend    string
	document   string
	logLevel   string
	logFile    string
	traffic    bool
}

func main() {
	os.Exit(run())
}

func run() int {
	cli := parseFlags()

	if !term.IsTerminal(int(os.Stdin.Fd())) || !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: xifront needs an interactive terminal")
		return 1
	}

	screen, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	application, err := app.New(app.Options{
		ConfigPath: cli.configPath,
		Override:   cli.apply,
		Backend:    screen,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := application.Run(ctx); err != nil && !errors.Is(err, app.ErrQuit) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// apply lays command line values over the loaded configuration. Only flags
// given explicitly take effect.
func (o *cliOptions) apply(cfg *config.Config) {
	if o.backend != "" {
		cfg.Backend.Command = o.backend
	}
	if o.document != "" {
		cfg.Document = o.document
	}
	if o.logLevel != "" {
		cfg.Logging.Level = o.logLevel
	}
	if o.logFile != "" {
		cfg.Logging.File = o.logFile
	}
	if o.traffic {
		cfg.Logging.Traffic = true
	}
}

func parseFlags() *cliOptions {
	var o cliOptions
	var showVersion bool

	flag.StringVar(&o.configPath, "config", "", "Path to configuration file (.toml, .yaml)")
	flag.StringVar(&o.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&o.backend, "backend", "", "Backend executable (default xi-core)")
	flag.StringVar(&o.document, "document", "", "Document to open (default example.json)")
	flag.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flag.StringVar(&o.logFile, "log-file", "", "Log file (default xifront.log)")
	flag.BoolVar(&o.traffic, "traffic", false, "Log every line exchanged with the backend")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "xifront - terminal front end for xi-core\n\n")
		fmt.Fprintf(os.Stderr, "Usage: xifront [options] [document]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nEnvironment variables prefixed %s override the config file.\n", config.EnvPrefix)
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("xifront %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if o.logLevel != "" && !logging.ValidLevel(o.logLevel) {
		fmt.Fprintf(os.Stderr, "Error: invalid log level %q (must be debug, info, warn, or error)\n", o.logLevel)
		os.Exit(2)
	}

	if flag.NArg() > 1 {
		flag.Usage()
		os.Exit(2)
	}
	if flag.NArg() == 1 && o.document == "" {
		o.document = flag.Arg(0)
	}

	return &o
}
