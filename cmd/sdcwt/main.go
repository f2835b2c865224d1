// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/cli"
	"github.com/bureau-foundation/sdcwt/cmd/sdcwt/token"
	"github.com/bureau-foundation/sdcwt/lib/config"
	"github.com/bureau-foundation/sdcwt/lib/version"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		// validate and digest --check have already printed their verdict.
		var exitErr *cli.ExitError
		if !errors.As(err, &exitErr) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(cli.ExitCodeOf(err))
	}
}

func run(args []string) error {
	var (
		configPath string
		verbose    bool
	)
	global := pflag.NewFlagSet("sdcwt", pflag.ContinueOnError)
	global.SetInterspersed(false)
	global.SetOutput(io.Discard)
	global.StringVar(&configPath, "config", "", "configuration file (default $SDCWT_CONFIG, else built-in defaults)")
	global.BoolVarP(&verbose, "verbose", "v", false, "log at debug level")
	if err := global.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			args = []string{"--help"}
		} else {
			return cli.Validation("%v\n\nRun 'sdcwt --help' for usage.", err)
		}
	} else {
		args = global.Args()
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logger := cli.NewCommandLogger(verbose)
	logger.Debug("configuration loaded",
		"environment", cfg.Environment,
		"keys", cfg.Paths.Keys,
		"sd_alg", cfg.Issuer.SdAlg,
	)
	return rootCommand(cfg).Execute(context.Background(), args, logger)
}

// loadConfig resolves the configuration: the --config file, else the
// file named by SDCWT_CONFIG, else the built-in defaults.
func loadConfig(path string) (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case path != "":
		cfg, err = config.LoadFile(path)
	case os.Getenv("SDCWT_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, cli.Validation("load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, cli.Validation("invalid configuration: %w", err)
	}
	return cfg, nil
}

func rootCommand(cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name: "sdcwt",
		Description: `sdcwt reads, writes, and checks SD-CWT tokens (selective disclosure
CBOR Web Tokens) without disturbing their exact bytes.

Global flags (before the command):
  --config path   configuration file (default $SDCWT_CONFIG)
  -v, --verbose   log at debug level`,
		Subcommands: append(token.Commands(cfg), versionCommand()),
	}
}

func versionCommand() *cli.Command {
	var full bool

	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			flagSet.BoolVar(&full, "full", false, "also print the SHA-256 of the running binary")
			return flagSet
		},
		Run: func(_ context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return cli.Validation("version takes no arguments, got %q", args[0])
			}
			fmt.Printf("sdcwt %s\n", version.Full())
			if !full {
				return nil
			}
			hash, binaryPath, err := version.ComputeSelfHash()
			if err != nil {
				return cli.Internal("hash binary: %w", err)
			}
			logger.Debug("hashed binary", "path", binaryPath)
			fmt.Printf("binary sha256 %s\n", hash)
			return nil
		},
	}
}
