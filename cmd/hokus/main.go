// hokus edits site workspace configurations described by form schemas.
//
// Two subcommands:
//
//	hokus edit   prompts for every field in the terminal and saves the result
//	hokus serve  hosts the HTML form of every workspace over HTTP
//
// Schemas come from a directory of YAML/JSON form documents (--schema), the
// embedded defaults, or a component of an OpenAPI document (--openapi with
// --component). Workspace configurations live under --root as
// <site>/<workspace>.yaml.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 {
		printUsage()
		return errors.New("missing subcommand")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch args[0] {
	case "edit":
		return runEdit(ctx, args[1:])
	case "serve":
		return runServe(ctx, args[1:])
	case "-h", "--help", "help":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown subcommand %q", args[0])
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `usage: hokus <command> [flags]

commands:
  edit    edit a workspace configuration in the terminal
  serve   serve workspace configuration forms over HTTP

run "hokus <command> --help" for the flags of a command`)
}

func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", level, err)
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})), nil
}
