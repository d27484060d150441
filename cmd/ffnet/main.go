// Package main provides the ffnet command line tool.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/born-ml/ffnet/internal/nn"
)

const version = "v0.1.0"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

type command struct {
	name  string
	usage string
	run   func(args []string, stdout, stderr io.Writer) error
}

var commands = []command{
	{"version", "Show version", runVersion},
	{"xor", "Train the XOR example network", runXOR},
	{"train", "Train a network described by a YAML config", runTrain},
	{"eval", "Evaluate a saved network on a dataset", runEval},
	{"render", "Render CSV rows as grayscale PNG images", runRender},
}

func run(args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stdout)
		return 0
	}
	for _, c := range commands {
		if c.name != args[0] {
			continue
		}
		if err := c.run(args[1:], stdout, stderr); err != nil {
			fmt.Fprintf(stderr, "ffnet %s: %v\n", c.name, err)
			return 1
		}
		return 0
	}

	fmt.Fprintf(stderr, "ffnet: unknown command %q\n\n", args[0])
	usage(stderr)
	return 2
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "ffnet - feed-forward network training engine")
	fmt.Fprintf(w, "Version: %s\n\n", version)
	fmt.Fprintln(w, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(w, "  %-10s %s\n", c.name, c.usage)
	}
}

func runVersion(_ []string, stdout, _ io.Writer) error {
	fmt.Fprintf(stdout, "ffnet %s\n", version)
	return nil
}

// newLogger returns a text logger on w and installs it for the engine.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	nn.SetLogger(logger)
	return logger
}
