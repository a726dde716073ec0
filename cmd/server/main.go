// Package main runs the kioku review API: it loads configuration, opens the
// database, applies migrations, seeds the curriculum and serves HTTP until it
// receives SIGINT or SIGTERM.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
)

func main() {
	flags := pflag.NewFlagSet("kioku-server", pflag.ExitOnError)
	configPath := flags.String("config", "", "path to a YAML config file (default ./config.yaml if present)")
	migrate := flags.String("migrate", "", "run a migration command (up, down, status) and exit")
	_ = flags.Parse(os.Args[1:])

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, *configPath, *migrate); err != nil {
		fmt.Fprintf(os.Stderr, "kioku-server: %v\n", err)
		os.Exit(1)
	}
}
