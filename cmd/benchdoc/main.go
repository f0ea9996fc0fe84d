package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/harrison/benchdoc/internal/cmd"
)

// Version is the current version of the benchdoc application
const Version = "1.0.0"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the CLI and returns the process exit status
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cmd.Version == "dev" {
		cmd.Version = Version
	}

	rootCmd := cmd.NewRootCommand()
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return cmd.ExitCode(err)
	}
	return 0
}
