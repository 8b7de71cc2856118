package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jboley/buck/internal/daemoncli"
)

// main is a deterministic boundary: it canonicalizes all CLI inputs into a
// CLIInvocation before any cell-state logic is invoked.
func main() {
	inv, err := daemoncli.ParseInvocation(os.Args[1:])
	if err != nil {
		var invErr *daemoncli.InvocationError
		if errors.As(err, &invErr) {
			fmt.Fprintln(os.Stderr, invErr.Message)
			os.Exit(invErr.ExitCode)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(daemoncli.ExitExecutionError)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	result, execErr := daemoncli.Execute(ctx, inv)
	if execErr != nil {
		fmt.Fprintln(os.Stderr, execErr)
	}
	if result.LoadErrors != nil {
		fmt.Fprintln(os.Stderr, result.LoadErrors)
	}
	if inv.Command == daemoncli.CommandInvalidate {
		fmt.Fprintln(os.Stdout, result.InvalidatedCount)
	}
	os.Exit(result.ExitCode)
}
