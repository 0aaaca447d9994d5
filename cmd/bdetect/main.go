package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"bdetect/internal/reconcile"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if errors.Is(err, reconcile.ErrCleanExit) {
			fmt.Fprintln(os.Stdout, "Nothing to process.")
			return
		}
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
