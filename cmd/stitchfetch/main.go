package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"stitchfetch/internal/fetcher"
)

// Exit statuses. A batch that ran to the end but left screens failed or
// skipped is distinguished from a command that could not run at all.
const (
	exitOK      = 0
	exitError   = 1
	exitPartial = 2
)

func main() {
	err := newRootCommand().Execute()
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, fetcher.ErrPartialFailure):
		return exitPartial
	default:
		return exitError
	}
}
