package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/matzehuels/nestree/internal/cli"
	nterrors "github.com/matzehuels/nestree/pkg/errors"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	os.Exit(run(ctx))
}

func run(ctx context.Context) int {
	c := cli.New(os.Stderr, cli.LogInfo)
	err := c.RootCommand().ExecuteContext(ctx)
	switch {
	case err == nil:
		return 0
	case errors.Is(err, context.Canceled):
		return 130 // Standard shell convention for SIGINT
	}
	fmt.Fprintln(os.Stderr, "Error:", nterrors.UserMessage(err))
	if code := nterrors.GetCode(err); nterrors.IsInvalid(code) {
		return 2
	}
	return 1
}
