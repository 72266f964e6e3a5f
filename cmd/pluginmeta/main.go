package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/jumppad-labs/pluginmeta/internal/cli"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	c := cli.NewContainer()

	if err := cli.Execute(ctx, c); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		cancel()
		os.Exit(1)
	}
}
