// Main file for the fetchview command.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/HRemonen/fetchview/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cli.NewRootCmd(os.Stdout).ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
