// Command napytau estimates nuclear lifetimes from recoil-distance
// Doppler-shift measurements.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/roach88/napytau/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCommand()
	err := cmd.ExecuteContext(ctx)
	cli.PrintError(os.Stderr, err)
	stop()
	os.Exit(cli.GetExitCode(err))
}
