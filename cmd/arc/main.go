// Command arc assembles archives from directory trees and lists
// the entries of archives it can read.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/charmbracelet/log"
)

// Version is set via -ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.NewWithOptions(os.Stderr, log.Options{Prefix: "arc"}).Error(err)
		stop()
		os.Exit(1)
	}
}
