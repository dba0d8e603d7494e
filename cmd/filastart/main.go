package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/naoray/filastart/internal/cli"
	"github.com/naoray/filastart/internal/config"
)

// Set at build time via -ldflags
var Version = "dev"

func main() {
	cli.Version = Version

	// Interrupts stop the installer at once; completed steps are left as they are.
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-signals
		os.Exit(config.ExitInterrupted)
	}()

	os.Exit(cli.Execute(context.Background(), os.Args[1:]))
}
