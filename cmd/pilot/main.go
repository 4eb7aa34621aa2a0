package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/Skotchmaster/command_pilot/internal/cli"
	"github.com/Skotchmaster/command_pilot/pkg/client"
	"github.com/Skotchmaster/command_pilot/pkg/logging"
)

func main() {
	cfg, err := cli.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.NewWithWriter(os.Stderr, cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		// After the first signal the default handler applies again, so a
		// second Ctrl+C ends a blocked password prompt.
		<-ctx.Done()
		stop()
	}()
	ctx = logging.IntoContext(ctx, logger)

	store, err := client.OpenStore(cfg.StorePath)
	if err != nil {
		log.Fatalf("store: %v", err)
	}
	defer store.Close()

	bus := client.NewBus()
	defer bus.Close()

	session, err := client.NewSession(ctx, store, bus)
	if err != nil {
		log.Fatalf("session: %v", err)
	}

	app := cli.NewApp(ctx, client.New(cfg.APIURL, session), store, os.Stdin, os.Stdout)
	defer app.Close()
	app.Run(ctx)
}
