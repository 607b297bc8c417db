package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"quizbot/internal/app"
	"quizbot/internal/config"
)

func main() {
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal config:", err)
		os.Exit(1)
	}

	a, err := app.NewApp(cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	stop := func(reason app.StopReason) {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		_ = a.Stop(ctx, reason)
	}

	if err := a.Start(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "fatal start:", err)
		stop(app.StopFatalError)
		os.Exit(1)
	}

	// Block until a signal or a fatal supervisor error; triggers fire meanwhile.
	var reason app.StopReason
	select {
	case sig := <-sigc:
		reason = app.StopSIGTERM
		if sig == os.Interrupt {
			reason = app.StopSIGINT
		}
	case <-a.Done():
		reason = app.StopFatalError
	}
	stop(reason)

	if reason == app.StopFatalError {
		if err := a.Err(); err != nil {
			fmt.Fprintln(os.Stderr, "fatal:", err)
		}
		os.Exit(1)
	}
}
