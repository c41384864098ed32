package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pkg/profile"

	"github.com/zeusync/asteroidworker/internal/config"
	"github.com/zeusync/asteroidworker/internal/injector"
	"github.com/zeusync/asteroidworker/internal/worker"
)

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to the worker YAML config")
	profileMode := flag.String("profile", "", "write a profile to ./: cpu or mem")
	flag.Parse()

	switch *profileMode {
	case "":
	case "cpu":
		defer profile.Start(profile.CPUProfile, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	case "mem":
		defer profile.Start(profile.MemProfileAllocs, profile.ProfilePath("."), profile.NoShutdownHook).Stop()
	default:
		fmt.Fprintln(os.Stderr, "unknown profile mode:", *profileMode)
		return 2
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error loading config:", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, cleanup, err := injector.InitializeWorker(ctx, cfg)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error starting worker:", err)
		return 1
	}
	defer cleanup()

	err = w.Run(ctx)
	switch {
	case err == nil, errors.Is(err, context.Canceled):
		return 0
	case worker.IsDisconnect(err):
		fmt.Fprintln(os.Stderr, "Worker disconnected:", err)
		return 1
	default:
		fmt.Fprintln(os.Stderr, "Worker stopped:", err)
		return 1
	}
}
