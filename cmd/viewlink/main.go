package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"viewlink/internal/command"
	"viewlink/internal/config"
	"viewlink/internal/defaultsdb"
	"viewlink/internal/logging"
)

var version = "dev"

func main() {
	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := command.BuildApp(command.Deps{
		LoadConfig:     config.LoadConfig,
		RunServe:       runServe,
		RunDemo:        runDemo,
		DefaultsKeys:   defaultsKeys,
		DefaultsClear:  defaultsClear,
		DefaultsRemove: defaultsRemove,
	})

	if err := app.RunContext(rootCtx, os.Args); err != nil {
		logging.NewLogger(logging.Options{Level: "error", Component: "viewlink"}).Error("viewlink failed", "err", err)
		os.Exit(1)
	}
}

func defaultsKeys(_ context.Context, cfg config.Config) ([]string, error) {
	store, err := defaultsdb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Keys()
}

func defaultsClear(_ context.Context, cfg config.Config) error {
	store, err := defaultsdb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Clear()
}

func defaultsRemove(_ context.Context, cfg config.Config, key string) error {
	store, err := defaultsdb.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()
	return store.Remove(key)
}
