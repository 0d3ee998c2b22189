package main

import (
	"context"
	"os"
	"runtime"

	"viewlink/internal/config"
	"viewlink/internal/defaultsdb"
	"viewlink/internal/dispatch"
	"viewlink/internal/host"
	"viewlink/internal/lifecycle"
	"viewlink/internal/logging"
	"viewlink/internal/session"
)

// runServe is the rendering endpoint: it owns the socket, the live
// tree, and every OS-facing backend, and hands decoded traffic to the
// dispatcher.
func runServe(ctx context.Context, cfg config.Config) error {
	logger := logging.NewLogger(logging.Options{Level: cfg.LogLevel, Component: "viewlink"})

	configDir, err := config.DefaultConfigDir()
	if err != nil {
		return err
	}
	renderCfg, err := config.NewStore(configDir).LoadOrInit()
	if err != nil {
		return err
	}

	store, err := defaultsdb.Open(cfg.DBPath)
	if err != nil {
		return err
	}

	var notifier *host.SystemNotifier
	if renderCfg.Notifications.Enabled && renderCfg.Notifications.Backend == "system" {
		notifier = host.NewSystemNotifier()
	} else {
		notifier = host.NewLogNotifier(logger.With("component", "notifier"))
	}

	services := host.NewRegistry()
	registerBuiltinServices(services)

	uiHost := &host.LogHost{Logger: logger.With("component", "host")}
	uiHost.SetWindowSize(renderCfg.Window.Width, renderCfg.Window.Height)
	if renderCfg.StatusIcon != "" {
		uiHost.SetStatusIcon(renderCfg.StatusIcon)
	}

	dispatcher := dispatch.New(dispatch.Config{
		Logger:    logger.With("component", "dispatch"),
		Host:      uiHost,
		Clipboard: host.SystemClipboard{},
		Dialogs:   host.SystemDialogs{},
		Notifier:  notifier,
		Services:  services,
		Defaults:  store,
	})

	listener := session.NewListener(cfg.SocketPath, dispatcher, logger.With("component", "session"), cfg.MaxFrameBytes)

	mgr := lifecycle.NewManager(logger.With("component", "lifecycle"))
	mgr.AddRun("listener", listener.Serve)
	mgr.AddShutdown("notifier", func(context.Context) error {
		notifier.Stop()
		return nil
	})
	mgr.AddShutdown("defaults-db", func(context.Context) error {
		return store.Close()
	})

	logger.Info("serving", "socket", cfg.SocketPath, "version", version)
	return mgr.StartAndWait(ctx)
}

// registerBuiltinServices exposes a minimal system service so control
// processes have something to call without the host wiring anything.
func registerBuiltinServices(services *host.Registry) {
	services.Register("system", func(_ context.Context, method string, _ map[string]any) (any, error) {
		switch method {
		case "info":
			hostname, _ := os.Hostname()
			return map[string]any{
				"hostname": hostname,
				"pid":      os.Getpid(),
				"os":       runtime.GOOS,
				"arch":     runtime.GOARCH,
			}, nil
		default:
			return nil, host.ErrServiceNotFound
		}
	})
}
