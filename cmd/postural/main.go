// Command postural turns body poses seen by the webcam into system actions.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"github.com/ayusman/postural/internal/app"
	"github.com/ayusman/postural/internal/config"
	"github.com/ayusman/postural/internal/detector"
	"github.com/ayusman/postural/internal/server"
	"github.com/ayusman/postural/internal/store"
	"github.com/ayusman/postural/internal/tray"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "postural: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := flag.String("config", config.DefaultPath(), "path to the YAML config file")
	addr := flag.String("addr", "", "listen address (overrides listen_addr)")
	noTray := flag.Bool("no-tray", false, "disable the system tray even if enabled in config")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *noTray {
		cfg.Tray = false
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))
	slog.SetDefault(logger)

	if err := os.MkdirAll(cfg.DataPath(), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	st, err := store.New(cfg.DBPath())
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	detCfg := detector.DefaultConfig()
	detCfg.MinVisibility = cfg.MinVisibility

	a := app.New(app.Config{
		Store:          st,
		CameraID:       cfg.CameraID,
		FPS:            cfg.FPS,
		DetectorConfig: detCfg,
		PluginDir:      cfg.PluginDir,
		PluginTimeout:  cfg.PluginTimeout,
		StableFrames:   cfg.StableFrames,
		RepeatInterval: cfg.RepeatInterval,
		RecordEvents:   cfg.RecordEvents,
		EventRetention: cfg.EventRetention,
		Logger:         logger,
	})

	if err := a.DiscoverPlugins(); err != nil {
		logger.Warn("plugin discovery failed", "dir", cfg.PluginDir, "error", err)
	}
	if err := a.SeedBindings(); err != nil {
		logger.Warn("seeding default bindings failed", "error", err)
	}

	hub := server.NewHub(logger)
	a.OnResult(func(u app.Update) { hub.Publish(u) })

	webDir := cfg.WebDir
	if webDir == "" {
		webDir = findWebDir(cfg.DataPath())
	}
	if webDir != "" {
		logger.Info("serving static files", "dir", webDir)
	}

	srv := server.New(server.Config{
		StaticDir:  webDir,
		Store:      st,
		Classifier: a.Classifier(),
		Plugins:    a.PluginManager(),
		Preview:    a,
		Toggle:     a,
		Hub:        hub,
		Logger:     logger,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		logger.Error("camera unavailable, serving API only", "error", err)
	}
	defer a.Stop()

	errCh := make(chan error, 1)
	go func() {
		err := srv.ListenAndServe(ctx, cfg.ListenAddr)
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		errCh <- err
		stop()
	}()

	if cfg.Tray {
		runTray(ctx, stop, a, settingsURL(cfg.ListenAddr), logger)
	}

	<-ctx.Done()
	logger.Info("shutting down")
	return <-errCh
}

// runTray blocks on the tray's event loop until quit is chosen or ctx ends.
func runTray(ctx context.Context, stop context.CancelFunc, a *app.App, url string, logger *slog.Logger) {
	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnSettings(func() {
		if err := openBrowser(url); err != nil {
			logger.Warn("open browser", "url", url, "error", err)
		}
	})
	t.OnQuit(stop)
	a.OnResult(func(u app.Update) {
		if !u.Stable.IsNone() {
			t.SetCommand(u.Stable)
		}
	})

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}

func settingsURL(listenAddr string) string {
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return "http://" + host + "/"
}

func openBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	return cmd.Start()
}

// findWebDir searches for the web directory in common locations: "web",
// "../web", "../../web" and <dataDir>/web. It returns the first existing
// directory or the empty string.
func findWebDir(dataDir string) string {
	candidates := []string{"web", "../web", "../../web", filepath.Join(dataDir, "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}
