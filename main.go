package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/soocke/flame-bot-go/app"
	"github.com/soocke/flame-bot-go/config"
	"github.com/soocke/flame-bot-go/debug"
	"github.com/soocke/flame-bot-go/domain/action"
	"github.com/soocke/flame-bot-go/domain/reroll"
)

func main() {
	settingsPath := flag.String("config", config.DefaultPath, "settings file")
	envPath := flag.String("env", ".env", "optional environment file")
	debugFlag := flag.Bool("debug", false, "debug logging, OCR stage dumps and runtime stats")
	headless := flag.Bool("headless", false, "run once with the saved settings and exit, without the control panel")
	flag.Parse()

	rt := config.LoadRuntime(*envPath)
	if *debugFlag {
		rt.Debug = true
		rt.LogLevel = slog.LevelDebug
		if rt.DebugDir == "" {
			rt.DebugDir = filepath.Join(rt.ResultsDir, "debug")
		}
	}
	logger := NewLogger(rt.LogLevel)

	settings, err := config.Load(*settingsPath)
	if err != nil {
		logger.Warn("settings unreadable, using defaults", "path", *settingsPath, "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if rt.Debug {
		debug.StartStatsLogger(ctx, 5*time.Second, logger.With("component", "debug"))
	}

	c := app.BuildContainer(settings, rt, logger)
	if err := action.WatchStopKey(ctx, rt.StopKey, logger, c.Engine.Stop); err != nil {
		logger.Warn("stop key unavailable", "key", rt.StopKey, "error", err)
	}

	if *headless {
		code := runHeadless(ctx, c, logger)
		stop()
		os.Exit(code)
	}

	if err := config.Watch(ctx, *settingsPath, 300*time.Millisecond, logger, c.Settings.Set); err != nil {
		logger.Warn("settings watcher unavailable", "error", err)
	}
	app.NewApp(ctx, c, *settingsPath, 760, 820).Start()
}

// runHeadless performs one run with the saved settings and exports the
// session report. The exit code is 0 only when the thresholds were met.
func runHeadless(ctx context.Context, c *app.Container, logger *slog.Logger) int {
	go func() {
		<-ctx.Done()
		c.Engine.Stop()
	}()
	if err := c.Engine.StartFromSettings(ctx, c.Settings.Get()); err != nil {
		logger.Error("run not started", "error", err)
		if errors.Is(err, reroll.ErrInvalidRequest) {
			return 2
		}
		return 1
	}
	c.Engine.Wait()
	snap := c.Engine.Snapshot()
	fmt.Println(snap.Status)
	if len(c.Journal.Rows()) > 0 {
		path := filepath.Join(c.Runtime.ResultsDir, fmt.Sprintf("report_%s.xlsx", snap.SessionID))
		if err := c.Journal.ExportXLSX(path); err != nil {
			logger.Error("report export failed", "path", path, "error", err)
		} else {
			logger.Info("report written", "path", path)
		}
	}
	if snap.State == reroll.StateSucceeded {
		return 0
	}
	return 1
}
