package main

import (
	// stdlib
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/config"
	"github.com/Robogera/follow/pkg/indexed"
	"github.com/Robogera/follow/pkg/rpath"
	"github.com/Robogera/follow/pkg/serlink"

	// external
	"github.com/lmittmann/tint"
	"golang.org/x/sync/errgroup"
)

const (
	default_cfg_path string = "../cfg/config.default.toml"
)

var (
	cfg_path     string
	exe_dir      string
	discover     bool
	write_config string
)

func init() {
	var err error

	exe_dir, err = rpath.ExecutableDir()
	if err != nil {
		slog.Error("Can't find the executable's location", "error", err)
		return
	}

	flag.StringVar(
		&cfg_path, "config",
		default_cfg_path,
		"Path to config file")
	flag.BoolVar(
		&discover, "discover",
		false,
		"List candidate serial devices and exit")
	flag.StringVar(
		&write_config, "write-config",
		"",
		"Write the default config to the given path and exit")
}

func main() {

	flag.Parse()

	if write_config != "" {
		if err := config.CreateDefault(write_config); err != nil {
			slog.Error("Can't write default config", "path", write_config, "error", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Unmarshal(rpath.Convert(exe_dir, cfg_path))
	if err != nil {
		if cfg_path != default_cfg_path {
			slog.Error("Config file not loaded. Shutting down...",
				"provided path", cfg_path, "error", err)
			return
		}
		// a missing default config is not fatal, run on defaults
		slog.Warn("Default config not loaded, using built-in defaults", "error", err)
		cfg = config.Default()
	}

	var log_level slog.Level

	switch config.LoggingLevel(cfg.Logging.Level) {
	case config.LoggingLevelDebug:
		log_level = slog.LevelDebug
	case config.LoggingLevelInfo:
		log_level = slog.LevelInfo
	case config.LoggingLevelWarn:
		log_level = slog.LevelWarn
	case config.LoggingLevelError:
		log_level = slog.LevelError
	default:
		slog.Warn(
			"No valid logging level provided. Defaulting to LevelError",
			"provided value", cfg.Logging.Level)
		log_level = slog.LevelError
	}

	logger := slog.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level:      log_level,
		TimeFormat: time.RFC3339,
	}))

	if discover {
		ports, err := serlink.FindPorts(cfg.Serial.USBIds)
		if err != nil {
			logger.Error("Can't enumerate serial ports", "error", err)
			os.Exit(1)
		}
		if len(ports) == 0 {
			fmt.Println("No matching serial devices found")
			return
		}
		for _, port := range ports {
			fmt.Println(port.Description)
		}
		return
	}

	logger.Info("Starting...")

	ctx := context.Background()
	eg, child_ctx := errgroup.WithContext(ctx)

	preview_chan := make(chan indexed.Indexed[[]byte], 1)
	events_chan := make(chan Event, 16)
	stats_chan := make(chan Statistics, 8)

	eg.Go(func() error {
		return processor(
			child_ctx, logger, cfg, exe_dir,
			preview_chan, events_chan, stats_chan)
	})

	if cfg.Webserver.Enabled {
		eg.Go(func() error {
			return webplayer(child_ctx, logger, cfg, preview_chan)
		})
	}

	if cfg.Mqtt.Enabled {
		eg.Go(func() error {
			return mqttclient(child_ctx, logger, cfg, events_chan)
		})
	} else {
		eg.Go(func() error {
			return drainevents(child_ctx, events_chan)
		})
	}

	eg.Go(func() error {
		return stat(child_ctx, logger, stats_chan, cfg.Logging.StatPeriodSec)
	})

	eg.Go(func() error {
		return control(child_ctx, logger)
	})

	eg.Wait()

	logger.Info("Stopped")
}

func control(ctx context.Context, logger *slog.Logger) error {
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt,
		os.Interrupt,
		syscall.SIGTERM,
		syscall.SIGINT)

	select {
	case <-ctx.Done():
		logger.Info("Control cancelled by context")
		return context.Canceled
	case <-interrupt:
		logger.Info("Cancelled by user")
		return ERR_INTERRUPTED_BY_USER
	}
}
