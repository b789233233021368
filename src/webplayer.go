package main

import (
	// stdlib
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/config"
	"github.com/Robogera/follow/pkg/indexed"

	// external
	"github.com/hybridgroup/mjpeg"
)

// webplayer serves the annotated stream as MJPEG for a browser
func webplayer(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	in_chan <-chan indexed.Indexed[[]byte],
) error {

	logger := parent_logger.With("coroutine", "webplayer")

	output_stream := mjpeg.NewStream()

	mux := http.NewServeMux()
	mux.Handle("/", output_stream)

	server := &http.Server{
		Addr:         fmt.Sprintf("0.0.0.0:%d", cfg.Webserver.Port),
		Handler:      mux,
		ReadTimeout:  time.Duration(cfg.Webserver.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.Webserver.WriteTimeoutSec) * time.Second,
	}

	err_chan := make(chan error)

	go func() {
		err_chan <- server.ListenAndServe()
	}()
	defer func() {
		shutdown_context, cancel := context.WithTimeout(
			context.Background(),
			time.Second*time.Duration(cfg.Webserver.ShutdownTimeoutSec))
		defer cancel()
		shutdown_initiated_timestamp := time.Now()
		err := server.Shutdown(shutdown_context)
		logger.Info(
			"Shut down",
			"shutdown time (sec)", time.Since(shutdown_initiated_timestamp).Seconds(),
			"error", err)
	}()

	logger.Info("Started", "port", cfg.Webserver.Port)

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context")
			return context.Canceled
		case err := <-err_chan:
			logger.Error("Error", "port", cfg.Webserver.Port, "error", err)
			return err
		case frame := <-in_chan:
			output_stream.UpdateJPEG(frame.Value())
		}
	}
}
