package main

import (
	// stdlib
	"context"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/gsma"
)

type Statistics struct {
	frame_time time.Duration
}

// stat logs throughput, the frame time goes through a sliding
// average so a single slow inference doesn't skew the report
func stat(
	ctx context.Context,
	parent_logger *slog.Logger,
	stats <-chan Statistics,
	stat_period_sec uint,
) error {

	logger := parent_logger.With("coroutine", "stat")

	var frames uint = 0
	var frames_since_last_tick uint = 0
	frame_time_sma, err := gsma.NewSMA[int64](30)
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Second * time.Duration(stat_period_sec))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context")
			return context.Canceled
		case s := <-stats:
			frames++
			frames_since_last_tick++
			frame_time_sma.Recalc(s.frame_time.Milliseconds())
		case <-ticker.C:
			logger.Info("Stats",
				"frames processed", frames,
				"frames per second", frames_since_last_tick/stat_period_sec,
				"avg frame time (ms)", frame_time_sma.Show())
			frames_since_last_tick = 0
		}
	}
}
