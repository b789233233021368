package main

import (
	// stdlib
	"context"
	"image"
	"log/slog"
	"time"

	// internal
	"github.com/Robogera/follow/pkg/config"
	"github.com/Robogera/follow/pkg/detect"
	"github.com/Robogera/follow/pkg/indexed"
	"github.com/Robogera/follow/pkg/rpath"
	"github.com/Robogera/follow/pkg/serlink"
	"github.com/Robogera/follow/pkg/vidio"

	// external
	"gocv.io/x/gocv"
)

// how often the file-source progress gets logged
const progress_every = 100

// processor is the per-frame pipeline: read -> detect -> track ->
// annotate (+servo) -> write/preview. One frame at a time, the
// detector call dominates and runs synchronously
func processor(
	ctx context.Context,
	parent_logger *slog.Logger,
	cfg *config.ConfigFile,
	exe_dir string,
	preview_chan chan<- indexed.Indexed[[]byte],
	events_chan chan<- Event,
	stat_chan chan<- Statistics,
) error {

	logger := parent_logger.With("coroutine", "processor")

	source, err := vidio.OpenSource(
		config.InputType(cfg.Input.Type),
		rpath.Convert(exe_dir, cfg.Input.Path),
		cfg.Input.DeviceIndex)
	if err != nil {
		logger.Error("Can't open input",
			"type", cfg.Input.Type, "path", cfg.Input.Path, "error", err)
		return ERR_BAD_INPUT
	}
	defer source.Close()

	frame_width, frame_height := source.Dims()
	logger.Info("Input open",
		"address", source.Address(),
		"dimensions", [2]int{frame_width, frame_height},
		"fps", source.FPS(),
		"total frames", source.TotalFrames())

	var writer *vidio.Writer
	if cfg.Output.Enabled {
		out_fps := cfg.Output.FPS
		if out_fps <= 0 {
			out_fps = source.FPS()
		}
		out_w, out_h := int(cfg.Output.W), int(cfg.Output.H)
		if out_w == 0 || out_h == 0 {
			out_w, out_h = frame_width, frame_height
		}
		writer, err = vidio.OpenWriter(
			rpath.Convert(exe_dir, cfg.Output.Path),
			cfg.Output.Codec, out_fps, out_w, out_h, logger)
		if err != nil {
			logger.Error("Can't open output",
				"path", cfg.Output.Path, "codec", cfg.Output.Codec, "error", err)
			return ERR_BAD_OUTPUT
		}
		// closed on every exit path, a torn container is useless
		defer writer.Close()
		logger.Info("Output open", "path", writer.Path(), "codec", writer.Codec())
	}

	detector, err := detect.NewDetector(
		cfg,
		rpath.Convert(exe_dir, cfg.Model.Path),
		rpath.Convert(exe_dir, cfg.Model.ConfigPath),
		logger)
	if err != nil {
		logger.Error("Can't load model", "path", cfg.Model.Path, "error", err)
		return ERR_BAD_MODEL
	}
	defer detector.Close()

	link := serlink.NewLink(serlink.Config{
		Enabled:          cfg.Serial.Enabled,
		Port:             cfg.Serial.Port,
		Baudrate:         cfg.Serial.Baudrate,
		Mode:             wireMode(cfg.Serial.Mode),
		ConnectTimeout:   time.Duration(cfg.Serial.ConnectTimeoutSec * float64(time.Second)),
		Retries:          cfg.Serial.Retries,
		SendOnChangeOnly: cfg.Serial.SendOnChangeOnly,
	}, logger)

	session := NewSession(cfg, logger, link, frame_width, frame_height, events_chan)
	defer session.Close()

	img := gocv.NewMat()
	defer img.Close()

	var frame_id uint64 = 0

	logger.Info("Video loop started")
	for {
		select {
		case <-ctx.Done():
			logger.Info("Cancelled by context")
			return context.Canceled
		default:
			if !source.Read(&img) {
				logger.Info("No more frames", "stream", source.Address())
				return ERR_STREAM_ENDED
			}
			if img.Empty() {
				logger.Warn("Empty frame received, skipping", "stream", source.Address())
				continue
			}

			stamp := time.Now()

			// a detector hiccup must not kill the session: pass the
			// raw frame through to both sinks untouched
			detections, err := detector.Detect(&img)
			if err != nil {
				logger.Warn("Detection failed, passing raw frame through",
					"frame", frame_id, "error", err)
			} else {
				session.Step(frame_id, stamp, &img, detections)
			}

			if writer != nil {
				if err := writer.Write(img); err != nil {
					logger.Warn("Can't write frame", "frame", frame_id, "error", err)
				}
			}

			if preview_chan != nil {
				if data := encodePreview(&img, cfg, logger); data != nil {
					select {
					case preview_chan <- indexed.NewIndexed(frame_id, stamp, data):
					default:
						// preview is best effort, drop the frame
					}
				}
			}

			frame_id++
			logProgress(logger, source, frame_id)

			select {
			case stat_chan <- Statistics{time.Since(stamp)}:
			default:
			}
		}
	}
}

func logProgress(logger *slog.Logger, source *vidio.Source, frame_id uint64) {
	if frame_id%progress_every != 0 {
		return
	}
	// file sources know their length, live sources only count
	if percent := source.Progress(int(frame_id)); percent >= 0 {
		logger.Info("Progress", "percent", percent, "frame", frame_id)
	} else {
		logger.Info("Progress", "frame", frame_id)
	}
}

func encodePreview(img *gocv.Mat, cfg *config.ConfigFile, logger *slog.Logger) []byte {
	frame := *img
	var resized gocv.Mat
	if cfg.Webserver.W != 0 && cfg.Webserver.H != 0 {
		resized = gocv.NewMat()
		defer resized.Close()
		gocv.Resize(*img, &resized,
			image.Pt(int(cfg.Webserver.W), int(cfg.Webserver.H)),
			0, 0, gocv.InterpolationLinear)
		frame = resized
	}
	buf, err := gocv.IMEncode(gocv.JPEGFileExt, frame)
	if err != nil {
		logger.Warn("Can't encode preview frame", "error", err)
		return nil
	}
	defer buf.Close()
	data := make([]byte, buf.Len())
	copy(data, buf.GetBytes())
	return data
}

func wireMode(mode string) serlink.WireMode {
	if config.SerialMode(mode) == config.SerialModePanTilt {
		return serlink.ModePanTilt
	}
	return serlink.ModePlain
}
