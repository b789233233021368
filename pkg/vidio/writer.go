package vidio

import (
	// stdlib
	"errors"
	"fmt"
	"log/slog"
	"strings"

	// internal
	"github.com/Robogera/follow/pkg/rpath"

	// external
	"gocv.io/x/gocv"
)

var (
	ERR_BAD_OUTPUT = errors.New("Can't open output")
)

// container extension each codec expects
var codec_containers = map[string]string{
	"XVID": ".avi",
	"MP4V": ".mp4",
	"MJPG": ".avi",
	"H264": ".mp4",
	"AVC1": ".mp4",
}

// Container returns the file extension the codec belongs in,
// false for codecs the writer doesn't know
func Container(codec string) (string, bool) {
	ext, ok := codec_containers[strings.ToUpper(codec)]
	return ext, ok
}

// FallbackCodec: on an .mp4 target that won't open, one retry with
// H264 is allowed before giving up
func FallbackCodec(codec, path string) (string, bool) {
	if strings.ToUpper(codec) != "H264" && strings.HasSuffix(strings.ToLower(path), ".mp4") {
		return "H264", true
	}
	return "", false
}

// Writer owns the encoded output file. Close is idempotent so every
// exit path of the loop can call it
type Writer struct {
	writer *gocv.VideoWriter
	path   string
	codec  string
}

func OpenWriter(path, codec string, fps float64, width, height int, logger *slog.Logger) (*Writer, error) {
	if _, ok := Container(codec); !ok {
		return nil, fmt.Errorf("Unknown codec %s. Error: %w", codec, ERR_BAD_OUTPUT)
	}
	if err := rpath.EnsureParent(path); err != nil {
		return nil, fmt.Errorf("Can't prepare output path %s. Error: %w", path, err)
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, width, height, true)
	if err == nil && writer.IsOpened() {
		return &Writer{writer: writer, path: path, codec: codec}, nil
	}
	if writer != nil {
		writer.Close()
	}

	fallback, ok := FallbackCodec(codec, path)
	if !ok {
		return nil, fmt.Errorf("Can't open %s with codec %s. Error: %w", path, codec, ERR_BAD_OUTPUT)
	}
	logger.Warn("Codec failed to open, retrying with fallback",
		"path", path, "codec", codec, "fallback", fallback)
	writer, err = gocv.VideoWriterFile(path, fallback, fps, width, height, true)
	if err != nil || !writer.IsOpened() {
		if writer != nil {
			writer.Close()
		}
		return nil, fmt.Errorf("Can't open %s with fallback codec %s. Error: %w", path, fallback, ERR_BAD_OUTPUT)
	}
	return &Writer{writer: writer, path: path, codec: fallback}, nil
}

func (w *Writer) Write(m gocv.Mat) error {
	if w.writer == nil {
		return fmt.Errorf("Writer already closed. Error: %w", ERR_BAD_OUTPUT)
	}
	return w.writer.Write(m)
}

func (w *Writer) Codec() string { return w.codec }
func (w *Writer) Path() string  { return w.path }

func (w *Writer) Close() error {
	if w.writer == nil {
		return nil
	}
	err := w.writer.Close()
	w.writer = nil
	return err
}
