package vidio

import (
	// stdlib
	"errors"
	"fmt"

	// internal
	"github.com/Robogera/follow/pkg/config"

	// external
	"gocv.io/x/gocv"
)

var (
	ERR_BAD_INPUT = errors.New("Can't open input")
)

// Source wraps a capture device behind a pull interface. Live
// sources don't know their length, file sources do, callers branch
// on that through TotalFrames/Progress
type Source struct {
	cap     *gocv.VideoCapture
	live    bool
	address string

	width, height int
	fps           float64
}

func OpenSource(input_type config.InputType, path string, device_index int) (*Source, error) {
	var cap *gocv.VideoCapture
	var err error
	var live bool
	address := path

	switch input_type {
	case config.InputTypeFile:
		cap, err = gocv.VideoCaptureFile(path)
	case config.InputTypeWebcam:
		cap, err = gocv.VideoCaptureDevice(device_index)
		live = true
		address = fmt.Sprintf("webcam %d", device_index)
	case config.InputTypeIPC:
		cap, err = gocv.OpenVideoCapture(path)
		live = true
	default:
		return nil, fmt.Errorf("Unknown input type %s. Error: %w", input_type, ERR_BAD_INPUT)
	}
	if err != nil {
		return nil, fmt.Errorf("Can't open %s. Error: %w", address, ERR_BAD_INPUT)
	}

	s := &Source{
		cap:     cap,
		live:    live,
		address: address,
		width:   int(cap.Get(gocv.VideoCaptureFrameWidth)),
		height:  int(cap.Get(gocv.VideoCaptureFrameHeight)),
		fps:     cap.Get(gocv.VideoCaptureFPS),
	}
	if s.fps <= 0 {
		// webcams often report 0
		s.fps = 30.0
	}
	return s, nil
}

func (s *Source) Read(m *gocv.Mat) bool {
	return s.cap.Read(m)
}

func (s *Source) Address() string      { return s.address }
func (s *Source) Live() bool           { return s.live }
func (s *Source) Dims() (int, int)     { return s.width, s.height }
func (s *Source) FPS() float64         { return s.fps }

// TotalFrames is -1 for live sources
func (s *Source) TotalFrames() int {
	if s.live {
		return -1
	}
	return int(s.cap.Get(gocv.VideoCaptureFrameCount))
}

// Progress is the percentage done for file sources, -1 for live ones
func (s *Source) Progress(frame int) int {
	total := s.TotalFrames()
	if total <= 0 {
		return -1
	}
	return frame * 100 / total
}

func (s *Source) Close() error {
	return s.cap.Close()
}
