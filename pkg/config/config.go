package config

import (
	// stdlib
	"fmt"
	"os"

	// external
	"github.com/pelletier/go-toml/v2"
)

// Enum types

type ModelFormat string

const (
	ModelFormatONNX     = "onnx"
	ModelFormatOpenVINO = "openvino"
	ModelFormatCaffe    = "caffe"
)

type LoggingLevel string

const (
	LoggingLevelDebug = "debug"
	LoggingLevelInfo  = "info"
	LoggingLevelWarn  = "warn"
	LoggingLevelError = "error"
)

type InputType string

const (
	InputTypeFile   = "file"
	InputTypeWebcam = "webcam"
	InputTypeIPC    = "ipc"
)

type SerialMode string

const (
	SerialModePlain   = "plain"
	SerialModePanTilt = "pantilt"
)

type MappingType string

const (
	MappingPiecewise = "piecewise"
	MappingFullSweep = "fullsweep"
)

type PickPolicy string

const (
	PickPolicyMin = "min"
	PickPolicyMax = "max"
)

type SmoothingType string

const (
	SmoothingNone   = "none"
	SmoothingSMA    = "sma"
	SmoothingKalman = "kalman"
)

// Output codecs the writer knows a container for
var KnownCodecs = []string{"XVID", "MP4V", "MJPG", "H264", "AVC1"}

// Default VID:PID pairs of the usual ESP32 usb-serial chips
var DefaultUSBIds = []string{"303A:0002", "303A:1001", "10C4:EA60", "1A86:7523"}

var SupportedBaudrates = []int{9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600}

// Config file structure

type ConfigFile struct {
	Model     ModelConfig
	Input     InputConfig
	Output    OutputConfig
	Tracking  TrackingConfig
	Serial    SerialConfig
	Servo     ServoConfig
	Webserver WebserverConfig
	Mqtt      MqttConfig
	Logging   LoggingConfig
}

type ModelConfig struct {
	Format              string
	Path                string
	ConfigPath          string `toml:"config_path"`
	Transpose           bool
	X                   uint
	Y                   uint
	ConfidenceThreshold float32 `toml:"confidence_threshold"`
	NMSThreshold        float32 `toml:"nms_threshold"`
	PersonClassIndex    uint    `toml:"person_class_index"`
}

type InputConfig struct {
	Type        string
	Path        string
	DeviceIndex int `toml:"device_index"`
}

type OutputConfig struct {
	Enabled bool
	Path    string
	Codec   string
	FPS     float64 `toml:"fps"`
	W       uint
	H       uint
}

type TrackingConfig struct {
	GracePeriodFrames int    `toml:"grace_period_frames"`
	PickPolicy        string `toml:"pick_policy"`
	Smoothing         string
	SMAWindow         uint `toml:"sma_window"`
	// Internal id assigner for models without a tracking head
	AssignMaxDistPx float64 `toml:"assign_max_dist_px"`
	AssignTTLFrames int     `toml:"assign_ttl_frames"`
}

type SerialConfig struct {
	Enabled           bool
	Port              string
	Baudrate          int
	Mode              string
	ConnectTimeoutSec float64  `toml:"connect_timeout_sec"`
	Retries           int      `toml:"retries"`
	USBIds            []string `toml:"usb_ids"`
	SendOnChangeOnly  bool     `toml:"send_on_change_only"`
}

type ServoConfig struct {
	Mapping string
	// Max tilt the rig can physically reach
	TiltMax int `toml:"tilt_max"`
}

type WebserverConfig struct {
	Enabled            bool
	Port               uint
	ReadTimeoutSec     uint `toml:"read_timeout_sec"`
	WriteTimeoutSec    uint `toml:"write_timeout_sec"`
	ShutdownTimeoutSec uint `toml:"shutdown_timeout_sec"`
	W                  uint
	H                  uint
}

type MqttConfig struct {
	Enabled       bool
	Broker        string
	ClientId      string `toml:"client_id"`
	Topic         string
	TimeoutSec    uint `toml:"timeout_sec"`
	KeepaliveSec  uint `toml:"keepalive_sec"`
	BufferBytes   uint `toml:"buffer_bytes"`
}

type LoggingConfig struct {
	Level         string
	StatPeriodSec uint `toml:"stat_period_sec"`
}

// Default returns the config used when no file is supplied.
// Values follow the shipped config.default.toml
func Default() *ConfigFile {
	return &ConfigFile{
		Model: ModelConfig{
			Format:              ModelFormatONNX,
			Path:                "../models/yolov8n.onnx",
			Transpose:           true,
			X:                   640,
			Y:                   640,
			ConfidenceThreshold: 0.6,
			NMSThreshold:        0.45,
			PersonClassIndex:    0,
		},
		Input: InputConfig{
			Type: InputTypeFile,
			Path: "../media/test.mp4",
		},
		Output: OutputConfig{
			Enabled: true,
			Path:    "../media/out.avi",
			Codec:   "XVID",
		},
		Tracking: TrackingConfig{
			GracePeriodFrames: 10,
			PickPolicy:        PickPolicyMin,
			Smoothing:         SmoothingNone,
			SMAWindow:         5,
			AssignMaxDistPx:   120,
			AssignTTLFrames:   15,
		},
		Serial: SerialConfig{
			Enabled:           false,
			Port:              "/dev/ttyUSB0",
			Baudrate:          115200,
			Mode:              SerialModePlain,
			ConnectTimeoutSec: 1.0,
			Retries:           1,
			USBIds:            DefaultUSBIds,
		},
		Servo: ServoConfig{
			Mapping: MappingPiecewise,
			TiltMax: 90,
		},
		Webserver: WebserverConfig{
			Enabled:            true,
			Port:               8080,
			ReadTimeoutSec:     10,
			WriteTimeoutSec:    10,
			ShutdownTimeoutSec: 5,
		},
		Mqtt: MqttConfig{
			Enabled:      false,
			Broker:       "127.0.0.1:1883",
			ClientId:     "follow",
			Topic:        "follow/events",
			TimeoutSec:   5,
			KeepaliveSec: 60,
			BufferBytes:  2048,
		},
		Logging: LoggingConfig{
			Level:         LoggingLevelInfo,
			StatPeriodSec: 10,
		},
	}
}

func Unmarshal(file_path string) (*ConfigFile, error) {
	config_file := Default()
	data, err := os.ReadFile(file_path)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to read %s error: %w", file_path, err)
	}
	err = toml.Unmarshal(data, config_file)
	if err != nil {
		return nil,
			fmt.Errorf("Unable to unmarshal %s error: %w", file_path, err)
	}
	if err := config_file.Validate(); err != nil {
		return nil, err
	}
	return config_file, nil
}

func CreateDefault(file_path string) error {
	data, err := toml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("Unable to marshal default config. Error: %w", err)
	}
	err = os.WriteFile(file_path, data, 0o644)
	if err != nil {
		return fmt.Errorf("Unable to write %s error: %w", file_path, err)
	}
	return nil
}

// Validate rejects values the pipeline can't recover from at runtime.
// Out-of-range but recoverable values (grace period, confidence) are
// clamped by their consumers instead
func (c *ConfigFile) Validate() error {
	switch InputType(c.Input.Type) {
	case InputTypeFile, InputTypeWebcam, InputTypeIPC:
	default:
		return fmt.Errorf("Unknown input type: %s", c.Input.Type)
	}
	switch ModelFormat(c.Model.Format) {
	case ModelFormatONNX, ModelFormatOpenVINO, ModelFormatCaffe:
	default:
		return fmt.Errorf("Unknown model format: %s", c.Model.Format)
	}
	switch SerialMode(c.Serial.Mode) {
	case SerialModePlain, SerialModePanTilt:
	default:
		return fmt.Errorf("Unknown serial mode: %s", c.Serial.Mode)
	}
	switch MappingType(c.Servo.Mapping) {
	case MappingPiecewise, MappingFullSweep:
	default:
		return fmt.Errorf("Unknown servo mapping: %s", c.Servo.Mapping)
	}
	switch PickPolicy(c.Tracking.PickPolicy) {
	case PickPolicyMin, PickPolicyMax:
	default:
		return fmt.Errorf("Unknown pick policy: %s", c.Tracking.PickPolicy)
	}
	switch SmoothingType(c.Tracking.Smoothing) {
	case SmoothingNone, SmoothingSMA, SmoothingKalman:
	default:
		return fmt.Errorf("Unknown smoothing type: %s", c.Tracking.Smoothing)
	}
	if c.Output.Enabled {
		known := false
		for _, codec := range KnownCodecs {
			if c.Output.Codec == codec {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("Unknown output codec: %s", c.Output.Codec)
		}
	}
	if c.Serial.Enabled {
		supported := false
		for _, baud := range SupportedBaudrates {
			if c.Serial.Baudrate == baud {
				supported = true
				break
			}
		}
		if !supported {
			return fmt.Errorf("Unsupported baudrate: %d", c.Serial.Baudrate)
		}
	}
	return nil
}
