package serlink

import (
	// stdlib
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	// external
	"go.bug.st/serial"
)

var (
	ERR_DISABLED   = errors.New("Serial link disabled")
	ERR_NO_CONNECT = errors.New("Can't open serial port")
)

// Porter is the minimal surface the link needs from a serial port,
// real ports and test fakes both satisfy it
type Porter interface {
	io.ReadWriter
	io.Closer
}

type WireMode int

const (
	// plain newline-terminated ASCII angle, e.g. "127\n"
	ModePlain WireMode = iota
	// single-line JSON {"pan":x,"tilt":y}
	ModePanTilt
)

type Config struct {
	Enabled        bool
	Port           string
	Baudrate       int
	Mode           WireMode
	ConnectTimeout time.Duration
	Retries        int
	// resend identical angles every frame unless set
	SendOnChangeOnly bool
}

// Link lazily opens a serial device on the first send and tolerates
// the device being gone: every failure path answers false, nothing
// here ever takes the session down.
//
// Calls must be serialized by the owner, connects sleep
type Link struct {
	cfg    Config
	logger *slog.Logger
	port   Porter

	// overridable for tests
	open  func(port string, baudrate int, timeout time.Duration) (Porter, error)
	sleep func(time.Duration)

	connect_attempts int
	last_plain       int
	has_last_plain   bool
	last_pan         int
	last_tilt        int
	has_last_pt      bool
}

func NewLink(cfg Config, logger *slog.Logger) *Link {
	if cfg.Retries < 1 {
		cfg.Retries = 1
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = time.Second
	}
	return &Link{
		cfg:    cfg,
		logger: logger,
		open:   openReal,
		sleep:  time.Sleep,
	}
}

func openReal(port string, baudrate int, timeout time.Duration) (Porter, error) {
	mode := &serial.Mode{
		BaudRate: baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	p, err := serial.Open(port, mode)
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(timeout); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

func (l *Link) Connected() bool { return l.port != nil }

// ConnectAttempts counts physical open attempts, used by callers
// that surface link health and by the tests
func (l *Link) ConnectAttempts() int { return l.connect_attempts }

// Connect is idempotent: an open link on the same port and baudrate
// is reused, a differing one is closed and reopened
func (l *Link) Connect(port string, baudrate int) bool {
	if l.port != nil {
		if port == l.cfg.Port && baudrate == l.cfg.Baudrate {
			return true
		}
		l.Disconnect()
	}
	l.cfg.Port = port
	l.cfg.Baudrate = baudrate
	return l.dial()
}

func (l *Link) dial() bool {
	for attempt := 0; attempt < l.cfg.Retries; attempt++ {
		l.connect_attempts++
		port, err := l.open(l.cfg.Port, l.cfg.Baudrate, l.cfg.ConnectTimeout)
		if err == nil {
			l.port = port
			// the board reboots when DTR toggles, give it time to boot
			l.sleep(500 * time.Millisecond)
			l.logger.Info("Serial link up", "port", l.cfg.Port, "baudrate", l.cfg.Baudrate)
			return true
		}
		l.logger.Warn("Can't open serial port",
			"port", l.cfg.Port, "attempt", attempt+1, "of", l.cfg.Retries, "error", err)
		if attempt < l.cfg.Retries-1 {
			l.sleep(time.Second)
		}
	}
	return false
}

// Disconnect is a no-op when the link is already down
func (l *Link) Disconnect() {
	if l.port == nil {
		return
	}
	if err := l.port.Close(); err != nil {
		l.logger.Warn("Error closing serial port", "port", l.cfg.Port, "error", err)
	}
	l.port = nil
	l.has_last_plain = false
	l.has_last_pt = false
}

func (l *Link) SetEnabled(enabled bool) {
	l.cfg.Enabled = enabled
	if !enabled {
		l.Disconnect()
	}
}

func (l *Link) Enabled() bool { return l.cfg.Enabled }

// SendAngle delivers one pan angle. Disabled link answers false
// without touching the device. True means the write went through
func (l *Link) SendAngle(angle int) bool {
	if !l.cfg.Enabled {
		return false
	}
	if l.cfg.SendOnChangeOnly && l.has_last_plain && l.last_plain == angle {
		return true
	}
	if !l.ensure() {
		l.logger.Debug("Angle not sent, no serial connection", "angle", angle)
		return false
	}
	if !l.write([]byte(fmt.Sprintf("%d\n", angle))) {
		return false
	}
	l.last_plain = angle
	l.has_last_plain = true
	return true
}

// SendPanTilt drives both degrees of freedom with the JSON wire format
func (l *Link) SendPanTilt(pan, tilt int) bool {
	if !l.cfg.Enabled {
		return false
	}
	if l.cfg.SendOnChangeOnly && l.has_last_pt && l.last_pan == pan && l.last_tilt == tilt {
		return true
	}
	if !l.ensure() {
		l.logger.Debug("Command not sent, no serial connection", "pan", pan, "tilt", tilt)
		return false
	}
	payload, err := json.Marshal(struct {
		Pan  int `json:"pan"`
		Tilt int `json:"tilt"`
	}{pan, tilt})
	if err != nil {
		return false
	}
	if !l.write(append(payload, '\n')) {
		return false
	}
	l.last_pan, l.last_tilt = pan, tilt
	l.has_last_pt = true
	return true
}

// Send dispatches on the configured wire mode. Tilt is ignored in
// plain mode, the receiver only has one servo there
func (l *Link) Send(pan, tilt int) bool {
	switch l.cfg.Mode {
	case ModePanTilt:
		return l.SendPanTilt(pan, tilt)
	default:
		return l.SendAngle(pan)
	}
}

func (l *Link) ensure() bool {
	if l.port != nil {
		return true
	}
	return l.dial()
}

func (l *Link) write(data []byte) bool {
	if _, err := l.port.Write(data); err != nil {
		l.logger.Warn("Serial write failed, dropping the link", "error", err)
		l.Disconnect()
		return false
	}
	return true
}
