package serlink

import (
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePort records writes and injects failures
type fakePort struct {
	written     []byte
	write_error error
	closed      bool
}

func (f *fakePort) Read(p []byte) (int, error) { return 0, io.EOF }

func (f *fakePort) Write(p []byte) (int, error) {
	if f.write_error != nil {
		return 0, f.write_error
	}
	f.written = append(f.written, p...)
	return len(p), nil
}

func (f *fakePort) Close() error {
	f.closed = true
	return nil
}

func testLink(t *testing.T, cfg Config, port *fakePort, open_error error) *Link {
	t.Helper()
	l := NewLink(cfg, slog.Default())
	l.sleep = func(time.Duration) {}
	l.open = func(string, int, time.Duration) (Porter, error) {
		if open_error != nil {
			return nil, open_error
		}
		return port, nil
	}
	return l
}

func TestDisabledNoConnectAttempt(t *testing.T) {
	l := testLink(t, Config{Enabled: false}, &fakePort{}, nil)
	assert.False(t, l.SendAngle(90))
	assert.Equal(t, 0, l.ConnectAttempts(), "disabled link must not touch the device")
}

func TestConnectFailureBudget(t *testing.T) {
	l := testLink(t, Config{Enabled: true, Retries: 1}, nil, errors.New("no such device"))
	assert.False(t, l.SendAngle(90))
	assert.Equal(t, 1, l.ConnectAttempts(), "default budget is a single attempt")

	l = testLink(t, Config{Enabled: true, Retries: 3}, nil, errors.New("no such device"))
	assert.False(t, l.SendAngle(90))
	assert.Equal(t, 3, l.ConnectAttempts())
}

func TestLazyConnectAndPlainWire(t *testing.T) {
	port := &fakePort{}
	l := testLink(t, Config{Enabled: true, Port: "/dev/ttyUSB0", Baudrate: 115200}, port, nil)
	require.False(t, l.Connected(), "link must not connect before first send")

	assert.True(t, l.SendAngle(127))
	assert.True(t, l.Connected())
	assert.Equal(t, 1, l.ConnectAttempts())
	assert.Equal(t, "127\n", string(port.written))

	// continuous mode resends every call
	assert.True(t, l.SendAngle(127))
	assert.Equal(t, "127\n127\n", string(port.written))
}

func TestPanTiltWire(t *testing.T) {
	port := &fakePort{}
	l := testLink(t, Config{Enabled: true, Mode: ModePanTilt}, port, nil)
	require.True(t, l.Send(120, 45))
	assert.Equal(t, "{\"pan\":120,\"tilt\":45}\n", string(port.written))
}

func TestSendOnChangeOnly(t *testing.T) {
	port := &fakePort{}
	l := testLink(t, Config{Enabled: true, SendOnChangeOnly: true}, port, nil)
	assert.True(t, l.SendAngle(90))
	assert.True(t, l.SendAngle(90))
	assert.True(t, l.SendAngle(91))
	assert.Equal(t, "90\n91\n", string(port.written), "identical angle must be debounced")
}

func TestWriteFailureDropsLink(t *testing.T) {
	port := &fakePort{write_error: errors.New("device unplugged")}
	l := testLink(t, Config{Enabled: true}, port, nil)
	assert.False(t, l.SendAngle(90))
	assert.False(t, l.Connected(), "failed write must drop the connection")
	assert.True(t, port.closed)
}

func TestConnectIdempotent(t *testing.T) {
	port := &fakePort{}
	l := testLink(t, Config{Enabled: true, Port: "/dev/ttyUSB0", Baudrate: 115200}, port, nil)
	require.True(t, l.Connect("/dev/ttyUSB0", 115200))
	require.True(t, l.Connect("/dev/ttyUSB0", 115200))
	assert.Equal(t, 1, l.ConnectAttempts(), "same port and baud reuses the open link")

	// changing parameters closes and reopens
	require.True(t, l.Connect("/dev/ttyUSB1", 9600))
	assert.True(t, port.closed)
	assert.Equal(t, 2, l.ConnectAttempts())
}

func TestDisconnectIdempotent(t *testing.T) {
	l := testLink(t, Config{Enabled: true}, &fakePort{}, nil)
	l.Disconnect()
	l.Disconnect()
	assert.False(t, l.Connected())
}

func TestDisableClosesLink(t *testing.T) {
	port := &fakePort{}
	l := testLink(t, Config{Enabled: true}, port, nil)
	require.True(t, l.SendAngle(90))
	l.SetEnabled(false)
	assert.True(t, port.closed)
	assert.False(t, l.SendAngle(90))
}
