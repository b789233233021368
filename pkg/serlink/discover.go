package serlink

import (
	"fmt"
	"strings"

	"go.bug.st/serial/enumerator"
)

// PortInfo describes a candidate device for the UI / CLI to offer
type PortInfo struct {
	Device      string
	Description string
}

// FindPorts lists serial ports whose USB VID:PID matches the
// allow-list (formatted "VVVV:PPPP", hex, case-insensitive).
// An empty allow-list matches any USB serial device
func FindPorts(allowed []string) ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("Can't enumerate serial ports. Error: %w", err)
	}

	allow := make(map[string]bool, len(allowed))
	for _, id := range allowed {
		allow[strings.ToUpper(id)] = true
	}

	var ports []PortInfo
	for _, d := range details {
		if !d.IsUSB {
			continue
		}
		if len(allow) > 0 && !allow[strings.ToUpper(d.VID+":"+d.PID)] {
			continue
		}
		description := d.Name
		if d.Product != "" {
			description += " - " + d.Product
		}
		description += fmt.Sprintf(" [%s:%s]", strings.ToUpper(d.VID), strings.ToUpper(d.PID))
		ports = append(ports, PortInfo{Device: d.Name, Description: description})
	}
	return ports, nil
}
