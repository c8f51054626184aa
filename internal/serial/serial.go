package serial

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// ErrNoDevice is returned when no port looks like an ESP32 board.
var ErrNoDevice = errors.New("no ESP32 device found")

// USB vendor IDs of the bridges found on ESP32 boards
const (
	VIDEspressif   = "303A" // native USB-Serial/JTAG (C3, S3, C6, H2)
	VIDSiliconLabs = "10C4" // CP210x
	VIDWCH         = "1A86" // CH340, CH9102
	VIDFTDI        = "0403" // FT232, FT2232
)

// PortInfo describes a serial port.
type PortInfo struct {
	Name         string
	IsUSB        bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// Bridge returns the USB bridge family of the port, or "" when the
// vendor is not one commonly used with ESP32 chips.
func (p PortInfo) Bridge() string {
	if !p.IsUSB {
		return ""
	}
	switch strings.ToUpper(p.VID) {
	case VIDEspressif:
		return "Espressif USB"
	case VIDSiliconLabs:
		return "CP210x"
	case VIDWCH:
		return "CH34x"
	case VIDFTDI:
		return "FTDI"
	default:
		return ""
	}
}

// ListPorts returns a list of available serial ports.
func ListPorts() ([]string, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, err
	}
	return ports, nil
}

// ListDetailed returns the available serial ports with USB details.
func ListDetailed() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to enumerate ports: %w", err)
	}

	ports := make([]PortInfo, 0, len(details))
	for _, d := range details {
		ports = append(ports, PortInfo{
			Name:         d.Name,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}
	return ports, nil
}

// FindESP returns the first port attached through a known ESP32 USB bridge.
func FindESP(ports []PortInfo) (PortInfo, error) {
	for _, p := range ports {
		if p.Bridge() != "" {
			return p, nil
		}
	}
	return PortInfo{}, ErrNoDevice
}

// DetectPort enumerates the system ports and returns the name of the
// first one that looks like an ESP32 board.
func DetectPort() (string, error) {
	ports, err := ListDetailed()
	if err != nil {
		return "", err
	}
	if len(ports) == 0 {
		return "", fmt.Errorf("no serial ports found: %w", ErrNoDevice)
	}

	p, err := FindESP(ports)
	if err != nil {
		return "", err
	}
	return p.Name, nil
}
