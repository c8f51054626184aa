package esptool

import "strconv"

// esptool subcommands
const (
	CmdMergeBin   = "merge_bin"
	CmdWriteFlash = "write_flash"
)

// Flash parameters
const (
	DefaultBaudRate = 460800
	MergedOffset    = "0x0" // merged images always start at the beginning of flash
)

// MergeOptions describes a merge_bin invocation.
type MergeOptions struct {
	Chip      string
	FlashSize string
	Output    string
	// Images holds alternating offset and path tokens, in flash order.
	Images []string
}

// MergeArgs returns the esptool arguments that merge images into Output.
func MergeArgs(o MergeOptions) []string {
	args := []string{
		"--chip", o.Chip,
		CmdMergeBin,
		"--fill-flash-size", o.FlashSize,
		"-o", o.Output,
	}
	return append(args, o.Images...)
}

// WriteOptions describes a write_flash invocation.
type WriteOptions struct {
	Chip   string
	Port   string
	Baud   int
	Offset string
	Path   string
}

// WriteFlashArgs returns the esptool arguments that write one image to a device.
func WriteFlashArgs(o WriteOptions) []string {
	baud := o.Baud
	if baud == 0 {
		baud = DefaultBaudRate
	}
	offset := o.Offset
	if offset == "" {
		offset = MergedOffset
	}

	args := []string{"--chip", o.Chip}
	if o.Port != "" {
		args = append(args, "--port", o.Port)
	}
	return append(args,
		"--baud", strconv.Itoa(baud),
		CmdWriteFlash, offset, o.Path,
	)
}

// Invocation prefixes args with the tool, and with the interpreter that
// runs it when python is not empty.
func Invocation(python, tool string, args []string) []string {
	argv := make([]string, 0, len(args)+2)
	if python != "" {
		argv = append(argv, python)
	}
	argv = append(argv, tool)
	return append(argv, args...)
}

// ChipName returns a human-readable name for an esptool chip identifier.
func ChipName(mcu string) string {
	switch mcu {
	case "esp32":
		return "ESP32"
	case "esp32s2":
		return "ESP32-S2"
	case "esp32s3":
		return "ESP32-S3"
	case "esp32c2":
		return "ESP32-C2"
	case "esp32c3":
		return "ESP32-C3"
	case "esp32c6":
		return "ESP32-C6"
	case "esp32h2":
		return "ESP32-H2"
	case "esp32p4":
		return "ESP32-P4"
	case "esp8266":
		return "ESP8266"
	default:
		return mcu
	}
}
