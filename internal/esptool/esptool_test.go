package esptool

import (
	"reflect"
	"testing"
)

func TestMergeArgs(t *testing.T) {
	args := MergeArgs(MergeOptions{
		Chip:      "esp32",
		FlashSize: "4MB",
		Output:    "/out/firmware_merged.bin",
		Images:    []string{"0x1000", "boot.bin", "0x10000", "app.bin"},
	})

	expected := []string{
		"--chip", "esp32", "merge_bin",
		"--fill-flash-size", "4MB",
		"-o", "/out/firmware_merged.bin",
		"0x1000", "boot.bin", "0x10000", "app.bin",
	}
	if !reflect.DeepEqual(args, expected) {
		t.Errorf("MergeArgs() = %q, want %q", args, expected)
	}
}

func TestMergeArgs_NoImages(t *testing.T) {
	args := MergeArgs(MergeOptions{Chip: "esp32c3", FlashSize: "2MB", Output: "m.bin"})
	if len(args) != 7 {
		t.Errorf("MergeArgs() length = %d, want 7", len(args))
	}
	if args[len(args)-1] != "m.bin" {
		t.Errorf("MergeArgs() last = %q, want output path", args[len(args)-1])
	}
}

func TestWriteFlashArgs(t *testing.T) {
	tests := []struct {
		name     string
		opts     WriteOptions
		expected []string
	}{
		{
			"defaults",
			WriteOptions{Chip: "esp32", Path: "m.bin"},
			[]string{"--chip", "esp32", "--baud", "460800", "write_flash", "0x0", "m.bin"},
		},
		{
			"explicit",
			WriteOptions{Chip: "esp32s3", Port: "/dev/ttyACM0", Baud: 921600, Offset: "0x10000", Path: "app.bin"},
			[]string{"--chip", "esp32s3", "--port", "/dev/ttyACM0", "--baud", "921600", "write_flash", "0x10000", "app.bin"},
		},
	}

	for _, tc := range tests {
		if got := WriteFlashArgs(tc.opts); !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("WriteFlashArgs(%s) = %q, want %q", tc.name, got, tc.expected)
		}
	}
}

func TestInvocation(t *testing.T) {
	got := Invocation("python3", "esptool.py", []string{"version"})
	if !reflect.DeepEqual(got, []string{"python3", "esptool.py", "version"}) {
		t.Errorf("Invocation() = %q", got)
	}

	got = Invocation("", "esptool", []string{"version"})
	if !reflect.DeepEqual(got, []string{"esptool", "version"}) {
		t.Errorf("Invocation() without interpreter = %q", got)
	}
}

func TestChipName(t *testing.T) {
	tests := []struct {
		mcu      string
		expected string
	}{
		{"esp32", "ESP32"},
		{"esp32c3", "ESP32-C3"},
		{"esp32s3", "ESP32-S3"},
		{"rp2040", "rp2040"},
	}

	for _, tc := range tests {
		if got := ChipName(tc.mcu); got != tc.expected {
			t.Errorf("ChipName(%q) = %q, want %q", tc.mcu, got, tc.expected)
		}
	}
}
