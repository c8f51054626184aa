package buildenv

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestParse_YAML(t *testing.T) {
	data := []byte(`
PROGNAME: firmware
BUILD_DIR: .pio/build/esp32dev
ESP32_APP_OFFSET: 0x10000
FLASH_EXTRA_IMAGES:
  - [0x1000, $BUILD_DIR/bootloader.bin]
  - - 0x8000
    - $BUILD_DIR/partitions.bin
  - [[0xe000, boot_app0.bin]]
`)

	vars, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if vars["ESP32_APP_OFFSET"] != "0x10000" {
		t.Errorf("ESP32_APP_OFFSET = %#v, want literal %q", vars["ESP32_APP_OFFSET"], "0x10000")
	}

	got := Flatten(vars["FLASH_EXTRA_IMAGES"])
	expected := []string{
		"0x1000", "$BUILD_DIR/bootloader.bin",
		"0x8000", "$BUILD_DIR/partitions.bin",
		"0xe000", "boot_app0.bin",
	}
	if !reflect.DeepEqual(got, expected) {
		t.Errorf("FLASH_EXTRA_IMAGES = %v, want %v", got, expected)
	}
}

func TestParse_JSON(t *testing.T) {
	data := []byte(`{"PROGNAME": "app", "FLASH_EXTRA_IMAGES": [["0x0", "boot.bin"]]}`)

	vars, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if vars["PROGNAME"] != "app" {
		t.Errorf("PROGNAME = %#v, want %q", vars["PROGNAME"], "app")
	}
	if got := Flatten(vars["FLASH_EXTRA_IMAGES"]); !reflect.DeepEqual(got, []string{"0x0", "boot.bin"}) {
		t.Errorf("FLASH_EXTRA_IMAGES = %v", got)
	}
}

func TestParse_Empty(t *testing.T) {
	vars, err := Parse(nil)
	if err != nil {
		t.Fatalf("Parse(nil) error = %v", err)
	}
	if len(vars) != 0 {
		t.Errorf("Parse(nil) = %v, want empty", vars)
	}
}

func TestParse_NullValue(t *testing.T) {
	vars, err := Parse([]byte("FLASH_EXTRA_IMAGES: ~\n"))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if v, ok := vars["FLASH_EXTRA_IMAGES"]; !ok || v != nil {
		t.Errorf("FLASH_EXTRA_IMAGES = %#v, want nil", v)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not a mapping", "- a\n- b\n"},
		{"nested mapping", "BUILD:\n  dir: x\n"},
		{"invalid yaml", "A: [unclosed\n"},
	}

	for _, tc := range tests {
		if _, err := Parse([]byte(tc.data)); err == nil {
			t.Errorf("Parse(%s) error = nil, want error", tc.name)
		}
	}
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	if err := os.WriteFile(path, []byte("PROGNAME: app\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	env, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := env.GetString(KeyProgName, ""); got != "app" {
		t.Errorf("PROGNAME = %q, want %q", got, "app")
	}
	if got := env.GetString(KeyPython, ""); got != "python3" {
		t.Errorf("PYTHONEXE = %q, want default %q", got, "python3")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("Load() error = nil, want error")
	}
}
