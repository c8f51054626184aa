package buildenv

import (
	"reflect"
	"testing"
)

func TestNew_AppliesDefaults(t *testing.T) {
	env := New(nil)

	tests := []struct {
		key      string
		expected string
	}{
		{KeyPython, "python3"},
		{KeyObjcopy, "esptool.py"},
		{KeyBuildDir, "."},
		{KeyProgName, "firmware"},
		{KeyAppOffset, "0x10000"},
		{KeyExtraImgs, ""},
	}

	for _, tc := range tests {
		if got := env.GetString(tc.key, "unset"); got != tc.expected {
			t.Errorf("GetString(%q) = %q, want %q", tc.key, got, tc.expected)
		}
	}
}

func TestNew_CallerValuesWin(t *testing.T) {
	env := New(map[string]any{KeyProgName: "app"})
	if got := env.GetString(KeyProgName, ""); got != "app" {
		t.Errorf("GetString(PROGNAME) = %q, want %q", got, "app")
	}
}

func TestGetString_Unset(t *testing.T) {
	env := New(nil)
	if got := env.GetString("NOPE", "fallback"); got != "fallback" {
		t.Errorf("GetString(NOPE) = %q, want %q", got, "fallback")
	}
}

func TestSubst(t *testing.T) {
	env := New(map[string]any{
		"BUILD_DIR": "/out",
		"PROGNAME":  "firmware",
		"NESTED":    "$BUILD_DIR/sub",
		"LIST":      []any{"a", []any{"b", "c"}},
		"SELF":      "$SELF",
	})

	tests := []struct {
		input    string
		expected string
	}{
		{"plain", "plain"},
		{"$BUILD_DIR/${PROGNAME}.bin", "/out/firmware.bin"},
		{"$BUILD_DIR/${PROGNAME}_merged.bin", "/out/firmware_merged.bin"},
		{"$NESTED/x", "/out/sub/x"},
		{"$UNDEFINED", ""},
		{"a${UNDEFINED}b", "ab"},
		{"$$HOME", "$HOME"},
		{"$LIST", "a b c"},
		{"cost: $5", "cost: $5"},
		{"trailing $", "trailing $"},
		{"${BUILD_DIR", "${BUILD_DIR"},
		{"$SELF", ""},
	}

	for _, tc := range tests {
		if got := env.Subst(tc.input); got != tc.expected {
			t.Errorf("Subst(%q) = %q, want %q", tc.input, got, tc.expected)
		}
	}
}

func TestFlatten(t *testing.T) {
	tests := []struct {
		name     string
		input    any
		expected []string
	}{
		{"nil", nil, nil},
		{"scalar", "x", []string{"x"}},
		{"empty list", []any{}, nil},
		{"flat", []any{"0x1000", "boot.bin"}, []string{"0x1000", "boot.bin"}},
		{
			"nested",
			[]any{
				[]any{"0x1000", "boot.bin"},
				[]any{[]any{"0x8000"}, "part.bin"},
				"0xe000", "ota.bin",
			},
			[]string{"0x1000", "boot.bin", "0x8000", "part.bin", "0xe000", "ota.bin"},
		},
		{"string slice", []string{"a", "b"}, []string{"a", "b"}},
		{"number", 42, []string{"42"}},
	}

	for _, tc := range tests {
		got := Flatten(tc.input)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("Flatten(%s) = %v, want %v", tc.name, got, tc.expected)
		}
	}
}

func TestKeys_Sorted(t *testing.T) {
	env := New(map[string]any{"ZZZ": "1", "AAA": "2"})
	keys := env.Keys()
	if keys[0] != "AAA" || keys[len(keys)-1] != "ZZZ" {
		t.Errorf("Keys() = %v, want sorted with AAA first and ZZZ last", keys)
	}
}
