package buildenv

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Well-known variable names.
const (
	KeyPython    = "PYTHONEXE"
	KeyObjcopy   = "OBJCOPY"
	KeyBuildDir  = "BUILD_DIR"
	KeyProgName  = "PROGNAME"
	KeyAppOffset = "ESP32_APP_OFFSET"
	KeyExtraImgs = "FLASH_EXTRA_IMAGES"
)

// maxSubstDepth bounds recursive expansion so self-referencing
// variables terminate.
const maxSubstDepth = 20

// Defaults returns the values applied to variables the caller leaves unset.
func Defaults() map[string]any {
	return map[string]any{
		KeyPython:    "python3",
		KeyObjcopy:   "esptool.py",
		KeyBuildDir:  ".",
		KeyProgName:  "firmware",
		KeyAppOffset: "0x10000",
		KeyExtraImgs: []any{},
	}
}

// Env is the variable table a build hands to its post actions.
// Values are strings or (possibly nested) lists of values.
type Env struct {
	vars    map[string]any
	actions []postAction

	// Stdout and Stderr receive command echo and child process output.
	// Nil means os.Stdout and os.Stderr.
	Stdout io.Writer
	Stderr io.Writer

	// Runner executes commands. Nil means ExecRunner.
	Runner Runner
}

// New creates an Env from vars, filling in Defaults for absent keys.
func New(vars map[string]any) *Env {
	e := &Env{vars: make(map[string]any, len(vars)+6)}
	for k, v := range Defaults() {
		e.vars[k] = v
	}
	for k, v := range vars {
		e.vars[k] = v
	}
	return e
}

// Get returns the raw value stored under key.
func (e *Env) Get(key string) (any, bool) {
	v, ok := e.vars[key]
	return v, ok
}

// GetString returns the value under key flattened to a single string,
// or def when the key is unset.
func (e *Env) GetString(key, def string) string {
	v, ok := e.vars[key]
	if !ok || v == nil {
		return def
	}
	return strings.Join(Flatten(v), " ")
}

// Set stores value under key, replacing any previous value.
func (e *Env) Set(key string, value any) {
	e.vars[key] = value
}

// Keys returns the defined variable names in sorted order.
func (e *Env) Keys() []string {
	keys := make([]string, 0, len(e.vars))
	for k := range e.vars {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Subst expands $NAME and ${NAME} references in s. Undefined names
// expand to the empty string and "$$" yields a literal "$".
func (e *Env) Subst(s string) string {
	return e.subst(s, 0)
}

func (e *Env) subst(s string, depth int) string {
	if !strings.Contains(s, "$") {
		return s
	}

	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}

		next := s[i+1]
		switch {
		case next == '$':
			b.WriteByte('$')
			i++
		case next == '{':
			end := strings.IndexByte(s[i+2:], '}')
			if end < 0 {
				b.WriteString(s[i:])
				return b.String()
			}
			name := s[i+2 : i+2+end]
			b.WriteString(e.expand(name, depth))
			i += end + 2
		case isNameStart(next):
			j := i + 1
			for j < len(s) && isNameChar(s[j]) {
				j++
			}
			b.WriteString(e.expand(s[i+1:j], depth))
			i = j - 1
		default:
			b.WriteByte('$')
		}
	}
	return b.String()
}

func (e *Env) expand(name string, depth int) string {
	v, ok := e.vars[name]
	if !ok || v == nil || depth >= maxSubstDepth {
		return ""
	}
	parts := Flatten(v)
	for i, p := range parts {
		parts[i] = e.subst(p, depth+1)
	}
	return strings.Join(parts, " ")
}

func isNameStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}

// Flatten turns a value of nested lists into a single ordered list.
// Scalars become one-element lists and nil becomes an empty list.
func Flatten(v any) []string {
	var out []string
	flattenInto(&out, v)
	return out
}

func flattenInto(out *[]string, v any) {
	switch t := v.(type) {
	case nil:
	case string:
		*out = append(*out, t)
	case []string:
		*out = append(*out, t...)
	case []any:
		for _, item := range t {
			flattenInto(out, item)
		}
	default:
		*out = append(*out, fmt.Sprint(t))
	}
}

func (e *Env) stdout() io.Writer {
	if e.Stdout != nil {
		return e.Stdout
	}
	return os.Stdout
}

func (e *Env) stderr() io.Writer {
	if e.Stderr != nil {
		return e.Stderr
	}
	return os.Stderr
}
