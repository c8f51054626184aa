package buildenv

import (
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

var (
	// ErrCommandFailed is returned when an executed command exits non-zero
	// or cannot be started.
	ErrCommandFailed = errors.New("command failed")

	// ErrEmptyCommand is returned when a command substitutes to nothing.
	ErrEmptyCommand = errors.New("empty command")
)

// Runner runs an external process to completion.
type Runner interface {
	Run(argv []string, stdout, stderr io.Writer) error
}

// ExecRunner runs commands as child processes.
type ExecRunner struct{}

// Run starts argv[0] with the remaining arguments and waits for it to exit.
func (ExecRunner) Run(argv []string, stdout, stderr io.Writer) error {
	cmd := exec.Command(argv[0], argv[1:]...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Command substitutes every argument of argv. An argument that is a
// single $NAME or ${NAME} reference to a list expands to one argument per
// list element. Other arguments stay one argument each, so substituted
// paths may contain spaces. Arguments that expand to the empty string are
// dropped, so an unset interpreter variable simply disappears.
func (e *Env) Command(argv []string) []string {
	args := make([]string, 0, len(argv))
	for _, a := range argv {
		args = append(args, e.words(a, 0)...)
	}
	return args
}

func (e *Env) words(token string, depth int) []string {
	if name, ok := wholeRef(token); ok && depth < maxSubstDepth {
		switch v := e.vars[name].(type) {
		case []any, []string:
			var out []string
			for _, item := range Flatten(v) {
				out = append(out, e.words(item, depth+1)...)
			}
			return out
		}
	}

	if s := e.Subst(token); s != "" {
		return []string{s}
	}
	return nil
}

// wholeRef reports whether token is exactly one variable reference.
func wholeRef(token string) (string, bool) {
	if len(token) < 2 || token[0] != '$' {
		return "", false
	}

	name := token[1:]
	if name[0] == '{' {
		if name[len(name)-1] != '}' {
			return "", false
		}
		name = name[1 : len(name)-1]
	}
	if name == "" || !isNameStart(name[0]) {
		return "", false
	}
	for i := 1; i < len(name); i++ {
		if !isNameChar(name[i]) {
			return "", false
		}
	}
	return name, true
}

// Quote joins args into a printable command line, quoting arguments that
// are empty or contain whitespace or quotes.
func Quote(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'") {
			quoted[i] = strconv.Quote(a)
		} else {
			quoted[i] = a
		}
	}
	return strings.Join(quoted, " ")
}

// Execute substitutes argv, echoes it and runs it synchronously.
// A non-zero exit is returned as an error wrapping ErrCommandFailed;
// nothing is retried and no output is cleaned up.
func (e *Env) Execute(argv []string) error {
	args := e.Command(argv)
	if len(args) == 0 {
		return ErrEmptyCommand
	}

	fmt.Fprintln(e.stdout(), Quote(args))

	runner := e.Runner
	if runner == nil {
		runner = ExecRunner{}
	}
	if err := runner.Run(args, e.stdout(), e.stderr()); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrCommandFailed, args[0], err)
	}
	return nil
}

// Logf writes a progress line to the environment's output.
func (e *Env) Logf(format string, args ...any) {
	fmt.Fprintf(e.stdout(), format, args...)
}
