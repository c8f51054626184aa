package buildenv

import (
	"errors"
	"fmt"
	"os"
)

// ErrTargetMissing is returned when a target with post actions was not
// produced by the build.
var ErrTargetMissing = errors.New("target not built")

// Action is a post-build callback. target is the substituted path of the
// artifact that triggered it.
type Action func(target string, env *Env) error

type postAction struct {
	target string
	action Action
}

// AddPostAction registers action to run once target has been produced.
// target may reference variables; it is substituted when the action fires.
func (e *Env) AddPostAction(target string, action Action) {
	e.actions = append(e.actions, postAction{target: target, action: action})
}

// Build runs buildCmd (if any) and then fires the registered post actions
// in registration order. A failed build fires nothing. A missing target
// stops the pipeline with ErrTargetMissing, and so does the first failing
// action.
func (e *Env) Build(buildCmd []string) error {
	if len(buildCmd) > 0 {
		if err := e.Execute(buildCmd); err != nil {
			return fmt.Errorf("build failed: %w", err)
		}
	}

	for _, pa := range e.actions {
		target := e.Subst(pa.target)

		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			return fmt.Errorf("%w: %s", ErrTargetMissing, target)
		}

		if err := pa.action(target, e); err != nil {
			return err
		}
	}

	return nil
}
