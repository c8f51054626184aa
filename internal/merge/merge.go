// Package merge combines the application binary with the extra flash
// images of a build into one image that can be flashed at offset 0.
package merge

import (
	"fmt"

	"github.com/bigbag/esp-merge/internal/board"
	"github.com/bigbag/esp-merge/internal/buildenv"
	"github.com/bigbag/esp-merge/internal/esptool"
)

// Paths of the application binary and the merged output, relative to the
// build environment.
const (
	AppBin    = "$BUILD_DIR/${PROGNAME}.bin"
	MergedBin = "$BUILD_DIR/${PROGNAME}_merged.bin"
)

// BoardConfig is the part of a board manifest the merge reads.
type BoardConfig interface {
	Get(key, def string) string
}

// Orchestrator runs esptool merge_bin after the application is built.
type Orchestrator struct {
	board BoardConfig
}

// New creates an Orchestrator for the given board.
func New(b BoardConfig) *Orchestrator {
	if b == nil {
		b = board.Empty()
	}
	return &Orchestrator{board: b}
}

// Register creates an Orchestrator and hooks it onto the application binary.
func Register(env *buildenv.Env, b BoardConfig) *Orchestrator {
	o := New(b)
	env.AddPostAction(AppBin, o.Run)
	return o
}

// Chip returns the esptool chip identifier of the board.
func (o *Orchestrator) Chip() string {
	return o.board.Get("build.mcu", board.DefaultMCU)
}

// FlashSize returns the size the merged image is padded to.
func (o *Orchestrator) FlashSize() string {
	return o.board.Get("upload.flash_size", board.DefaultFlashSize)
}

// Images returns the flattened extra images followed by the application
// offset and binary. The application always comes last so it wins any
// overlap.
func (o *Orchestrator) Images(env *buildenv.Env) []string {
	extra, _ := env.Get(buildenv.KeyExtraImgs)
	images := buildenv.Flatten(extra)
	return append(images, "$"+buildenv.KeyAppOffset, AppBin)
}

// Command returns the unsubstituted merge command line.
func (o *Orchestrator) Command(env *buildenv.Env) []string {
	args := esptool.MergeArgs(esptool.MergeOptions{
		Chip:      o.Chip(),
		FlashSize: o.FlashSize(),
		Output:    MergedBin,
		Images:    o.Images(env),
	})
	return esptool.Invocation("$"+buildenv.KeyPython, "$"+buildenv.KeyObjcopy, args)
}

// Run executes the merge. It has the buildenv.Action signature so it can
// be registered as a post action; target is not used. A failing merge
// is returned as is and any partial output is left in place.
func (o *Orchestrator) Run(target string, env *buildenv.Env) error {
	env.Logf("Merging images into %s...\n", OutputPath(env))
	if err := env.Execute(o.Command(env)); err != nil {
		return fmt.Errorf("merge failed: %w", err)
	}
	return nil
}

// OutputPath returns the substituted path of the merged image.
func OutputPath(env *buildenv.Env) string {
	return env.Subst(MergedBin)
}

// AppBinary returns the substituted path of the application binary.
func AppBinary(env *buildenv.Env) string {
	return env.Subst(AppBin)
}
