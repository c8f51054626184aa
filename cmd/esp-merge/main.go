package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bigbag/esp-merge/embedded"
	"github.com/bigbag/esp-merge/internal/artifact"
	"github.com/bigbag/esp-merge/internal/board"
	"github.com/bigbag/esp-merge/internal/buildenv"
	"github.com/bigbag/esp-merge/internal/esptool"
	"github.com/bigbag/esp-merge/internal/merge"
	"github.com/bigbag/esp-merge/internal/serial"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	envFlag       string
	boardFlag     string
	boardFileFlag string
	setFlags      []string
	buildDirFlag  string
	prognameFlag  string
	pythonFlag    string
	toolFlag      string
	appOffsetFlag string
	extraFlags    []string
	dryRunFlag    bool
	checksumFlag  bool
	portFlag      string
	baudFlag      int
	chipFlag      string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "esp-merge",
		Short: "Merge ESP32 build outputs into one flashable image",
		Long: `esp-merge runs after an ESP32 firmware build and combines the bootloader,
partition table and application binary into a single <program>_merged.bin
using esptool's merge_bin. The merged image is written at offset 0x0 and
is suitable for web based flashers.`,
		SilenceUsage: true,
	}

	// Merge command
	mergeCmd := &cobra.Command{
		Use:   "merge [flags] [-- build command...]",
		Short: "Merge the application with the extra flash images",
		Long: `Merge the application binary with the extra flash images of the build.

The build environment file (--env) is a YAML or JSON mapping of build
variables: BUILD_DIR, PROGNAME, PYTHONEXE, OBJCOPY, ESP32_APP_OFFSET and
FLASH_EXTRA_IMAGES (a possibly nested list of offset/path pairs).

If a build command follows "--" it runs first and the merge only happens
when it succeeds and $BUILD_DIR/$PROGNAME.bin exists.`,
		Args: cobra.ArbitraryArgs,
		RunE: runMerge,
	}
	addEnvFlags(mergeCmd)
	addBoardFlags(mergeCmd)
	mergeCmd.Flags().StringVarP(&buildDirFlag, "build-dir", "d", "", "Build output directory (BUILD_DIR)")
	mergeCmd.Flags().StringVarP(&prognameFlag, "progname", "n", "", "Program name (PROGNAME)")
	mergeCmd.Flags().StringVar(&appOffsetFlag, "app-offset", "", "Application flash offset (ESP32_APP_OFFSET)")
	mergeCmd.Flags().StringArrayVarP(&extraFlags, "extra", "e", nil, "Extra flash image as offset=path (repeatable)")
	mergeCmd.Flags().BoolVar(&dryRunFlag, "dry-run", false, "Print the merge command without running it")
	mergeCmd.Flags().BoolVar(&checksumFlag, "checksum", true, "Print size and SHA-256 of the merged image")

	// Flash command
	flashCmd := &cobra.Command{
		Use:   "flash <merged.bin>",
		Short: "Write a merged image to a device",
		Long: `Write a merged image to an ESP32 device at offset 0x0 using esptool.

The port is auto-detected from the USB bridge if --port is not given.`,
		Args: cobra.ExactArgs(1),
		RunE: runFlash,
	}
	addEnvFlags(flashCmd)
	addBoardFlags(flashCmd)
	flashCmd.Flags().StringVarP(&portFlag, "port", "p", "", "Serial port (auto-detect if not specified)")
	flashCmd.Flags().IntVarP(&baudFlag, "baud", "b", esptool.DefaultBaudRate, "Baud rate")
	flashCmd.Flags().StringVarP(&chipFlag, "chip", "c", "", "Chip type (default from board, else esp32)")

	// Boards command
	boardsCmd := &cobra.Command{
		Use:   "boards",
		Short: "List the bundled board manifests",
		RunE:  runBoards,
	}

	// Version command
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Show version info",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "esp-merge %s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "  commit: %s\n", commit)
			fmt.Fprintf(cmd.OutOrStdout(), "  built:  %s\n", date)
		},
	}

	// List command
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List available serial ports",
		RunE:  runList,
	}

	rootCmd.AddCommand(mergeCmd, flashCmd, boardsCmd, versionCmd, listCmd)
	return rootCmd
}

func addEnvFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&envFlag, "env", "", "Build environment file (YAML or JSON)")
	cmd.Flags().StringVar(&pythonFlag, "python", "", "Python interpreter (PYTHONEXE)")
	cmd.Flags().StringVar(&toolFlag, "tool", "", "Path to esptool (OBJCOPY)")
}

func addBoardFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&boardFlag, "board", "", "Bundled board manifest name (see 'boards')")
	cmd.Flags().StringVar(&boardFileFlag, "board-file", "", "PlatformIO board manifest file")
	cmd.Flags().StringArrayVar(&setFlags, "set", nil, "Override a board key as key=value (repeatable)")
}

func runMerge(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	buildCmd, err := buildCommand(cmd, args)
	if err != nil {
		return err
	}

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	if err := applyMergeFlags(env); err != nil {
		return err
	}

	cfg, err := loadBoard()
	if err != nil {
		return err
	}

	o := merge.Register(env, cfg)
	fmt.Fprintf(out, "Chip:       %s\n", esptool.ChipName(o.Chip()))
	fmt.Fprintf(out, "Flash size: %s\n", o.FlashSize())

	if dryRunFlag {
		fmt.Fprintln(out, buildenv.Quote(env.Command(o.Command(env))))
		return nil
	}

	if len(buildCmd) > 0 {
		fmt.Fprintln(out, "Building...")
	}
	if err := env.Build(buildCmd); err != nil {
		return err
	}

	if checksumFlag {
		summary, err := artifact.Summarize(merge.OutputPath(env), cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		summary.Print(out)
	}

	fmt.Fprintln(out, "Done!")
	return nil
}

// buildCommand returns the arguments given after "--".
func buildCommand(cmd *cobra.Command, args []string) ([]string, error) {
	dash := cmd.ArgsLenAtDash()
	switch {
	case dash == -1 && len(args) > 0:
		return nil, fmt.Errorf("unexpected arguments %q (put the build command after --)", args)
	case dash > 0:
		return nil, fmt.Errorf("unexpected arguments %q before --", args[:dash])
	case dash == -1:
		return nil, nil
	}
	return args[dash:], nil
}

func loadEnv(cmd *cobra.Command) (*buildenv.Env, error) {
	env := buildenv.New(nil)
	if envFlag != "" {
		var err error
		env, err = buildenv.Load(envFlag)
		if err != nil {
			return nil, err
		}
	}

	env.Stdout = cmd.OutOrStdout()
	env.Stderr = cmd.ErrOrStderr()

	if pythonFlag != "" {
		env.Set(buildenv.KeyPython, pythonFlag)
	}
	if toolFlag != "" {
		env.Set(buildenv.KeyObjcopy, toolFlag)
	}
	return env, nil
}

func applyMergeFlags(env *buildenv.Env) error {
	if buildDirFlag != "" {
		env.Set(buildenv.KeyBuildDir, buildDirFlag)
	}
	if prognameFlag != "" {
		env.Set(buildenv.KeyProgName, prognameFlag)
	}
	if appOffsetFlag != "" {
		env.Set(buildenv.KeyAppOffset, appOffsetFlag)
	}

	if len(extraFlags) == 0 {
		return nil
	}

	extra, _ := env.Get(buildenv.KeyExtraImgs)
	images := []any{extra}
	for _, e := range extraFlags {
		offset, path, ok := strings.Cut(e, "=")
		if !ok || offset == "" || path == "" {
			return fmt.Errorf("invalid --extra %q (want offset=path)", e)
		}
		images = append(images, []any{offset, path})
	}
	env.Set(buildenv.KeyExtraImgs, images)
	return nil
}

func loadBoard() (*board.Config, error) {
	var (
		cfg *board.Config
		err error
	)

	switch {
	case boardFileFlag != "" && boardFlag != "":
		return nil, errors.New("--board and --board-file are mutually exclusive")
	case boardFileFlag != "":
		cfg, err = board.Load(boardFileFlag)
	case boardFlag != "":
		cfg, err = board.Builtin(boardFlag)
	default:
		cfg = board.Empty()
	}
	if err != nil {
		return nil, err
	}

	for _, s := range setFlags {
		key, value, ok := strings.Cut(s, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --set %q (want key=value)", s)
		}
		cfg = cfg.Override(key, value)
	}
	return cfg, nil
}

func runFlash(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	imagePath := args[0]

	info, err := os.Stat(imagePath)
	if err != nil {
		return fmt.Errorf("failed to read merged image: %w", err)
	}
	fmt.Fprintf(out, "Image: %s (%d bytes)\n", imagePath, info.Size())

	env, err := loadEnv(cmd)
	if err != nil {
		return err
	}

	chip := chipFlag
	if chip == "" {
		cfg, err := loadBoard()
		if err != nil {
			return err
		}
		chip = cfg.Get("build.mcu", board.DefaultMCU)
	}

	// Find or use specified port
	portName := portFlag
	if portName == "" {
		fmt.Fprintln(out, "Detecting device...")
		portName, err = serial.DetectPort()
		if err != nil {
			return fmt.Errorf("device detection failed: %w", err)
		}
		fmt.Fprintf(out, "Found device on %s\n", portName)
	}

	fmt.Fprintf(out, "Port: %s @ %d baud\n", portName, baudFlag)

	argv := esptool.Invocation("$"+buildenv.KeyPython, "$"+buildenv.KeyObjcopy,
		esptool.WriteFlashArgs(esptool.WriteOptions{
			Chip:   chip,
			Port:   portName,
			Baud:   baudFlag,
			Offset: esptool.MergedOffset,
			Path:   imagePath,
		}))
	if err := env.Execute(argv); err != nil {
		return fmt.Errorf("flash failed: %w", err)
	}

	fmt.Fprintln(out, "Done!")
	return nil
}

func runBoards(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	fmt.Fprintln(out, "Bundled boards:")
	for _, name := range embedded.Boards() {
		cfg, err := board.Builtin(name)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-22s %-9s %-5s %s\n",
			name,
			esptool.ChipName(cfg.Get("build.mcu", board.DefaultMCU)),
			cfg.Get("upload.flash_size", board.DefaultFlashSize),
			cfg.Name(),
		)
	}
	return nil
}

func runList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	ports, err := serial.ListDetailed()
	if err != nil {
		// Enumeration needs USB metadata; fall back to names only.
		names, listErr := serial.ListPorts()
		if listErr != nil {
			return err
		}
		for _, n := range names {
			ports = append(ports, serial.PortInfo{Name: n})
		}
	}

	if len(ports) == 0 {
		fmt.Fprintln(out, "No serial ports found")
		return nil
	}

	fmt.Fprintln(out, "Available serial ports:")
	for _, p := range ports {
		if !p.IsUSB {
			fmt.Fprintf(out, "  %s\n", p.Name)
			continue
		}
		line := fmt.Sprintf("  %s  [%s:%s]", p.Name, p.VID, p.PID)
		if b := p.Bridge(); b != "" {
			line += "  " + b
		}
		if p.Product != "" {
			line += "  " + p.Product
		}
		fmt.Fprintln(out, line)
	}

	return nil
}
