package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"colorctl/pkg/app"
	"colorctl/pkg/logger"
)

// isTerminal reports whether stdin and stdout are attached to a terminal
var isTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// newRunCmd represents the run command
func newRunCmd(flags *globalFlags) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Open the color menu on a serial port",
		Long: `Open the interactive color menu.

Keys:
  Up/Down, j/k     move
  Enter, 1-9       select
  Esc, Backspace   back (quits from the menu)

Examples:
  # WHITE/PINK menu on the default port
  colorctl run

  # ON/OFF, presets and custom hex on /dev/ttyACM0
  colorctl run -p /dev/ttyACM0 --variant b

  # Try the menu without hardware
  colorctl run --simulate --variant b`,
		Args:    cobra.NoArgs,
		Aliases: []string{"connect", "open"},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMenu(cmd, flags)
		},
	}

	addSerialFlags(runCmd)
	runCmd.Flags().String("variant", "a", "menu variant: a (WHITE/PINK) or b (ON/OFF, presets, custom hex)")

	return runCmd
}

func runMenu(cmd *cobra.Command, flags *globalFlags) error {
	bindings := append([]flagBinding{{"menu.variant", "variant"}}, serialBindings...)
	cfg, _, err := loadConfig(cmd, flags, bindings)
	if err != nil {
		return err
	}

	if !isTerminal() {
		return fmt.Errorf("run needs an interactive terminal; use 'colorctl send' for scripts")
	}

	log, cleanup, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()

	runner := app.NewRunner(app.Options{Config: cfg, Logger: log}, cmd.OutOrStdout())
	if err := runner.Run(); err != nil {
		printOpenHints(cmd.ErrOrStderr(), err)
		return err
	}

	return nil
}

// printOpenHints suggests fixes for a port that could not be opened
func printOpenHints(w io.Writer, err error) {
	var appErr *app.AppError
	if !errors.As(err, &appErr) || appErr.Type != app.ErrorSerial {
		return
	}

	errStr := strings.ToLower(err.Error())
	var hints []string
	if strings.Contains(errStr, "permission") || strings.Contains(errStr, "access") {
		hints = append(hints,
			"Check if you have permission to access the port",
			"On Linux: add your user to the 'dialout' group: sudo usermod -a -G dialout $USER")
	}
	if strings.Contains(errStr, "busy") || strings.Contains(errStr, "in use") {
		hints = append(hints,
			"The port may be in use by another application",
			"Close other terminal programs or serial monitors")
	}
	if strings.Contains(errStr, "not found") || strings.Contains(errStr, "no such") {
		hints = append(hints,
			"The specified port does not exist",
			"Use 'colorctl list' to see available ports, or --simulate to run without hardware")
	}

	if len(hints) == 0 {
		return
	}
	fmt.Fprintf(w, "\nPossible solutions:\n")
	for _, h := range hints {
		fmt.Fprintf(w, "  - %s\n", h)
	}
}
