package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"colorctl/pkg/app"
	"colorctl/pkg/command"
	"colorctl/pkg/logger"
	"colorctl/pkg/serial"
)

// newSendCmd represents the send command
func newSendCmd(flags *globalFlags) *cobra.Command {
	sendCmd := &cobra.Command{
		Use:   "send <command>",
		Short: "Send one command and print the reply",
		Long: `Send a single command without the menu and print the reply.

The command is one of WHITE, PINK, ON, OFF (any case) or a 6-digit hex color.

Examples:
  colorctl send pink -p /dev/ttyUSB0
  colorctl send ff15d8 --simulate`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSend(cmd, flags, args[0])
		},
	}

	addSerialFlags(sendCmd)
	return sendCmd
}

func runSend(cmd *cobra.Command, flags *globalFlags, text string) error {
	c, err := command.Parse(text)
	if err != nil {
		return err
	}

	cfg, _, err := loadConfig(cmd, flags, serialBindings)
	if err != nil {
		return err
	}

	log, cleanup, err := logger.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to set up logging: %w", err)
	}
	defer cleanup()

	if flags.verbose {
		port := cfg.Serial.Port
		if cfg.Simulate {
			port = serial.SimulatorPortName
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Sending %s to %s (%s)\n", c, port, cfg.Serial.Settings())
	}

	result, err := app.RunOnce(app.Options{Config: cfg, Logger: log}, c)
	if err != nil {
		printOpenHints(cmd.ErrOrStderr(), err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.DisplayText())
	return nil
}
