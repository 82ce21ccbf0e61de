package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"colorctl/pkg/config"
)

// Version is the CLI version
const Version = "1.0.0"

// globalFlags holds the persistent flags of the root command
type globalFlags struct {
	configFile string
	verbose    bool
}

// newRootCmd builds the command tree; each call returns fresh flag state
func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "colorctl",
		Short: "Send color commands to a serial lighting controller",
		Long: `colorctl drives a lighting peripheral over a serial line.

It shows a menu of color commands (WHITE/PINK, or ON/OFF, color presets and a
custom hex color), sends the chosen command and displays the one-line reply.`,
		Version:           Version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// Always show help when root command is called without subcommands
			return cmd.Help()
		},
	}

	// Persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&flags.configFile, "config", "c", "",
		fmt.Sprintf("config file (default ./%s, then ~/.%s)", config.FileName, config.FileName))
	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "debug logging")

	// Add subcommands
	rootCmd.AddCommand(newRunCmd(flags))
	rootCmd.AddCommand(newSendCmd(flags))
	rootCmd.AddCommand(newListCmd())
	rootCmd.AddCommand(newConfigCmd(flags))

	return rootCmd
}

// Execute runs the CLI and exits non-zero on error
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// flagBinding maps a config key to a command flag
type flagBinding struct {
	key  string
	flag string
}

// serialBindings are the connection flags shared by run and send
var serialBindings = []flagBinding{
	{"serial.port", "port"},
	{"serial.baud_rate", "baud"},
	{"serial.driver", "driver"},
	{"simulate", "simulate"},
}

// addSerialFlags registers the connection flags
func addSerialFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("port", "p", "", "serial port (e.g. COM3, /dev/ttyUSB0)")
	cmd.Flags().IntP("baud", "b", 115200, "baud rate")
	cmd.Flags().String("driver", "bugst", "serial driver (bugst, tarm)")
	cmd.Flags().Bool("simulate", false, "talk to a built-in peripheral simulator instead of a port")
}

// loadConfig reads the config file and applies the command's flags on top of it
func loadConfig(cmd *cobra.Command, flags *globalFlags, bindings []flagBinding) (*config.Config, *config.Loader, error) {
	loader := config.NewLoader()
	for _, b := range bindings {
		if err := loader.BindFlag(b.key, cmd.Flags().Lookup(b.flag)); err != nil {
			return nil, nil, err
		}
	}

	cfg, err := loader.Load(flags.configFile)
	if err != nil {
		return nil, nil, err
	}

	if flags.verbose {
		cfg.Log.Level = "debug"
	}

	return cfg, loader, nil
}
