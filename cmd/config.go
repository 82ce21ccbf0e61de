package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"colorctl/pkg/config"
)

// newConfigCmd represents the config command
func newConfigCmd(flags *globalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the colorctl configuration file",
		Long: fmt.Sprintf(`Manage the colorctl configuration file.

The file is YAML. It is read from --config, else ./%s, else ~/.%s.
Command line flags override values from the file.`, config.FileName, config.FileName),
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a config file with the default settings",
		Long: fmt.Sprintf(`Write a config file with the default settings.

Example:
  colorctl config init
  colorctl config init ~/.%s --force`, config.FileName),
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := flags.configFile
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				path = config.FileName
			}

			if err := config.WriteDefault(path, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, loader, err := loadConfig(cmd, flags, nil)
			if err != nil {
				return err
			}

			source := loader.Used()
			if source == "" {
				source = "defaults"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "# source: %s\n", source)
			return loader.Dump(cmd.OutOrStdout())
		},
	}

	configCmd.AddCommand(initCmd)
	configCmd.AddCommand(showCmd)

	return configCmd
}
