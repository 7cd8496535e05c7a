package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/andrewlwn77/nocodb-mcp/internal/config"
)

func newInitCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Long: "Create the configuration directory and a config.yaml holding the base URL\n" +
			"and default base. An existing file is left untouched. Tokens are never\n" +
			"written; supply them through the environment or a .env file.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, cfg, err := f.loadConfig()
			if err != nil {
				return err
			}
			path, created, err := config.WriteDefault(configDir, cfg)
			if err != nil {
				return sysError(fmt.Errorf("write config: %w", err))
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "Config already exists at %s\n", path)
			}
			return nil
		},
	}
}
