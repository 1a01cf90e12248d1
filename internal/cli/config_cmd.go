package cli

import (
	"fmt"

	"changelogcheck/internal/config"
	"changelogcheck/internal/policy"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(cfg *config.Config, configPath *string) *cobra.Command {
	var prSelector string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration the check command would run with, after merging
defaults, the config file, CHANGELOGCHECK_* environment variables and flags.

The output is YAML and can be used as a starting point for ` + config.DefaultFile + `.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := loadConfig(cmd, cfg, *configPath, prSelector); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return exitWith(policy.ExitFatal)
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return err
			}
			return enc.Close()
		},
	}

	bindPolicyFlags(cmd.Flags(), cfg)
	bindTargetFlags(cmd.Flags(), cfg, &prSelector)
	bindSourceFlags(cmd.Flags(), cfg)
	bindOutputFlags(cmd.Flags(), cfg)
	bindRuntimeFlags(cmd.Flags(), cfg)
	return cmd
}
