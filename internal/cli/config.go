package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewConfigCommand creates the config command.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Long: `Print the configuration after defaults, the --config file and
environment overrides have been applied. The output is valid input for
--config.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			f := rootOpts.Formatter(cmd)
			if f.JSON() {
				return f.Success(rootOpts.Config)
			}
			data, err := rootOpts.Config.Encode()
			if err != nil {
				return WrapExitError(ExitFailure, "failed to encode configuration", err)
			}
			fmt.Fprint(f.Writer, string(data))
			return nil
		},
	}
}
