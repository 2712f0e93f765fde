package root

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mt-sre/managed-tenants-cli/cmd/mtbundles/build"
	"github.com/mt-sre/managed-tenants-cli/cmd/mtbundles/validate"
	"github.com/mt-sre/managed-tenants-cli/cmd/mtbundles/version"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mtbundles",
		Short: "addon bundle and index image builder",
		Long:  "CLI to validate addon operator bundles and build their bundle and index images",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				logrus.SetLevel(logrus.DebugLevel)
			}
			return nil
		},
		SilenceUsage: true,
	}

	cmd.AddCommand(build.NewCmd(), validate.NewCmd(), version.NewCmd())

	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")

	return cmd
}
