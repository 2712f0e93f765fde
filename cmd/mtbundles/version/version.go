package version

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mt-sre/managed-tenants-cli/pkg/version"
)

// NewCmd returns the version command.
func NewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Prints the version of mtbundles",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			info := version.Get()
			logrus.WithFields(logrus.Fields{
				"version":   info.Version,
				"commit":    info.GitCommit,
				"goVersion": info.GoVersion,
			}).Info("mtbundles version")
		},
	}
}
