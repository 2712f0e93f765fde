package build

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/mt-sre/managed-tenants-cli/pkg/lib/changes"
)

var (
	buildLong = templates.LongDesc(`
		Validate addon bundles, build a bundle image per bundle and an index image
		per addon, and push them.

		Every bundle image is tagged {registry}/{repo}:{version}-{hash}, where repo
		is {addon}-bundle for main bundles and {addon}-{operator}-bundle for
		dependency bundles. Index images are tagged {registry}/{addon}-index:{hash}.

		Addons are processed independently: a failing addon is reported and the
		remaining addons are still built.
		`)

	buildExample = templates.Examples(`
		# Build a single addon without pushing anything
		mtbundles build addon reference-addon --addons-dir addons --dry-run

		# Build the addons changed by the current pull request
		mtbundles build changed --addons-dir addons --dry-run

		# Build the addons changed between GIT_PREVIOUS_COMMIT and GIT_COMMIT and push them
		mtbundles build changed --addons-dir addons --deploy

		# Build every addon against an in-process registry
		mtbundles build all --addons-dir addons --local-registry
		`)
)

// NewCmd returns the build command and its addon, changed and all subcommands.
func NewCmd() *cobra.Command {
	o := newOptions()

	cmd := &cobra.Command{
		Use:     "build",
		Short:   "Build and push addon bundle and index images",
		Long:    buildLong,
		Example: buildExample,
	}
	o.bindFlags(cmd.PersistentFlags())

	cmd.AddCommand(newAddonCmd(o), newChangedCmd(o), newAllCmd(o))
	return cmd
}

func newAddonCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "addon NAME...",
		Short: "Build the named addons",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var dirs []string
			for _, name := range args {
				dir := filepath.Join(o.addonsDir, name)
				if info, err := os.Stat(dir); err != nil || !info.IsDir() {
					return fmt.Errorf("addon %q not found in %s", name, o.addonsDir)
				}
				dirs = append(dirs, dir)
			}
			return o.run(cmd.Context(), dirs)
		},
	}
}

func newChangedCmd(o *options) *cobra.Command {
	var (
		deploy bool
		base   string
	)

	cmd := &cobra.Command{
		Use:   "changed",
		Short: "Build the addons touched by the current change",
		Long: templates.LongDesc(`
			Build the addons containing at least one file changed between the
			merge-base of origin/main and HEAD. With --deploy the range is
			GIT_PREVIOUS_COMMIT...GIT_COMMIT instead.
			`),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := changes.Detector{
				AddonsDir: o.addonsDir,
				Mode:      changes.ModePR,
				Base:      base,
				Logger:    logrus.NewEntry(logrus.StandardLogger()),
			}
			if deploy {
				detector.Mode = changes.ModeDeploy
			}

			dirs, err := detector.ChangedAddons(cmd.Context())
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				logrus.Info("no addon changed, nothing to build")
				return nil
			}
			return o.run(cmd.Context(), dirs)
		},
	}

	cmd.Flags().BoolVar(&deploy, "deploy", false, "compare GIT_PREVIOUS_COMMIT with GIT_COMMIT instead of origin/main with HEAD")
	cmd.Flags().StringVar(&base, "base", "", "revision to compare HEAD with, defaults to "+changes.DefaultBaseRevision)
	return cmd
}

func newAllCmd(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "all",
		Short: "Build every addon",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			dirs, err := addonDirs(o.addonsDir)
			if err != nil {
				return err
			}
			return o.run(cmd.Context(), dirs)
		},
	}
}

func addonDirs(root string) ([]string, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(root, e.Name()))
	}
	sort.Strings(dirs)
	return dirs, nil
}
