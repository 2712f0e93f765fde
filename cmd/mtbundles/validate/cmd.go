package validate

import (
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/kubectl/pkg/util/templates"

	"github.com/mt-sre/managed-tenants-cli/pkg/addon"
	"github.com/mt-sre/managed-tenants-cli/pkg/lib/upgradegraph"
)

type validate struct {
	singleBundle      bool
	contentValidation bool
	requireConfig     bool
	logger            *logrus.Entry
}

func NewCmd() *cobra.Command {
	v := validate{}

	cmd := &cobra.Command{
		Use:   "validate ADDON_DIR...",
		Short: "Validate the bundles and upgrade graph of addons",
		Long: templates.LongDesc(`
			Load every bundle of the given addon directories and check that the
			upgrade graph of each operator is a consistent chain. Every violation
			is reported, nothing is built.
			`),
		Example: templates.Examples(`
			# Validate an addon using replaces/skips upgrade chains
			mtbundles validate addons/reference-addon

			# Validate an addon shipping one bundle per operator
			mtbundles validate addons/reference-addon --single-bundle-per-operator
			`),
		Args: cobra.MinimumNArgs(1),
		PreRun: func(cmd *cobra.Command, args []string) {
			v.logger = logrus.NewEntry(logrus.StandardLogger())
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, dir := range args {
				if err := v.run(dir); err != nil {
					errs = append(errs, err)
				}
			}
			return utilerrors.NewAggregate(errs)
		},
	}

	cmd.Flags().BoolVar(&v.singleBundle, "single-bundle-per-operator", false, "require exactly one bundle per operator, upgrades expressed with olm.skipRange")
	cmd.Flags().BoolVar(&v.contentValidation, "content-validation", false, "lint bundle manifests with the operator-framework validators")
	cmd.Flags().BoolVar(&v.requireConfig, "require-config", false, "fail when main/config.yaml is missing")

	return cmd
}

func (v validate) run(dir string) error {
	logger := v.logger.WithField("addon", dir)

	src, err := addon.ResolveSource(dir)
	if err != nil {
		logger.WithError(err).Error("unable to resolve addon source")
		return err
	}
	if src.Kind != addon.SourceBundles {
		logger.WithField("source", src.Kind.String()).Info("addon does not ship bundles, skipping")
		return nil
	}

	a, err := addon.Load(dir,
		addon.WithSingleBundle(v.singleBundle),
		addon.WithContentValidation(v.contentValidation),
		addon.WithRequireConfig(v.requireConfig),
		addon.WithLogger(logger),
	)
	if err != nil {
		logger.WithError(err).Error("unable to load addon")
		return err
	}

	res := upgradegraph.NewValidator(
		upgradegraph.WithSingleBundle(v.singleBundle),
		upgradegraph.WithLogger(logger),
	).ValidateAddon(a)

	for _, violation := range res.Violations {
		logger.WithFields(logrus.Fields{
			"operator": violation.Operator,
			"csv":      violation.CSV,
			"detail":   violation.Detail,
		}).Error(string(violation.Reason))
	}
	for op, versions := range res.InvalidVersions {
		logger.WithField("operator", op).Errorf("invalid csv versions: %v", versions)
	}
	if !res.Valid() {
		return fmt.Errorf("addon %s: %w", a.Name, res.Err())
	}

	logger.WithField("bundles", len(a.AllBundles())).Info("addon is valid")
	return nil
}
