package addon

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/mt-sre/managed-tenants-cli/pkg/bundle"
)

// MainDir holds the bundles of the addon's main operator.
const MainDir = "main"

// reservedDirs are addon subdirectories that never hold dependency operators.
var reservedDirs = sets.New(MainDir, ImageSetsDir, MetadataDir)

// AddonBundles is the parsed bundle tree of one addon directory:
//
//	reference-addon
//	├── main
//	│   ├── 0.1.0
//	│   └── 0.2.0
//	└── dep-operator
//	    └── 4.8.0
type AddonBundles struct {
	Root         string
	Name         string
	Main         []*bundle.Bundle
	Dependencies []*bundle.Bundle
	// Config is nil when main/config.yaml does not exist.
	Config *Config
}

type loadOptions struct {
	singleBundle      bool
	contentValidation bool
	requireConfig     bool
	logger            *logrus.Entry
}

type LoadOption func(*loadOptions)

// WithSingleBundle requires exactly one bundle per operator.
func WithSingleBundle(single bool) LoadOption {
	return func(o *loadOptions) {
		o.singleBundle = single
	}
}

// WithContentValidation lints every bundle with the operator-framework validators.
func WithContentValidation(enabled bool) LoadOption {
	return func(o *loadOptions) {
		o.contentValidation = enabled
	}
}

// WithRequireConfig makes a missing main/config.yaml an error.
func WithRequireConfig(required bool) LoadOption {
	return func(o *loadOptions) {
		o.requireConfig = required
	}
}

func WithLogger(logger *logrus.Entry) LoadOption {
	return func(o *loadOptions) {
		o.logger = logger
	}
}

// Load parses root into an AddonBundles. The first structural violation
// found is returned as a *StructureError.
func Load(root string, opts ...LoadOption) (*AddonBundles, error) {
	o := loadOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = logrus.NewEntry(logrus.StandardLogger())
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to resolve %s", root)
	}
	a := &AddonBundles{
		Root: abs,
		Name: filepath.Base(abs),
	}
	logger := o.logger.WithField("addon", a.Name)

	mainDir := filepath.Join(abs, MainDir)
	if info, err := os.Stat(mainDir); err != nil || !info.IsDir() {
		return nil, structureErrorf(abs, "%s does not exist", mainDir)
	}

	if a.Main, err = loadOperator(a.Name, a.Name, mainDir, o, logger); err != nil {
		return nil, err
	}

	operatorDirs, err := subdirs(abs)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", abs)
	}
	for _, dir := range operatorDirs {
		if reservedDirs.Has(filepath.Base(dir)) {
			continue
		}
		bundles, err := loadOperator(a.Name, filepath.Base(dir), dir, o, logger)
		if err != nil {
			return nil, err
		}
		a.Dependencies = append(a.Dependencies, bundles...)
	}

	configFile := filepath.Join(mainDir, ConfigFile)
	switch cfg, err := LoadConfig(configFile); {
	case err == nil:
		a.Config = cfg
	case os.IsNotExist(errors.Cause(err)):
		if o.requireConfig {
			return nil, structureErrorf(configFile, "missing config file")
		}
		logger.Debugf("no %s found", configFile)
	default:
		return nil, &StructureError{Path: configFile, Err: err}
	}

	logger.WithFields(logrus.Fields{
		"main":         len(a.Main),
		"dependencies": len(a.Dependencies),
	}).Debug("loaded addon bundles")

	return a, nil
}

func loadOperator(addonName, operatorName, operatorDir string, o loadOptions, logger *logrus.Entry) ([]*bundle.Bundle, error) {
	dirs, err := subdirs(operatorDir)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", operatorDir)
	}

	if o.singleBundle && len(dirs) != 1 {
		return nil, structureErrorf(operatorDir, "expected exactly 1 bundle, but found %d bundles (single-bundle-per-operator pattern)", len(dirs))
	}
	if len(dirs) == 0 {
		return nil, structureErrorf(operatorDir, "contains zero bundles")
	}

	bundles := make([]*bundle.Bundle, 0, len(dirs))
	for _, dir := range dirs {
		b, err := bundle.New(addonName, operatorName, dir)
		if err != nil {
			return nil, &StructureError{Path: dir, Err: err}
		}
		if o.contentValidation {
			if err := bundle.ValidateContent(b, logger); err != nil {
				return nil, &StructureError{Path: dir, Err: err}
			}
		}
		logger.WithFields(logrus.Fields{
			"operator": operatorName,
			"bundle":   b.Version.String(),
		}).Debug("loaded bundle")
		bundles = append(bundles, b)
	}

	sort.SliceStable(bundles, func(i, j int) bool {
		return bundles[i].Version.LT(bundles[j].Version)
	})

	return bundles, nil
}

// subdirs lists the non-hidden directories directly below dir.
func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		dirs = append(dirs, filepath.Join(dir, e.Name()))
	}
	return dirs, nil
}

// AllBundles returns the main bundles followed by the dependency bundles.
func (a *AddonBundles) AllBundles() []*bundle.Bundle {
	all := make([]*bundle.Bundle, 0, len(a.Main)+len(a.Dependencies))
	all = append(all, a.Main...)
	return append(all, a.Dependencies...)
}

// LatestVersion is the highest main bundle version.
func (a *AddonBundles) LatestVersion() semver.Version {
	var latest semver.Version
	for _, b := range a.Main {
		if b.Version.GT(latest) {
			latest = b.Version
		}
	}
	return latest
}

// UniqueName identifies one build of the addon, e.g. reference-addon-0.2.0-abc1234.
func (a *AddonBundles) UniqueName(hash string) string {
	return fmt.Sprintf("%s-%s-%s", a.Name, a.LatestVersion(), hash)
}

// Operators groups every bundle by operator name. Bundles keep ascending
// version order.
func (a *AddonBundles) Operators() map[string][]*bundle.Bundle {
	ops := make(map[string][]*bundle.Bundle)
	for _, b := range a.AllBundles() {
		ops[b.OperatorName] = append(ops[b.OperatorName], b)
	}
	return ops
}

func (a *AddonBundles) String() string {
	return fmt.Sprintf("AddonBundles(root=%s, addon=%s, latest=%s)", a.Root, a.Name, a.LatestVersion())
}
