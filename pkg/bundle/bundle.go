package bundle

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/blang/semver/v4"

	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

// ErrImageAlreadySet is returned when an image is assigned to a bundle twice.
var ErrImageAlreadySet = errors.New("bundle image already set")

// Bundle is one versioned operator manifest set on disk:
// <path>/manifests/*.clusterserviceversion.yaml and <path>/metadata/annotations.yaml.
type Bundle struct {
	AddonName    string
	OperatorName string
	Version      semver.Version
	Path         string
	Annotations  map[string]string
	CSV          *ClusterServiceVersion

	mu    sync.Mutex
	image image.Reference
}

// New loads the bundle rooted at path. The final path element is the
// bundle version and must be strict semver.
func New(addonName, operatorName, path string) (*Bundle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	version, err := semver.Parse(filepath.Base(abs))
	if err != nil {
		return nil, fmt.Errorf("bundle directory name %q is not a valid semver version: %w", filepath.Base(abs), err)
	}

	annotations, err := ReadAnnotations(abs)
	if err != nil {
		return nil, err
	}

	csv, err := ReadClusterServiceVersion(filepath.Join(abs, ManifestsDir))
	if err != nil {
		return nil, err
	}
	if csv.Version() == "" {
		return nil, fmt.Errorf("csv %s: spec.version is not set", csv.Path)
	}
	if strings.HasPrefix(csv.Version(), "v") {
		return nil, fmt.Errorf("csv %s: spec.version %q must not start with 'v'", csv.Path, csv.Version())
	}

	return &Bundle{
		AddonName:    addonName,
		OperatorName: operatorName,
		Version:      version,
		Path:         abs,
		Annotations:  annotations,
		CSV:          csv,
	}, nil
}

// IsMain reports whether this bundle belongs to the addon's main operator.
func (b *Bundle) IsMain() bool {
	return b.OperatorName == b.AddonName
}

// RepoName returns the image repository name for the bundle.
func (b *Bundle) RepoName() string {
	if b.IsMain() {
		return MainRepoName(b.AddonName)
	}
	return DependencyRepoName(b.AddonName, b.OperatorName)
}

// Image returns the built image reference and whether one is set.
func (b *Bundle) Image() (image.Reference, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.image, !b.image.IsZero()
}

// SetImage records the built image. It succeeds exactly once.
func (b *Bundle) SetImage(ref image.Reference) error {
	if ref.IsZero() {
		return errors.New("empty image reference")
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.image.IsZero() {
		return fmt.Errorf("%s: %w (%s)", b, ErrImageAlreadySet, b.image)
	}
	b.image = ref
	return nil
}

func (b *Bundle) String() string {
	return fmt.Sprintf("Bundle(addon=%s, operator=%s, version=%s)", b.AddonName, b.OperatorName, b.Version)
}

// MainRepoName is the repository of the addon's main bundles.
func MainRepoName(addonName string) string {
	return addonName + "-bundle"
}

// DependencyRepoName is the repository of a dependency operator's bundles.
func DependencyRepoName(addonName, operatorName string) string {
	return addonName + "-" + operatorName + "-bundle"
}

// IndexRepoName is the repository of the addon's index image.
func IndexRepoName(addonName string) string {
	return addonName + "-index"
}
