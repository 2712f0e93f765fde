package bundle

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/blang/semver/v4"
	"github.com/pkg/errors"
	yamlv2 "gopkg.in/yaml.v2"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/util/yaml"
)

const (
	ClusterServiceVersionKind = "ClusterServiceVersion"

	// SkipRangeAnnotationKey is the CSV annotation declaring the version
	// interval a bundle can directly upgrade from.
	SkipRangeAnnotationKey = "olm.skipRange"
)

// CSVSuffixes are the file name suffixes recognized as CSV manifests.
var CSVSuffixes = []string{
	".csv.yml",
	".csv.yaml",
	".clusterserviceversion.yml",
	".clusterserviceversion.yaml",
}

// ClusterServiceVersion holds the upgrade metadata of a single operator
// manifest. It is parsed once and never mutated.
type ClusterServiceVersion struct {
	// Path is the manifest file the CSV was read from, if any.
	Path string

	name         string
	version      string
	replaces     string
	replacesSet  bool
	skips        []string
	skipsSet     bool
	skipRange    string
	skipRangeSet bool
}

// NewClusterServiceVersion extracts the upgrade metadata from a decoded CSV object.
func NewClusterServiceVersion(obj *unstructured.Unstructured) (*ClusterServiceVersion, error) {
	if obj == nil {
		return nil, errors.New("nil object")
	}
	if kind := obj.GetKind(); kind != "" && kind != ClusterServiceVersionKind {
		return nil, errors.Errorf("expected kind %s, got %s", ClusterServiceVersionKind, kind)
	}

	csv := &ClusterServiceVersion{name: obj.GetName()}

	if v, found, _ := unstructured.NestedFieldNoCopy(obj.Object, "spec", "version"); found && v != nil {
		// integers keep their text; floats lose trailing zeros here, see
		// ReadClusterServiceVersion
		csv.version = fmt.Sprint(v)
	}

	if v, found, _ := unstructured.NestedFieldNoCopy(obj.Object, "spec", "replaces"); found && v != nil {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Errorf("csv %s: spec.replaces must be a string, got %T", csv.name, v)
		}
		csv.replaces = s
		csv.replacesSet = true
	}

	if v, found, _ := unstructured.NestedFieldNoCopy(obj.Object, "spec", "skips"); found && v != nil {
		skips, ok, err := unstructured.NestedStringSlice(obj.Object, "spec", "skips")
		if err != nil || !ok {
			return nil, errors.Errorf("csv %s: spec.skips must be a list of strings", csv.name)
		}
		csv.skips = skips
		csv.skipsSet = true
	}

	if v, found, _ := unstructured.NestedFieldNoCopy(obj.Object, "metadata", "annotations", SkipRangeAnnotationKey); found && v != nil {
		csv.skipRange = fmt.Sprint(v)
		csv.skipRangeSet = true
	}

	return csv, nil
}

// Name returns metadata.name, the node identifier in the upgrade graph.
func (c *ClusterServiceVersion) Name() string {
	return c.name
}

// Version returns the literal spec.version.
func (c *ClusterServiceVersion) Version() string {
	return c.version
}

// SemverVersion parses spec.version with strict semver grammar.
func (c *ClusterServiceVersion) SemverVersion() (semver.Version, error) {
	return semver.Parse(c.version)
}

// Replaces returns spec.replaces, or the empty string when unset.
func (c *ClusterServiceVersion) Replaces() string {
	return c.replaces
}

// ReplacesSet reports whether spec.replaces is present and not null.
func (c *ClusterServiceVersion) ReplacesSet() bool {
	return c.replacesSet
}

// Skips returns a copy of spec.skips.
func (c *ClusterServiceVersion) Skips() []string {
	if len(c.skips) == 0 {
		return nil
	}
	return append([]string(nil), c.skips...)
}

// SkipsSet reports whether spec.skips is present and not null.
func (c *ClusterServiceVersion) SkipsSet() bool {
	return c.skipsSet
}

// SkipRange returns the olm.skipRange annotation and whether it is set.
func (c *ClusterServiceVersion) SkipRange() (string, bool) {
	return c.skipRange, c.skipRangeSet
}

func (c *ClusterServiceVersion) String() string {
	return fmt.Sprintf("CSV(name=%s, version=%s, path=%s)", c.name, c.version, c.Path)
}

// IsCSVFile reports whether a file name carries one of the CSV suffixes.
func IsCSVFile(name string) bool {
	for _, suffix := range CSVSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// FindCSVFile returns the single CSV manifest in manifestsDir. Zero or more
// than one candidate is an error.
func FindCSVFile(manifestsDir string) (string, error) {
	entries, err := os.ReadDir(manifestsDir)
	if err != nil {
		return "", errors.Wrapf(err, "unable to read manifests directory %s", manifestsDir)
	}

	var found []string
	for _, e := range entries {
		if e.IsDir() || !IsCSVFile(e.Name()) {
			continue
		}
		found = append(found, filepath.Join(manifestsDir, e.Name()))
	}

	switch len(found) {
	case 0:
		return "", errors.Errorf("could not find csv manifest in %s, tried the following suffixes: %v", manifestsDir, CSVSuffixes)
	case 1:
		return found[0], nil
	default:
		return "", errors.Errorf("exactly one csv manifest must exist in %s, found %d: %v", manifestsDir, len(found), found)
	}
}

// ReadClusterServiceVersion locates and decodes the CSV manifest of a bundle.
func ReadClusterServiceVersion(manifestsDir string) (*ClusterServiceVersion, error) {
	path, err := FindCSVFile(manifestsDir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	obj := &unstructured.Unstructured{}
	decoder := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(data), 30)
	if err := decoder.Decode(&obj.Object); err != nil {
		return nil, errors.Wrapf(err, "failed to parse %s", path)
	}

	csv, err := NewClusterServiceVersion(obj)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid csv %s", path)
	}
	csv.Path = path
	if literal := literalVersion(data); literal != "" {
		csv.version = literal
	}

	return csv, nil
}

// literalVersion returns spec.version exactly as written, so that
// `version: 1.10` stays "1.10".
func literalVersion(data []byte) string {
	var doc struct {
		Spec struct {
			Version string `yaml:"version"`
		} `yaml:"spec"`
	}
	if err := yamlv2.Unmarshal(data, &doc); err != nil {
		return ""
	}
	return doc.Spec.Version
}
