// Package testutil writes addon directory fixtures for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/stretchr/testify/require"
	"sigs.k8s.io/yaml"
)

// TB is the part of testing.TB the helpers need. GinkgoT() satisfies it.
type TB interface {
	require.TestingT
	Helper()
	TempDir() string
}

// MainDir is the directory holding the addon's main operator bundles.
const MainDir = "main"

// BundleFixture describes one bundle to write under an addon directory.
type BundleFixture struct {
	// Operator is the operator directory, MainDir for the main operator.
	Operator string
	// Dir is the version directory name.
	Dir string
	// CSVName defaults to <operator>.v<Dir>.
	CSVName string
	// CSVVersion defaults to Dir. Use NoVersion to omit spec.version.
	CSVVersion string
	// CSVFile defaults to <operator>.clusterserviceversion.yaml.
	CSVFile  string
	Replaces string
	// NullReplaces writes an explicit `replaces: null`.
	NullReplaces bool
	Skips        []string
	// EmptySkips writes an explicit `skips: []`.
	EmptySkips  bool
	SkipRange   string
	Annotations map[string]string
	// RawAnnotations, when set, is written verbatim as annotations.yaml.
	RawAnnotations string
}

// NoVersion omits spec.version from the generated CSV.
const NoVersion = "-"

// WriteBundle writes the bundle described by f below addonDir and returns
// the bundle path.
func WriteBundle(t TB, addonDir string, f BundleFixture) string {
	t.Helper()

	operator := f.Operator
	if operator == "" {
		operator = MainDir
	}
	name := operatorName(addonDir, operator)

	dir := filepath.Join(addonDir, operator, f.Dir)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "manifests"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "metadata"), 0o755))

	annotations := f.RawAnnotations
	if annotations == "" {
		values := map[string]string{
			"operators.operatorframework.io.bundle.mediatype.v1": "registry+v1",
			"operators.operatorframework.io.bundle.manifests.v1": "manifests/",
			"operators.operatorframework.io.bundle.metadata.v1":  "metadata/",
			"operators.operatorframework.io.bundle.package.v1":   name,
			"operators.operatorframework.io.bundle.channels.v1":  "alpha",
		}
		for k, v := range f.Annotations {
			values[k] = v
		}
		data, err := yaml.Marshal(map[string]interface{}{"annotations": values})
		require.NoError(t, err)
		annotations = string(data)
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata", "annotations.yaml"), []byte(annotations), 0o644))

	csvFile := f.CSVFile
	if csvFile == "" {
		csvFile = name + ".clusterserviceversion.yaml"
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "manifests", csvFile), CSV(name, f), 0o644))

	return dir
}

// CSV renders a minimal ClusterServiceVersion manifest for f.
func CSV(operatorName string, f BundleFixture) []byte {
	csvName := f.CSVName
	if csvName == "" {
		csvName = fmt.Sprintf("%s.v%s", operatorName, f.Dir)
	}

	metadata := map[string]interface{}{"name": csvName}
	if f.SkipRange != "" {
		metadata["annotations"] = map[string]interface{}{"olm.skipRange": f.SkipRange}
	}

	spec := map[string]interface{}{
		"displayName": operatorName,
		"installModes": []interface{}{
			map[string]interface{}{"type": "OwnNamespace", "supported": true},
			map[string]interface{}{"type": "SingleNamespace", "supported": true},
			map[string]interface{}{"type": "MultiNamespace", "supported": false},
			map[string]interface{}{"type": "AllNamespaces", "supported": true},
		},
		"install": map[string]interface{}{
			"strategy": "deployment",
			"spec": map[string]interface{}{
				"deployments": []interface{}{},
			},
		},
	}
	switch f.CSVVersion {
	case "":
		spec["version"] = f.Dir
	case NoVersion:
	default:
		spec["version"] = f.CSVVersion
	}
	switch {
	case f.NullReplaces:
		spec["replaces"] = nil
	case f.Replaces != "":
		spec["replaces"] = f.Replaces
	}
	switch {
	case f.EmptySkips:
		spec["skips"] = []string{}
	case len(f.Skips) > 0:
		spec["skips"] = f.Skips
	}

	data, err := yaml.Marshal(map[string]interface{}{
		"apiVersion": "operators.coreos.com/v1alpha1",
		"kind":       "ClusterServiceVersion",
		"metadata":   metadata,
		"spec":       spec,
	})
	if err != nil {
		panic(err)
	}
	return data
}

// WriteFile writes content to path below dir, creating parents.
func WriteFile(t TB, dir, path, content string) string {
	t.Helper()

	full := filepath.Join(dir, path)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
	return full
}

func operatorName(addonDir, operator string) string {
	if operator == MainDir {
		return filepath.Base(addonDir)
	}
	return operator
}
