package bundle

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v2"
)

const (
	ManifestsDir    = "manifests"
	MetadataDir     = "metadata"
	AnnotationsFile = "annotations.yaml"
)

// AnnotationMetadata mirrors the layout of metadata/annotations.yaml.
type AnnotationMetadata struct {
	Annotations map[string]string `yaml:"annotations"`
}

// ReadAnnotations loads the annotations mapping of the bundle rooted at dir.
// Scalar values keep their literal text.
func ReadAnnotations(dir string) (map[string]string, error) {
	path := filepath.Join(dir, MetadataDir, AnnotationsFile)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read %s", path)
	}

	var meta AnnotationMetadata
	if err := yaml.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, "unable to parse %s", path)
	}
	if meta.Annotations == nil {
		return nil, errors.Errorf("%s does not contain an annotations mapping", path)
	}

	return meta.Annotations, nil
}
