package containertools

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

const (
	ManifestsLocation = "/manifests/"
	MetadataLocation  = "/metadata/"
)

// BundleDockerfileGenerator renders the dockerfile of a bundle image.
type BundleDockerfileGenerator struct {
	Logger *logrus.Entry
}

func NewBundleDockerfileGenerator(logger *logrus.Entry) *BundleDockerfileGenerator {
	return &BundleDockerfileGenerator{
		Logger: logger,
	}
}

// GenerateBundleDockerfile builds a string representation of a dockerfile
// copying the bundle's manifests and metadata directories into an empty image.
func (g *BundleDockerfileGenerator) GenerateBundleDockerfile(manifestsDir, metadataDir string) string {
	var dockerfile string

	if g.Logger != nil {
		g.Logger.Debug("Generating bundle dockerfile")
	}

	dockerfile += "FROM scratch\n"
	dockerfile += fmt.Sprintf("COPY %s %s\n", manifestsDir, ManifestsLocation)
	dockerfile += fmt.Sprintf("COPY %s %s\n", metadataDir, MetadataLocation)

	return dockerfile
}
