package addon

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"
)

// SourceKind tells how an addon directory delivers its catalog.
type SourceKind int

const (
	// SourceBundles addons carry bundle manifests under main/ and are built here.
	SourceBundles SourceKind = iota
	// SourceIndexImage addons pin a prebuilt index image in their metadata.
	SourceIndexImage
	// SourceImageSet addons reference versioned image sets under addonimagesets/.
	SourceImageSet
)

const (
	ImageSetsDir = "addonimagesets"
	MetadataDir  = "metadata"
	MetadataFile = "addon.yaml"
)

func (k SourceKind) String() string {
	switch k {
	case SourceBundles:
		return "bundles"
	case SourceIndexImage:
		return "indexImage"
	case SourceImageSet:
		return "imageSet"
	default:
		return fmt.Sprintf("SourceKind(%d)", int(k))
	}
}

// Source is the resolved kind of an addon directory.
type Source struct {
	Kind SourceKind
	Path string
	// IndexImage is set for SourceIndexImage.
	IndexImage string
}

// ResolveSource inspects dir once and decides which kind of addon it is.
// main/ wins over addonimagesets/, which wins over a metadata indexImage.
func ResolveSource(dir string) (Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Source{}, err
	}

	if isDir(filepath.Join(abs, MainDir)) {
		return Source{Kind: SourceBundles, Path: abs}, nil
	}
	if isDir(filepath.Join(abs, ImageSetsDir)) {
		return Source{Kind: SourceImageSet, Path: abs}, nil
	}

	files, err := filepath.Glob(filepath.Join(abs, MetadataDir, "*", MetadataFile))
	if err != nil {
		return Source{}, err
	}
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return Source{}, err
		}
		var meta struct {
			IndexImage string `json:"indexImage"`
		}
		if err := yaml.Unmarshal(data, &meta); err != nil {
			return Source{}, &StructureError{Path: f, Err: err}
		}
		if meta.IndexImage != "" {
			return Source{Kind: SourceIndexImage, Path: abs, IndexImage: meta.IndexImage}, nil
		}
	}

	return Source{}, structureErrorf(abs, "expected %s/, %s/ or an indexImage in %s/<env>/%s", MainDir, ImageSetsDir, MetadataDir, MetadataFile)
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}
