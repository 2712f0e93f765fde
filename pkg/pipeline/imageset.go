package pipeline

import (
	"fmt"
	"os"
	"path/filepath"

	"sigs.k8s.io/yaml"

	"github.com/mt-sre/managed-tenants-cli/pkg/addon"
	"github.com/mt-sre/managed-tenants-cli/pkg/image"
)

// ocmImageSetKeys are the config.yaml ocm entries copied into image sets.
var ocmImageSetKeys = []string{"addOnParameters", "addOnRequirements", "subOperators", "subscriptionConfig"}

// ImageSet pins one addon version to the index image built for it.
type ImageSet struct {
	Name          string   `json:"name"`
	IndexImage    string   `json:"indexImage"`
	RelatedImages []string `json:"relatedImages"`

	AddOnParameters    interface{} `json:"addOnParameters,omitempty"`
	AddOnRequirements  interface{} `json:"addOnRequirements,omitempty"`
	SubOperators       interface{} `json:"subOperators,omitempty"`
	SubscriptionConfig interface{} `json:"subscriptionConfig"`
}

// NewImageSets returns one image set per configured addon promoted to env,
// each named {addon}.v{latest}. Without a config the addon directory name is
// used and env is not checked.
func NewImageSets(a *addon.AddonBundles, index image.Reference, env string) []ImageSet {
	if a.Config == nil {
		return []ImageSet{newImageSet(a, a.Name, index)}
	}

	var sets []ImageSet
	for _, cfg := range a.Config.AddonsIn(env) {
		sets = append(sets, newImageSet(a, cfg.Name, index))
	}
	return sets
}

func newImageSet(a *addon.AddonBundles, name string, index image.Reference) ImageSet {
	set := ImageSet{
		Name:               fmt.Sprintf("%s.v%s", name, a.LatestVersion()),
		IndexImage:         index.String(),
		RelatedImages:      []string{},
		SubscriptionConfig: map[string]interface{}{"env": []interface{}{}},
	}
	if a.Config == nil {
		return set
	}

	if images, ok := a.Config.OCM["relatedImages"].([]interface{}); ok {
		for _, img := range images {
			if s, ok := img.(string); ok && s != "" {
				set.RelatedImages = append(set.RelatedImages, s)
			}
		}
	}

	for _, key := range ocmImageSetKeys {
		val, ok := a.Config.OCM[key]
		if !ok || val == nil {
			continue
		}
		switch key {
		case "addOnParameters":
			set.AddOnParameters = val
		case "addOnRequirements":
			set.AddOnRequirements = val
		case "subOperators":
			set.SubOperators = val
		case "subscriptionConfig":
			set.SubscriptionConfig = val
		}
	}
	return set
}

// WriteImageSet stores set as <addonDir>/addonimagesets/<env>/<name>.yaml and
// returns the written path.
func WriteImageSet(addonDir, env string, set ImageSet) (string, error) {
	data, err := yaml.Marshal(set)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(addonDir, addon.ImageSetsDir, env)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, set.Name+".yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
