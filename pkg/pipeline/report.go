package pipeline

import (
	"os"

	"sigs.k8s.io/yaml"
)

// Report is the machine readable summary of a batch.
type Report struct {
	Hash    string        `json:"hash,omitempty"`
	DryRun  bool          `json:"dryRun"`
	Results []ReportEntry `json:"results"`
}

type ReportEntry struct {
	Addon         string   `json:"addon"`
	Source        string   `json:"source"`
	Skipped       bool     `json:"skipped,omitempty"`
	UniqueName    string   `json:"uniqueName,omitempty"`
	Bundles       []string `json:"bundles,omitempty"`
	IndexImage    string   `json:"indexImage,omitempty"`
	IndexDigest   string   `json:"indexDigest,omitempty"`
	ImageSets     []string `json:"imageSets,omitempty"`
	MetadataFiles []string `json:"metadataFiles,omitempty"`
	Error         string   `json:"error,omitempty"`
}

// NewReport summarizes results in order.
func NewReport(hash string, dryRun bool, results []Result) Report {
	r := Report{Hash: hash, DryRun: dryRun, Results: make([]ReportEntry, 0, len(results))}
	for _, res := range results {
		entry := ReportEntry{
			Addon:         res.Addon,
			Source:        res.Source.String(),
			Skipped:       res.Skipped,
			UniqueName:    res.UniqueName,
			ImageSets:     res.ImageSets,
			MetadataFiles: res.MetadataFiles,
		}
		for _, b := range res.Bundles {
			entry.Bundles = append(entry.Bundles, b.String())
		}
		if !res.IndexImage.IsZero() {
			entry.IndexImage = res.IndexImage.String()
		}
		if res.IndexDigest != "" {
			entry.IndexDigest = res.IndexDigest.String()
		}
		if res.Err != nil {
			entry.Error = res.Err.Error()
		}
		r.Results = append(r.Results, entry)
	}
	return r
}

// WriteFile stores the report as YAML.
func (r Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
