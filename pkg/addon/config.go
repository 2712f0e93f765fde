package addon

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path"

	"github.com/go-openapi/spec"
	"github.com/go-openapi/strfmt"
	"github.com/go-openapi/validate"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"sigs.k8s.io/yaml"
)

// ConfigFile is the optional addon configuration stored next to the main bundles.
const ConfigFile = "config.yaml"

//go:embed config.schema.json
var configSchemaJSON []byte

// Config is the content of main/config.yaml.
type Config struct {
	Addons []AddonConfig `json:"addons"`
	// OCM is passed through untouched.
	OCM map[string]interface{} `json:"ocm,omitempty"`
}

// AddonConfig names one addon fed by these bundles and the environments it
// is promoted to.
type AddonConfig struct {
	Name         string   `json:"name"`
	Environments []string `json:"environments"`
}

// HasEnvironment reports whether the addon is promoted to env.
func (a AddonConfig) HasEnvironment(env string) bool {
	for _, e := range a.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// AddonsIn returns the configured addons promoted to env, in config order.
func (c *Config) AddonsIn(env string) []AddonConfig {
	var out []AddonConfig
	for _, a := range c.Addons {
		if a.HasEnvironment(env) {
			out = append(out, a)
		}
	}
	return out
}

// MetadataPaths lists the managed-tenants metadata files that track the
// addons of this config. An empty env lists every environment.
func (c *Config) MetadataPaths(env string) []string {
	var paths []string
	for _, a := range c.Addons {
		for _, e := range a.Environments {
			if env != "" && e != env {
				continue
			}
			paths = append(paths, path.Join("addons", a.Name, MetadataDir, e, MetadataFile))
		}
	}
	return paths
}

// LoadConfig reads and validates a config file against the embedded schema.
func LoadConfig(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, err
	}
	return ParseConfig(data)
}

// ParseConfig validates raw YAML against the embedded schema and decodes it.
func ParseConfig(data []byte) (*Config, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validateConfig(doc); err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

func validateConfig(doc interface{}) error {
	schema := &spec.Schema{}
	if err := json.Unmarshal(configSchemaJSON, schema); err != nil {
		return fmt.Errorf("config schema error: %w", err)
	}

	result := validate.NewSchemaValidator(schema, nil, "", strfmt.Default).Validate(doc)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("config schema validation error: %w", utilerrors.NewAggregate(result.Errors))
}
