// Package config holds the engine configuration: target grammar version,
// schema location, sanitizer rules, and citation heuristic thresholds.
// Values come from an optional YAML file; CLI flags override file values.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Sanitizer configures the attribute sanitizer stage.
type Sanitizer struct {
	// BannedPrefixes lists attribute name prefixes that are never
	// grammar-legal (authoring/tooling metadata conventions).
	BannedPrefixes []string `yaml:"banned_prefixes"`
	// DenyList lists attribute names removed outright.
	DenyList []string `yaml:"deny_list"`
}

// Citations configures the citation-vs-formula heuristic.
type Citations struct {
	// MaxMarkerLength is the longest payload still considered a possible
	// citation marker. Longer content is treated as genuine math.
	MaxMarkerLength int `yaml:"max_marker_length"`
	// MaxRangeSpan bounds how many references a single range marker may
	// expand to before it is flagged ambiguous.
	MaxRangeSpan int `yaml:"max_range_span"`
}

// Config is the full engine configuration.
type Config struct {
	// JATSVersion selects the target Journal Publishing DTD (1.0-1.4).
	JATSVersion string `yaml:"jats_version"`
	// SchemaPath points at the validating XSD. Empty disables schema
	// validation (structural checks still run).
	SchemaPath string `yaml:"schema_path"`
	// SchemaLocation is the value written to the root's
	// xsi:noNamespaceSchemaLocation attribute in the schema variant.
	SchemaLocation string `yaml:"schema_location"`
	// FallbackYear is used for synthesized publication dates. Zero means
	// the current UTC year.
	FallbackYear int       `yaml:"fallback_year"`
	Sanitizer    Sanitizer `yaml:"sanitizer"`
	Citations    Citations `yaml:"citations"`
	// PruneTargets lists container tags removed when they hold no
	// meaningful element children.
	PruneTargets []string `yaml:"prune_targets"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		JATSVersion:    "1.3",
		SchemaLocation: "JATS-journalpublishing-oasis-article1-3-mathml3.xsd",
		Sanitizer: Sanitizer{
			BannedPrefixes: []string{"data-"},
			DenyList:       []string{"class", "style"},
		},
		Citations: Citations{
			MaxMarkerLength: 24,
			MaxRangeSpan:    50,
		},
		PruneTargets: []string{"back", "ack", "glossary"},
	}
}

// Load reads a YAML configuration file, applying defaults for fields the
// file leaves unset.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}
