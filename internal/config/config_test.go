package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.JATSVersion != "1.3" {
		t.Errorf("JATSVersion = %q", cfg.JATSVersion)
	}
	if !reflect.DeepEqual(cfg.Sanitizer.BannedPrefixes, []string{"data-"}) {
		t.Errorf("BannedPrefixes = %v", cfg.Sanitizer.BannedPrefixes)
	}
	if !reflect.DeepEqual(cfg.Sanitizer.DenyList, []string{"class", "style"}) {
		t.Errorf("DenyList = %v", cfg.Sanitizer.DenyList)
	}
	if cfg.Citations.MaxMarkerLength != 24 || cfg.Citations.MaxRangeSpan != 50 {
		t.Errorf("citation thresholds = %+v", cfg.Citations)
	}
	if !reflect.DeepEqual(cfg.PruneTargets, []string{"back", "ack", "glossary"}) {
		t.Errorf("PruneTargets = %v", cfg.PruneTargets)
	}
	if cfg.SchemaPath != "" {
		t.Errorf("schema validation should be off by default, path = %q", cfg.SchemaPath)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `jats_version: "1.4"
schema_path: /schemas/jats.xsd
fallback_year: 2020
citations:
  max_marker_length: 32
  max_range_span: 10
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.JATSVersion != "1.4" {
		t.Errorf("JATSVersion = %q", cfg.JATSVersion)
	}
	if cfg.SchemaPath != "/schemas/jats.xsd" {
		t.Errorf("SchemaPath = %q", cfg.SchemaPath)
	}
	if cfg.FallbackYear != 2020 {
		t.Errorf("FallbackYear = %d", cfg.FallbackYear)
	}
	if cfg.Citations.MaxMarkerLength != 32 || cfg.Citations.MaxRangeSpan != 10 {
		t.Errorf("citation thresholds = %+v", cfg.Citations)
	}
	// Fields the file leaves unset keep their defaults.
	if !reflect.DeepEqual(cfg.Sanitizer.BannedPrefixes, []string{"data-"}) {
		t.Errorf("BannedPrefixes = %v", cfg.Sanitizer.BannedPrefixes)
	}
	if !reflect.DeepEqual(cfg.PruneTargets, []string{"back", "ack", "glossary"}) {
		t.Errorf("PruneTargets = %v", cfg.PruneTargets)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("missing file should fail")
	}
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("jats_version: [broken"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("malformed YAML should fail")
	}
}
