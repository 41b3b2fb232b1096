// Command jatsfix repairs converter-produced JATS XML into schema-legal,
// checker-compliant documents. It emits the schema variant, the DTD variant
// required by the style checker, and a machine-readable compliance report.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/jatsfix/jatsfix/core/archive"
	"github.com/jatsfix/jatsfix/core/engine"
	"github.com/jatsfix/jatsfix/core/repair"
	"github.com/jatsfix/jatsfix/internal/config"
	"github.com/jatsfix/jatsfix/internal/logging"
)

const version = "0.2.0"

// CLI defines the command-line interface for jatsfix.
var CLI struct {
	Config    string `help:"Path to YAML configuration file" type:"path"`
	LogLevel  string `name:"log-level" default:"info" enum:"debug,info,warn,error" help:"Log level"`
	LogFormat string `name:"log-format" default:"text" enum:"text,json" help:"Log format"`

	Repair   RepairCmd   `cmd:"" help:"Repair a document and write both variants plus the report"`
	Validate ValidateCmd `cmd:"" help:"Repair in memory and print the compliance report only"`
	Package  PackageCmd  `cmd:"" help:"Bundle repair outputs into a compressed archive"`
	Version  VersionCmd  `cmd:"" help:"Print version information"`
}

// RepairCmd repairs one document.
type RepairCmd struct {
	Input  string `arg:"" help:"Input XML file" type:"existingfile"`
	OutDir string `name:"out-dir" short:"o" default:"." help:"Output directory" type:"path"`
	Bundle bool   `help:"Also write a bundle.tar.xz with a digest manifest"`
}

// Run implements the repair command.
func (c *RepairCmd) Run(cfg *config.Config) error {
	result, err := processFile(cfg, c.Input)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(c.OutDir, 0755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	reportJSON, err := result.Report.JSON()
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}

	outputs := map[string][]byte{
		engine.SchemaVariantName: result.SchemaXML,
		engine.DTDVariantName:    result.DTDXML,
		"report.json":            reportJSON,
	}
	for name, data := range outputs {
		path := filepath.Join(c.OutDir, name)
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
	}

	if c.Bundle {
		entries := []archive.Entry{
			{Name: engine.SchemaVariantName, Data: result.SchemaXML},
			{Name: engine.DTDVariantName, Data: result.DTDXML},
			{Name: "report.json", Data: reportJSON},
		}
		bundlePath := filepath.Join(c.OutDir, "bundle.tar.xz")
		manifest, err := archive.WriteBundle(bundlePath, entries)
		if err != nil {
			return err
		}
		manifestJSON, err := manifest.JSON()
		if err != nil {
			return fmt.Errorf("serializing manifest: %w", err)
		}
		manifestPath := filepath.Join(c.OutDir, "manifest.json")
		if err := os.WriteFile(manifestPath, manifestJSON, 0644); err != nil {
			return fmt.Errorf("writing %s: %w", manifestPath, err)
		}
	}

	logging.Info("repair complete",
		"input", c.Input,
		"out_dir", c.OutDir,
		"status", result.Report.Status,
	)
	return nil
}

// ValidateCmd runs the pipeline without writing the variants.
type ValidateCmd struct {
	Input string `arg:"" help:"Input XML file" type:"existingfile"`
}

// Run implements the validate command.
func (c *ValidateCmd) Run(cfg *config.Config) error {
	result, err := processFile(cfg, c.Input)
	if err != nil {
		return err
	}
	reportJSON, err := result.Report.JSON()
	if err != nil {
		return fmt.Errorf("serializing report: %w", err)
	}
	fmt.Println(string(reportJSON))
	if !result.Report.Passed() {
		return fmt.Errorf("document failed compliance checks")
	}
	return nil
}

// PackageCmd bundles previously written outputs.
type PackageCmd struct {
	Dir string `arg:"" help:"Directory holding repair outputs" type:"existingdir"`
	Out string `default:"bundle.tar.xz" help:"Bundle output path" type:"path"`
}

// Run implements the package command.
func (c *PackageCmd) Run(cfg *config.Config) error {
	names := []string{engine.SchemaVariantName, engine.DTDVariantName, "report.json"}
	var entries []archive.Entry
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(c.Dir, name))
		if err != nil {
			return fmt.Errorf("reading %s: %w", name, err)
		}
		entries = append(entries, archive.Entry{Name: name, Data: data})
	}
	manifest, err := archive.WriteBundle(c.Out, entries)
	if err != nil {
		return err
	}
	manifestJSON, err := manifest.JSON()
	if err != nil {
		return fmt.Errorf("serializing manifest: %w", err)
	}
	fmt.Println(string(manifestJSON))
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run implements the version command.
func (c *VersionCmd) Run(cfg *config.Config) error {
	fmt.Printf("jatsfix %s\n", version)
	return nil
}

func processFile(cfg *config.Config, path string) (*engine.Result, error) {
	eng, err := engine.New(engineConfig(cfg))
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return eng.Process(f)
}

func engineConfig(cfg *config.Config) engine.Config {
	return engine.Config{
		JATSVersion:    cfg.JATSVersion,
		SchemaPath:     cfg.SchemaPath,
		SchemaLocation: cfg.SchemaLocation,
		Repair: repair.Config{
			BannedPrefixes: cfg.Sanitizer.BannedPrefixes,
			DenyList:       cfg.Sanitizer.DenyList,
			Classifier: &repair.ThresholdClassifier{
				MaxMarkerLength: cfg.Citations.MaxMarkerLength,
				MaxRangeSpan:    cfg.Citations.MaxRangeSpan,
			},
			FallbackYear: cfg.FallbackYear,
			PruneTargets: cfg.PruneTargets,
		},
	}
}

func initLogging() {
	level := logging.LevelInfo
	switch CLI.LogLevel {
	case "debug":
		level = logging.LevelDebug
	case "warn":
		level = logging.LevelWarn
	case "error":
		level = logging.LevelError
	}
	format := logging.FormatText
	if CLI.LogFormat == "json" {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("jatsfix"),
		kong.Description("Structural repair and compliance engine for JATS XML"),
		kong.UsageOnError(),
	)

	initLogging()

	cfg := config.Default()
	if CLI.Config != "" {
		loaded, err := config.Load(CLI.Config)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	if err := ctx.Run(&cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
