// Package engine wires the full repair pipeline: load, repair, bind, and
// report. One Engine can process many documents; each run builds its own
// tree and report, so independent engine instances (or one shared instance)
// are safe for concurrent use by a surrounding host.
package engine

import (
	"fmt"
	"io"

	"github.com/jatsfix/jatsfix/core/bind"
	"github.com/jatsfix/jatsfix/core/check"
	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/repair"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// RootTag is the expected root element of the target grammar.
const RootTag = "article"

// Output names used for the report's digest entries.
const (
	SchemaVariantName = "article.xml"
	DTDVariantName    = "articledtd.xml"
)

// Config configures one engine.
type Config struct {
	// JATSVersion is the target grammar version (1.0-1.4).
	JATSVersion string
	// SchemaPath points at the validating XSD; empty skips schema
	// validation.
	SchemaPath string
	// SchemaLocation is written to the schema variant's root.
	SchemaLocation string
	// Repair tunes the repair stages.
	Repair repair.Config
}

// Result is the complete outcome for one document: both serializations and
// the compliance report.
type Result struct {
	SchemaXML []byte
	DTDXML    []byte
	Report    *report.Report
}

// Engine is the structural repair and compliance engine.
type Engine struct {
	pipeline *repair.Pipeline
	binder   *bind.Binder
	reporter *check.Reporter
}

// New builds an engine, compiling the validating schema once if configured.
func New(cfg Config) (*Engine, error) {
	if !bind.SupportedVersion(cfg.JATSVersion) {
		return nil, fmt.Errorf("engine: unsupported grammar version %q", cfg.JATSVersion)
	}

	var validator check.Validator
	if cfg.SchemaPath != "" {
		v, err := check.NewXSDValidator(cfg.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		validator = v
	}

	return &Engine{
		pipeline: repair.NewPipeline(cfg.Repair),
		binder:   &bind.Binder{Version: cfg.JATSVersion, SchemaLocation: cfg.SchemaLocation},
		reporter: &check.Reporter{Validator: validator},
	}, nil
}

// Process runs the full pipeline on one document. The only fatal condition
// is an unparseable input; every later stage degrades gracefully and the
// run always produces both variants plus a report enumerating what could
// not be fully resolved.
func (e *Engine) Process(r io.Reader) (*Result, error) {
	rep := report.New()

	doc, err := dom.Load(r)
	if err != nil {
		return nil, err
	}
	if root := doc.Root(); root.Data != RootTag {
		logging.Warn("unexpected root element", "got", root.Data, "want", RootTag)
		rep.Warnf("loader: root element is <%s>, expected <%s>", root.Data, RootTag)
	}

	if err := e.pipeline.Run(doc, rep); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	if err := e.binder.Bind(doc); err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	// The schema variant must be produced first: the grammar variant
	// strips the schema-location attributes from the shared tree.
	schemaXML, err := e.binder.SchemaVariant(doc)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	dtdXML, err := e.binder.DTDVariant(doc)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}

	e.reporter.Run(doc, schemaXML, rep)
	rep.RecordDigest(SchemaVariantName, schemaXML)
	rep.RecordDigest(DTDVariantName, dtdXML)
	rep.Finalize()

	return &Result{SchemaXML: schemaXML, DTDXML: dtdXML, Report: rep}, nil
}
