// Package repair implements the ordered tree transformations that take a
// loosely-formed converter output and make it grammar-legal,
// reference-consistent, and checker-compliant. Stages run strictly in order
// on a single document; none of them aborts processing. All diagnostics go
// into the report threaded through each stage.
package repair

import (
	"fmt"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// Config tunes the repair stages.
type Config struct {
	// BannedPrefixes and DenyList drive the attribute sanitizer.
	BannedPrefixes []string
	DenyList       []string
	// Classifier decides citation marker vs. genuine math. Nil selects
	// the default threshold classifier.
	Classifier Classifier
	// FallbackYear is used for synthesized pub-dates; zero means the
	// current UTC year.
	FallbackYear int
	// PruneTargets lists containers removed when empty.
	PruneTargets []string
}

// Stage is one tree transformation. Apply mutates the document in place and
// records repairs, warnings, and ambiguities in the report. A returned error
// is an internal invariant failure, not a document problem; stages degrade
// gracefully on malformed content.
type Stage interface {
	Name() string
	Apply(doc *dom.Document, rep *report.Report) error
}

// Pipeline runs the repair stages in dependency order.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds the canonical stage ordering. The citation resolver
// runs before the id/idref validator so newly created reference targets are
// visible to it; the pruner runs last so containers emptied or filled by
// earlier stages are judged on their final content.
func NewPipeline(cfg Config) *Pipeline {
	classifier := cfg.Classifier
	if classifier == nil {
		classifier = DefaultClassifier()
	}
	return &Pipeline{
		stages: []Stage{
			&Sanitizer{BannedPrefixes: cfg.BannedPrefixes, DenyList: cfg.DenyList},
			&TableFixer{},
			&MetadataCompleter{FallbackYear: cfg.FallbackYear},
			&CitationResolver{Classifier: classifier},
			&IDRefValidator{},
			&Pruner{Targets: cfg.PruneTargets},
		},
	}
}

// Run applies every stage in order. Only an internal stage failure stops the
// run; document-level problems are reported, never fatal.
func (p *Pipeline) Run(doc *dom.Document, rep *report.Report) error {
	for _, stage := range p.stages {
		logging.StageStart(stage.Name())
		if err := stage.Apply(doc, rep); err != nil {
			return fmt.Errorf("stage %s: %w", stage.Name(), err)
		}
	}
	return nil
}
