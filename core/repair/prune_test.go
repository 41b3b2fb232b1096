package repair

import (
	"strings"
	"testing"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
)

func pruneTargets() []string { return []string{"back", "ack", "glossary"} }

func TestPrunerRemovesEmptyContainers(t *testing.T) {
	tests := []struct {
		name  string
		input string
		gone  []string
	}{
		{
			name:  "comment-only back",
			input: `<article><body><p>T.</p></body><back><!-- nothing here --></back></article>`,
			gone:  []string{"back"},
		},
		{
			name:  "whitespace-only back",
			input: "<article><body><p>T.</p></body><back>\n  </back></article>",
			gone:  []string{"back"},
		},
		{
			name:  "nested empty containers",
			input: `<article><body><p>T.</p></body><back><ack><!-- thanks --></ack></back></article>`,
			gone:  []string{"ack", "back"},
		},
		{
			name:  "empty glossary inside populated back",
			input: `<article><back><glossary></glossary><ref-list><ref id="r1"><mixed-citation>A.</mixed-citation></ref></ref-list></back></article>`,
			gone:  []string{"glossary"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustLoad(t, tt.input)
			rep := applyStage(t, &Pruner{Targets: pruneTargets()}, doc)

			for _, tag := range tt.gone {
				if len(dom.Elements(doc.Root(), tag)) != 0 {
					t.Errorf("empty <%s> should be removed", tag)
				}
			}
			if len(rep.Warnings) != len(tt.gone) {
				t.Errorf("got warnings %v, want %d removal(s)", rep.Warnings, len(tt.gone))
			}
		})
	}
}

func TestPrunerKeepsPopulatedContainers(t *testing.T) {
	input := `<article><back><ack><p>Thanks.</p></ack><ref-list><ref id="r1"><mixed-citation>A.</mixed-citation></ref></ref-list></back></article>`
	doc := mustLoad(t, input)
	before := serialized(doc)

	rep := applyStage(t, &Pruner{Targets: pruneTargets()}, doc)
	if got := serialized(doc); got != before {
		t.Errorf("populated containers modified:\nbefore: %s\nafter:  %s", before, got)
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", rep.Warnings)
	}
}

func TestPrunerIgnoresUnlistedTags(t *testing.T) {
	doc := mustLoad(t, `<article><body><sec id="s1"></sec></body></article>`)
	applyStage(t, &Pruner{Targets: pruneTargets()}, doc)

	if len(dom.Elements(doc.Root(), "sec")) != 1 {
		t.Error("tags outside the target list must never be pruned")
	}
}

func TestPipelineRunsStagesInOrder(t *testing.T) {
	input := `<article data-converter="x"><body><p>Test<inline-formula><tex-math id="tm1">^{1}</tex-math></inline-formula>.</p><table-wrap id="t1" position="float"><table><thead><tr><th>H</th></tr></thead></table></table-wrap></body><back><ack><!-- empty --></ack></back></article>`
	doc := mustLoad(t, input)
	p := NewPipeline(Config{
		BannedPrefixes: []string{"data-"},
		DenyList:       []string{"class", "style"},
		FallbackYear:   2024,
		PruneTargets:   pruneTargets(),
	})
	rep := runPipeline(t, p, doc)

	out := serialized(doc)
	if strings.Contains(out, "data-converter") {
		t.Error("sanitizer did not run")
	}
	if !strings.Contains(out, "<tbody>") {
		t.Error("table fixer did not run")
	}
	if !strings.Contains(out, "<journal-meta>") || !strings.Contains(out, "<pub-date") {
		t.Error("metadata completion did not run")
	}
	if !strings.Contains(out, `rid="ref1"`) || !strings.Contains(out, `<ref id="ref1">`) {
		t.Error("citation resolver did not run")
	}
	if strings.Contains(out, "<ack>") {
		t.Error("pruner did not run")
	}
	// The back matter survives: the citation resolver filled it before the
	// pruner judged it.
	if !strings.Contains(out, "<ref-list>") {
		t.Error("synthesized reference list should survive pruning")
	}
	if len(rep.Warnings) == 0 {
		t.Error("repairs should be reported")
	}
}

func TestPipelineIdempotent(t *testing.T) {
	input := `<article data-x="1"><body><p>Test<inline-formula><tex-math id="tm1">^{1,2}</tex-math></inline-formula>.</p><table-wrap id="t1" position="float"><table><thead><tr><th>H</th></tr></thead></table></table-wrap></body></article>`
	doc := mustLoad(t, input)
	p := NewPipeline(Config{
		BannedPrefixes: []string{"data-"},
		FallbackYear:   2024,
		PruneTargets:   pruneTargets(),
	})
	runPipeline(t, p, doc)
	first := serialized(doc)

	doc2 := mustLoad(t, first)
	rep := runPipeline(t, p, doc2)
	if len(rep.Warnings) != 0 {
		t.Errorf("second run should repair nothing, got %v", rep.Warnings)
	}
	if got := serialized(doc2); got != first {
		t.Errorf("pipeline not idempotent:\nfirst:  %s\nsecond: %s", first, got)
	}
}

func runPipeline(t *testing.T, p *Pipeline, doc *dom.Document) *report.Report {
	t.Helper()
	rep := report.New()
	if err := p.Run(doc, rep); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return rep
}
