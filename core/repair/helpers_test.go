package repair

import (
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
)

func mustLoad(t *testing.T, input string) *dom.Document {
	t.Helper()
	doc, err := dom.LoadBytes([]byte(input))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return doc
}

func applyStage(t *testing.T, s Stage, doc *dom.Document) *report.Report {
	t.Helper()
	rep := report.New()
	if err := s.Apply(doc, rep); err != nil {
		t.Fatalf("%s stage failed: %v", s.Name(), err)
	}
	return rep
}

func serialized(doc *dom.Document) string {
	return string(doc.Serialize())
}

func childTags(n *xmlquery.Node) string {
	var parts []string
	for _, c := range dom.ChildElements(n, "") {
		parts = append(parts, dom.QName(c))
	}
	return strings.Join(parts, ",")
}
