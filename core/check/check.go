// Package check runs the read-only compliance battery on the final tree:
// schema validation through an external validator plus a fixed set of local
// structural checks. Nothing in this package mutates the document.
package check

import (
	"github.com/antchfx/xmlquery"
	"github.com/antchfx/xpath"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
)

// Validator is the external schema-validation contract. A nil Validator in
// the Reporter skips schema validation entirely.
type Validator interface {
	Validate(xmlData []byte) (bool, []string)
}

// Reporter runs validation and the structural checks, writing results into
// the report. It never writes back into the tree; a failed validation is
// reported but does not abort anything.
type Reporter struct {
	Validator Validator
}

// Run validates the schema variant bytes and applies the structural checks
// to the repaired tree.
func (r *Reporter) Run(doc *dom.Document, schemaXML []byte, rep *report.Report) {
	if r.Validator != nil {
		valid, errs := r.Validator.Validate(schemaXML)
		rep.AddCheck("schema-validation", valid, "document validates against the configured schema")
		for _, e := range errs {
			rep.Errorf("schema: %s", e)
		}
	}

	root := doc.Root()
	if root == nil {
		rep.AddCheck("root-element", false, "document has a root element")
		return
	}
	for _, c := range structuralChecks {
		rep.AddCheck(c.name, c.run(root), c.description)
	}
}

type structuralCheck struct {
	name        string
	description string
	run         func(root *xmlquery.Node) bool
}

var (
	exprJournalMeta = xpath.MustCompile("//front/journal-meta")
	exprArticleMeta = xpath.MustCompile("//front/article-meta")
	exprTitleGroup  = xpath.MustCompile("//front/article-meta/title-group")
	exprPubDate     = xpath.MustCompile("//front/article-meta/pub-date")
	exprTableWrap   = xpath.MustCompile("//table-wrap")
	exprFig         = xpath.MustCompile("//fig")
	exprIdentified  = xpath.MustCompile("//sec | //fig | //table-wrap | //ref")
)

var structuralChecks = []structuralCheck{
	{
		name:        "journal-meta-present",
		description: "front matter declares the journal identity",
		run: func(root *xmlquery.Node) bool {
			return len(xmlquery.QuerySelectorAll(root, exprJournalMeta)) > 0
		},
	},
	{
		name:        "article-meta-present",
		description: "front matter declares the article metadata block",
		run: func(root *xmlquery.Node) bool {
			return len(xmlquery.QuerySelectorAll(root, exprArticleMeta)) > 0
		},
	},
	{
		name:        "title-group-present",
		description: "article metadata carries a title group",
		run: func(root *xmlquery.Node) bool {
			return len(xmlquery.QuerySelectorAll(root, exprTitleGroup)) > 0
		},
	},
	{
		name:        "pub-date-present",
		description: "article metadata carries a publication date",
		run: func(root *xmlquery.Node) bool {
			return len(xmlquery.QuerySelectorAll(root, exprPubDate)) > 0
		},
	},
	{
		name:        "table-wrap-position",
		description: "table wrappers use a legal position value",
		run: func(root *xmlquery.Node) bool {
			for _, tw := range xmlquery.QuerySelectorAll(root, exprTableWrap) {
				pos, ok := dom.Attr(tw, "position")
				if ok && pos != "float" && pos != "anchor" {
					return false
				}
			}
			return true
		},
	},
	{
		name:        "figure-captions",
		description: "figures carry a caption or alternative text",
		run: func(root *xmlquery.Node) bool {
			for _, fig := range xmlquery.QuerySelectorAll(root, exprFig) {
				if dom.FirstChild(fig, "caption") == nil && dom.FirstChild(fig, "alt-text") == nil {
					return false
				}
			}
			return true
		},
	},
	{
		name:        "identifiers-present",
		description: "sections, figures, tables, and references carry ids",
		run: func(root *xmlquery.Node) bool {
			for _, n := range xmlquery.QuerySelectorAll(root, exprIdentified) {
				if id, ok := dom.Attr(n, "id"); !ok || id == "" {
					return false
				}
			}
			return true
		},
	},
}
