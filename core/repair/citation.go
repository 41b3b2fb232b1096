package repair

import (
	"fmt"
	"strconv"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// CitationResolver converts math placeholders that are really superscript
// citation markers into formal cross-reference links, synthesizing back
// matter entries for cited numbers that have none. Genuine notation is left
// untouched; unclassifiable content is flagged, never guessed.
type CitationResolver struct {
	Classifier Classifier
}

// Name implements Stage.
func (c *CitationResolver) Name() string { return "citation" }

// Apply implements Stage.
func (c *CitationResolver) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}
	ids := dom.IDs(root)

	for _, texMath := range dom.Elements(root, "tex-math") {
		content := dom.Text(texMath)
		class, marker := c.Classifier.Classify(content)
		switch class {
		case ClassCitation:
			c.convert(root, texMath, marker, ids, rep)
		case ClassAmbiguous:
			rep.Ambiguousf("citation: could not classify tex-math content %q; left unchanged", content)
			logging.Warn("citation marker left unresolved", "content", content)
		case ClassFormula:
			// Genuine math stays, but the grammar wants it identified.
			ensureID(texMath, "texmath", ids)
		}
	}

	// MathML islands need identifiers too.
	for _, math := range dom.Elements(root, "mml:math") {
		ensureID(math, "mml", ids)
	}
	return nil
}

// convert replaces the placeholder with a superscript wrapper holding one
// bibliographic xref per cited number, preserving leading punctuation and
// any trailing text, and backfills missing reference entries.
func (c *CitationResolver) convert(root, texMath *xmlquery.Node, marker *Marker, ids map[string]*xmlquery.Node, rep *report.Report) {
	target := replaceTarget(texMath)

	sup := dom.NewElement("sup")
	for i, n := range marker.Numbers {
		if i > 0 {
			dom.AppendChild(sup, dom.NewText(","))
		}
		xref := dom.NewElement("xref")
		dom.SetAttr(xref, "ref-type", "bibr")
		dom.SetAttr(xref, "rid", refID(n))
		dom.AppendChild(xref, dom.NewText(strconv.Itoa(n)))
		dom.AppendChild(sup, xref)
	}

	if marker.Lead != "" {
		if prev := target.PrevSibling; prev != nil && prev.Type == xmlquery.TextNode {
			prev.Data += marker.Lead
		} else {
			dom.InsertBefore(target, dom.NewText(marker.Lead))
		}
	}
	dom.InsertBefore(target, sup)
	dom.Detach(target)

	for _, n := range marker.Numbers {
		c.ensureRef(root, n, ids, rep)
	}

	logging.Repair(c.Name(), "converted_marker", "refs", len(marker.Numbers))
	rep.Warnf("citation: converted marker to %d cross-reference link(s)", len(marker.Numbers))
}

// ensureRef creates a minimal back-matter entry for a cited number that has
// no existing target. The citation text is a placeholder, never fabricated
// content.
func (c *CitationResolver) ensureRef(root *xmlquery.Node, n int, ids map[string]*xmlquery.Node, rep *report.Report) {
	id := refID(n)
	if _, ok := ids[id]; ok {
		return
	}

	refList := ensureRefList(root)
	ref := dom.NewElement("ref")
	dom.SetAttr(ref, "id", id)
	citation := dom.NewElement("mixed-citation")
	dom.AppendChild(citation, dom.NewText(fmt.Sprintf("Reference %d (citation details unavailable)", n)))
	dom.AppendChild(ref, citation)
	dom.AppendChild(refList, ref)
	ids[id] = ref

	rep.Warnf("citation: synthesized back-matter entry %s", id)
}

// ensureRefList finds or creates back/ref-list under the article root.
func ensureRefList(root *xmlquery.Node) *xmlquery.Node {
	back := dom.FirstChild(root, "back")
	if back == nil {
		back = dom.NewElement("back")
		dom.AppendChild(root, back)
	}
	refList := dom.FirstChild(back, "ref-list")
	if refList == nil {
		refList = dom.NewElement("ref-list")
		dom.AppendChild(back, refList)
	}
	return refList
}

// replaceTarget widens the replacement to an inline-formula wrapper whose
// only element content is this placeholder, so no empty husk survives.
func replaceTarget(texMath *xmlquery.Node) *xmlquery.Node {
	parent := texMath.Parent
	if parent != nil && parent.Type == xmlquery.ElementNode && parent.Data == "inline-formula" {
		if len(dom.ChildElements(parent, "")) == 1 {
			return parent
		}
	}
	return texMath
}

// ensureID assigns the next free sequential id with the given stem to an
// element that lacks one.
func ensureID(n *xmlquery.Node, stem string, ids map[string]*xmlquery.Node) {
	if id, ok := dom.Attr(n, "id"); ok && id != "" {
		return
	}
	for seq := 1; ; seq++ {
		id := fmt.Sprintf("%s%d", stem, seq)
		if _, taken := ids[id]; !taken {
			dom.SetAttr(n, "id", id)
			ids[id] = n
			return
		}
	}
}

func refID(n int) string {
	return "ref" + strconv.Itoa(n)
}
