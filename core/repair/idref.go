package repair

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// IDRefValidator closes the reference graph: after it runs, every rid/rids
// attribute value resolves to an existing id. Dangling single references
// get one heuristic repair attempt from positional hints; unrepairable
// attributes are removed rather than left dangling. Runs after the citation
// resolver so newly created reference targets are visible.
type IDRefValidator struct{}

// Name implements Stage.
func (v *IDRefValidator) Name() string { return "idref" }

// Apply implements Stage.
func (v *IDRefValidator) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}

	v.convertAnchors(root, rep)

	// The registry must be rebuilt after the anchor conversion mutated
	// the tree.
	ids := dom.IDs(root)
	refOrder := refListOrder(root)

	dom.Walk(root, func(n *xmlquery.Node) {
		if rid, ok := dom.Attr(n, "rid"); ok {
			v.fixSingle(n, rid, ids, refOrder, rep)
		}
		if rids, ok := dom.Attr(n, "rids"); ok {
			v.fixMulti(n, rids, ids, rep)
		}
	})
	return nil
}

// convertAnchors rewrites the legacy anchor convention some converters emit
// for references: a back-matter paragraph starting with a named-content
// anchor carrying the reference id. Each such paragraph becomes a proper
// ref entry and the anchor disappears.
func (v *IDRefValidator) convertAnchors(root *xmlquery.Node, rep *report.Report) {
	back := dom.FirstChild(root, "back")
	if back == nil {
		return
	}
	ids := dom.IDs(root)
	var converted []*xmlquery.Node
	for _, anchor := range dom.Elements(back, "named-content") {
		if ct, _ := dom.Attr(anchor, "content-type"); ct != "anchor" {
			continue
		}
		id, _ := dom.Attr(anchor, "id")
		if id == "" {
			continue
		}
		para := anchor.Parent
		if para == nil || para.Data != "p" {
			continue
		}
		if owner, taken := ids[id]; taken && owner != anchor {
			rep.Ambiguousf("idref: anchor id %q collides with an existing element; left unchanged", id)
			logging.Warn("anchor id collision", "id", id)
			continue
		}
		dom.Detach(anchor)
		text := strings.TrimSpace(dom.Text(para))

		refList := ensureRefList(root)
		ref := dom.NewElement("ref")
		dom.SetAttr(ref, "id", id)
		citation := dom.NewElement("mixed-citation")
		dom.AppendChild(citation, dom.NewText(text))
		dom.AppendChild(ref, citation)
		dom.AppendChild(refList, ref)
		ids[id] = ref

		converted = append(converted, para)
		logging.Repair(v.Name(), "converted_anchor", "id", id)
		rep.Warnf("idref: converted anchor paragraph to reference entry %s", id)
	}
	for _, para := range converted {
		dom.Detach(para)
	}
}

// fixSingle repairs or removes a dangling single reference. The repair uses
// the ordinal hint on the referencing element (its alt attribute or numeric
// content) matched against the reference-id convention first and the
// back-matter list position second.
func (v *IDRefValidator) fixSingle(n *xmlquery.Node, rid string, ids map[string]*xmlquery.Node, refOrder []string, rep *report.Report) {
	if _, ok := ids[rid]; ok {
		return
	}

	if ordinal, ok := ordinalHint(n); ok {
		if id := refID(ordinal); ids[id] != nil {
			dom.SetAttr(n, "rid", id)
			logging.Repair(v.Name(), "rewrote_rid", "from", rid, "to", id)
			rep.Warnf("idref: rewrote dangling rid %q to %s", rid, id)
			return
		}
		if ordinal >= 1 && ordinal <= len(refOrder) {
			id := refOrder[ordinal-1]
			dom.SetAttr(n, "rid", id)
			logging.Repair(v.Name(), "rewrote_rid", "from", rid, "to", id)
			rep.Warnf("idref: rewrote dangling rid %q to %s by list position", rid, id)
			return
		}
	}

	dom.RemoveAttr(n, "rid")
	logging.Repair(v.Name(), "removed_rid", "rid", rid)
	rep.Warnf("idref: removed unrepairable rid %q from <%s>", rid, n.Data)
}

// fixMulti filters a space-separated multi-reference down to valid targets.
func (v *IDRefValidator) fixMulti(n *xmlquery.Node, rids string, ids map[string]*xmlquery.Node, rep *report.Report) {
	fields := strings.Fields(rids)
	valid := fields[:0]
	for _, id := range fields {
		if _, ok := ids[id]; ok {
			valid = append(valid, id)
		}
	}
	if len(valid) == len(fields) {
		return
	}
	if len(valid) == 0 {
		dom.RemoveAttr(n, "rids")
		rep.Warnf("idref: removed rids attribute with no valid targets from <%s>", n.Data)
		return
	}
	dom.SetAttr(n, "rids", strings.Join(valid, " "))
	rep.Warnf("idref: filtered rids on <%s> to %d valid target(s)", n.Data, len(valid))
}

// ordinalHint extracts a positional hint from the referencing element: an
// alt attribute or the element's text when it is a plain number.
func ordinalHint(n *xmlquery.Node) (int, bool) {
	if alt, ok := dom.Attr(n, "alt"); ok {
		if v, err := strconv.Atoi(strings.TrimSpace(alt)); err == nil && v > 0 {
			return v, true
		}
	}
	if v, err := strconv.Atoi(strings.TrimSpace(dom.Text(n))); err == nil && v > 0 {
		return v, true
	}
	return 0, false
}

// refListOrder returns reference entry ids in document order, the basis for
// positional repair.
func refListOrder(root *xmlquery.Node) []string {
	var order []string
	for _, ref := range dom.Elements(root, "ref") {
		if id, ok := dom.Attr(ref, "id"); ok && id != "" {
			order = append(order, id)
		}
	}
	return order
}
