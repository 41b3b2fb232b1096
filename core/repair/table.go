package repair

import (
	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// TableFixer enforces the table content model: optional column
// declarations, then either direct rows or a (thead?, tfoot?, tbody+)
// grouping. A table with a header or footer must keep at least one body
// group holding at least one row with one cell; when nothing usable
// remains, a minimal placeholder body is synthesized. The placeholder is a
// structural necessity only; renderers are expected to suppress it.
type TableFixer struct{}

// Name implements Stage.
func (f *TableFixer) Name() string { return "table" }

// Apply implements Stage.
func (f *TableFixer) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}
	for _, table := range dom.Elements(root, "table") {
		f.fixTable(table, rep)
	}
	return nil
}

func (f *TableFixer) fixTable(table *xmlquery.Node, rep *report.Report) {
	header := dom.FirstChild(table, "thead")
	footer := dom.FirstChild(table, "tfoot")

	if header != nil || footer != nil {
		// Every body group must carry at least one row with a cell.
		for _, tbody := range dom.ChildElements(table, "tbody") {
			if !groupHasRow(tbody) {
				dom.Detach(tbody)
				logging.Repair(f.Name(), "removed_empty_tbody")
				rep.Warnf("table: removed empty body group")
			}
		}
		f.foldDirectRows(table, rep)
		// Header/footer without a body group is illegal; synthesize one
		// right after the footer, else the header. Stray direct rows become
		// its content; otherwise it gets the minimal placeholder row.
		if len(dom.ChildElements(table, "tbody")) == 0 {
			tbody := dom.NewElement("tbody")
			if footer != nil {
				dom.InsertAfter(footer, tbody)
			} else {
				dom.InsertAfter(header, tbody)
			}
			if rows := dom.ChildElements(table, "tr"); len(rows) > 0 {
				for _, tr := range rows {
					dom.Detach(tr)
					dom.AppendChild(tbody, tr)
				}
				logging.Repair(f.Name(), "synthesized_tbody", "rows", len(rows))
				rep.Warnf("table: moved %d direct row(s) into synthesized body group", len(rows))
			} else {
				tr := dom.NewElement("tr")
				dom.AppendChild(tr, dom.NewElement("td"))
				dom.AppendChild(tbody, tr)
				logging.Repair(f.Name(), "synthesized_tbody")
				rep.Warnf("table: synthesized placeholder body group")
			}
		}
		return
	}

	// No header or footer: body groups are optional. An empty group is
	// removed unless it is the table's only content grouping, in which
	// case it receives the placeholder row to stay structurally valid.
	bodies := dom.ChildElements(table, "tbody")
	directRows := dom.ChildElements(table, "tr")
	remaining := len(bodies)
	for _, tbody := range bodies {
		if groupHasRow(tbody) {
			continue
		}
		if remaining == 1 && len(directRows) == 0 {
			tr := dom.NewElement("tr")
			dom.AppendChild(tr, dom.NewElement("td"))
			dom.AppendChild(tbody, tr)
			logging.Repair(f.Name(), "filled_empty_tbody")
			rep.Warnf("table: added placeholder row to empty body group")
		} else {
			dom.Detach(tbody)
			remaining--
			logging.Repair(f.Name(), "removed_empty_tbody")
			rep.Warnf("table: removed empty body group")
		}
	}
	f.foldDirectRows(table, rep)
}

// foldDirectRows removes the illegal mix of direct rows and body groups as
// siblings by moving stray rows into the first body group, preserving order.
func (f *TableFixer) foldDirectRows(table *xmlquery.Node, rep *report.Report) {
	bodies := dom.ChildElements(table, "tbody")
	directRows := dom.ChildElements(table, "tr")
	if len(bodies) == 0 || len(directRows) == 0 {
		return
	}
	for _, tr := range directRows {
		dom.Detach(tr)
		dom.AppendChild(bodies[0], tr)
	}
	logging.Repair(f.Name(), "moved_direct_rows", "count", len(directRows))
	rep.Warnf("table: moved %d direct row(s) into body group", len(directRows))
}

// groupHasRow reports whether a row group holds at least one row with at
// least one cell.
func groupHasRow(group *xmlquery.Node) bool {
	for _, tr := range dom.ChildElements(group, "tr") {
		if dom.FirstChild(tr, "td") != nil || dom.FirstChild(tr, "th") != nil {
			return true
		}
	}
	return false
}
