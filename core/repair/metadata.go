package repair

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// articleMetaOrder is the grammar-mandated child order of the front-matter
// metadata block. Unknown tags keep their position relative to the nearest
// preceding known sibling.
var articleMetaOrder = []string{
	"article-id",
	"article-categories",
	"title-group",
	"contrib-group",
	"aff",
	"aff-alternatives",
	"author-notes",
	"pub-date",
	"volume",
	"issue",
	"fpage",
	"lpage",
	"page-range",
	"elocation-id",
	"history",
	"permissions",
	"self-uri",
	"related-article",
	"abstract",
	"trans-abstract",
	"kwd-group",
	"funding-group",
	"counts",
	"custom-meta-group",
}

var articleMetaRank = func() map[string]int {
	m := make(map[string]int, len(articleMetaOrder))
	for i, tag := range articleMetaOrder {
		m[tag] = i
	}
	return m
}()

// MetadataCompleter inserts missing required front-matter elements at their
// grammar-legal ordinal position and restores the mandated child order of
// the metadata block. Existing elements are never duplicated.
type MetadataCompleter struct {
	// FallbackYear is used for synthesized publication dates. Zero means
	// the current UTC year.
	FallbackYear int
}

// Name implements Stage.
func (m *MetadataCompleter) Name() string { return "metadata" }

// Apply implements Stage.
func (m *MetadataCompleter) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}
	front := dom.FirstChild(root, "front")
	if front == nil {
		front = dom.NewElement("front")
		if first := root.FirstChild; first != nil {
			dom.InsertBefore(first, front)
		} else {
			dom.AppendChild(root, front)
		}
		logging.Repair(m.Name(), "synthesized_front")
		rep.Warnf("metadata: synthesized front element")
	}

	m.ensureJournalMeta(front, rep)
	meta := m.ensureArticleMeta(front, rep)
	m.ensureRequired(meta, rep)
	m.reorder(meta, rep)
	return nil
}

// ensureJournalMeta synthesizes the minimal journal identity block when the
// converter produced none: identifier, title, ISSN, and publisher.
func (m *MetadataCompleter) ensureJournalMeta(front *xmlquery.Node, rep *report.Report) {
	if dom.FirstChild(front, "journal-meta") != nil {
		return
	}
	jm := dom.NewElement("journal-meta")

	jid := dom.NewElement("journal-id")
	dom.SetAttr(jid, "journal-id-type", "publisher-id")
	dom.AppendChild(jid, dom.NewText("unknown-journal"))
	dom.AppendChild(jm, jid)

	jtg := dom.NewElement("journal-title-group")
	jt := dom.NewElement("journal-title")
	dom.AppendChild(jt, dom.NewText("Unknown Journal"))
	dom.AppendChild(jtg, jt)
	dom.AppendChild(jm, jtg)

	issn := dom.NewElement("issn")
	dom.SetAttr(issn, "pub-type", "epub")
	dom.AppendChild(issn, dom.NewText("0000-0000"))
	dom.AppendChild(jm, issn)

	pub := dom.NewElement("publisher")
	pn := dom.NewElement("publisher-name")
	dom.AppendChild(pn, dom.NewText("Unknown Publisher"))
	dom.AppendChild(pub, pn)
	dom.AppendChild(jm, pub)

	if first := front.FirstChild; first != nil {
		dom.InsertBefore(first, jm)
	} else {
		dom.AppendChild(front, jm)
	}
	logging.Repair(m.Name(), "synthesized_journal_meta")
	rep.Warnf("metadata: synthesized minimal journal-meta")
}

func (m *MetadataCompleter) ensureArticleMeta(front *xmlquery.Node, rep *report.Report) *xmlquery.Node {
	meta := dom.FirstChild(front, "article-meta")
	if meta != nil {
		return meta
	}
	meta = dom.NewElement("article-meta")
	dom.AppendChild(front, meta)
	logging.Repair(m.Name(), "synthesized_article_meta")
	rep.Warnf("metadata: synthesized article-meta")
	return meta
}

// ensureRequired inserts placeholders for required children that are
// missing: a title group, a publication date with a year, and a location
// identifier. Each lands at the nearest legal insertion point computed by
// scanning the existing siblings, never at a hard-coded index.
func (m *MetadataCompleter) ensureRequired(meta *xmlquery.Node, rep *report.Report) {
	if dom.FirstChild(meta, "title-group") == nil {
		tg := dom.NewElement("title-group")
		at := dom.NewElement("article-title")
		dom.AppendChild(at, dom.NewText("Untitled Article"))
		dom.AppendChild(tg, at)
		m.insertOrdered(meta, tg)
		logging.Repair(m.Name(), "synthesized_title_group")
		rep.Warnf("metadata: synthesized title-group placeholder")
	}

	if dom.FirstChild(meta, "pub-date") == nil {
		year := m.FallbackYear
		if year == 0 {
			year = time.Now().UTC().Year()
		}
		pd := dom.NewElement("pub-date")
		dom.SetAttr(pd, "date-type", "pub")
		dom.SetAttr(pd, "publication-format", "electronic")
		y := dom.NewElement("year")
		dom.AppendChild(y, dom.NewText(strconv.Itoa(year)))
		dom.AppendChild(pd, y)
		m.insertOrdered(meta, pd)
		logging.Repair(m.Name(), "synthesized_pub_date", "year", year)
		rep.Warnf("metadata: synthesized pub-date with year %d", year)
	}

	hasPages := dom.FirstChild(meta, "fpage") != nil ||
		dom.FirstChild(meta, "elocation-id") != nil
	if !hasPages {
		eloc := dom.NewElement("elocation-id")
		dom.AppendChild(eloc, dom.NewText("e00001"))
		m.insertOrdered(meta, eloc)
		logging.Repair(m.Name(), "synthesized_elocation_id")
		rep.Warnf("metadata: synthesized elocation-id placeholder")
	}
}

// insertOrdered places el before the first sibling whose grammar rank is
// greater than el's, or appends when no such sibling exists.
func (m *MetadataCompleter) insertOrdered(meta, el *xmlquery.Node) {
	rank, known := articleMetaRank[el.Data]
	if !known {
		dom.AppendChild(meta, el)
		return
	}
	for _, sib := range dom.ChildElements(meta, "") {
		if sr, ok := articleMetaRank[sib.Data]; ok && sr > rank {
			dom.InsertBefore(sib, el)
			return
		}
	}
	dom.AppendChild(meta, el)
}

// reorder restores the grammar-mandated order of the metadata block's
// children. Already-ordered metadata is left byte-identical; only an
// out-of-order block is rebuilt, with whitespace-only text dropped so the
// result is stable on the next run.
func (m *MetadataCompleter) reorder(meta *xmlquery.Node, rep *report.Report) {
	children := dom.ChildElements(meta, "")
	if len(children) < 2 {
		return
	}

	// Unknown tags inherit the rank of their nearest preceding known
	// sibling so they travel with their neighbors.
	keys := make([]int, len(children))
	prev := 0
	sorted := true
	for i, child := range children {
		if rank, ok := articleMetaRank[child.Data]; ok {
			keys[i] = rank
			prev = rank
		} else {
			keys[i] = prev
		}
	}
	for i := 1; i < len(keys); i++ {
		if keys[i] < keys[i-1] {
			sorted = false
			break
		}
	}
	if sorted {
		return
	}

	order := make([]int, len(children))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return keys[order[a]] < keys[order[b]]
	})

	// Rebuild: detach everything and re-append in grammar order. Comments
	// and non-blank text travel with the element that precedes them;
	// whitespace-only text is dropped so the result is stable on re-runs.
	trailing := make(map[*xmlquery.Node][]*xmlquery.Node, len(children))
	var leading []*xmlquery.Node
	var current *xmlquery.Node
	for child := meta.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			current = child
			continue
		}
		if child.Type == xmlquery.TextNode && strings.TrimSpace(child.Data) == "" {
			continue
		}
		if current == nil {
			leading = append(leading, child)
		} else {
			trailing[current] = append(trailing[current], child)
		}
	}
	for child := meta.FirstChild; child != nil; {
		next := child.NextSibling
		dom.Detach(child)
		child = next
	}
	for _, n := range leading {
		dom.AppendChild(meta, n)
	}
	for _, idx := range order {
		el := children[idx]
		dom.AppendChild(meta, el)
		for _, n := range trailing[el] {
			dom.AppendChild(meta, n)
		}
	}
	logging.Repair(m.Name(), "reordered_article_meta")
	rep.Warnf("metadata: reordered article-meta children to grammar order")
}
