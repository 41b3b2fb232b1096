package repair

import (
	"strings"
	"testing"

	"github.com/jatsfix/jatsfix/core/dom"
)

func TestMetadataSynthesizesJournalMeta(t *testing.T) {
	doc := mustLoad(t, `<article><front><article-meta><title-group><article-title>T</article-title></title-group></article-meta></front></article>`)
	applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	front := dom.FirstChild(doc.Root(), "front")
	if got := childTags(front); got != "journal-meta,article-meta" {
		t.Fatalf("front children = %q, want journal-meta first", got)
	}

	jm := dom.FirstChild(front, "journal-meta")
	if got := childTags(jm); got != "journal-id,journal-title-group,issn,publisher" {
		t.Errorf("journal-meta children = %q", got)
	}
	out := serialized(doc)
	for _, want := range []string{
		`journal-id-type="publisher-id"`,
		"Unknown Journal",
		`pub-type="epub"`,
		"0000-0000",
		"Unknown Publisher",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("journal-meta missing %q:\n%s", want, out)
		}
	}
}

func TestMetadataSynthesizesRequiredChildren(t *testing.T) {
	doc := mustLoad(t, `<article><front><journal-meta><journal-id>j</journal-id></journal-meta><article-meta></article-meta></front></article>`)
	applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	meta := dom.FirstChild(dom.FirstChild(doc.Root(), "front"), "article-meta")
	if got := childTags(meta); got != "title-group,pub-date,elocation-id" {
		t.Fatalf("article-meta children = %q", got)
	}

	pd := dom.FirstChild(meta, "pub-date")
	if v, _ := dom.Attr(pd, "date-type"); v != "pub" {
		t.Errorf("pub-date date-type = %q", v)
	}
	if v, _ := dom.Attr(pd, "publication-format"); v != "electronic" {
		t.Errorf("pub-date publication-format = %q", v)
	}
	if got := dom.Text(dom.FirstChild(pd, "year")); got != "2024" {
		t.Errorf("year = %q, want fallback 2024", got)
	}
	if got := dom.Text(dom.FirstChild(meta, "title-group")); got != "Untitled Article" {
		t.Errorf("title placeholder = %q", got)
	}
	if got := dom.Text(dom.FirstChild(meta, "elocation-id")); got != "e00001" {
		t.Errorf("elocation-id = %q", got)
	}
}

func TestMetadataRespectsExistingPagination(t *testing.T) {
	doc := mustLoad(t, `<article><front><journal-meta><journal-id>j</journal-id></journal-meta><article-meta><title-group><article-title>T</article-title></title-group><pub-date date-type="pub"><year>2020</year></pub-date><fpage>10</fpage></article-meta></front></article>`)
	rep := applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	meta := dom.FirstChild(dom.FirstChild(doc.Root(), "front"), "article-meta")
	if dom.FirstChild(meta, "elocation-id") != nil {
		t.Error("elocation-id must not be synthesized when fpage exists")
	}
	if len(rep.Warnings) != 0 {
		t.Errorf("complete metadata should need no repairs, got %v", rep.Warnings)
	}
}

func TestMetadataSynthesizesMissingFront(t *testing.T) {
	doc := mustLoad(t, `<article><body><p>Text.</p></body></article>`)
	applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	if got := childTags(doc.Root()); got != "front,body" {
		t.Fatalf("article children = %q, want front before body", got)
	}
	front := dom.FirstChild(doc.Root(), "front")
	if got := childTags(front); got != "journal-meta,article-meta" {
		t.Errorf("front children = %q", got)
	}
}

func TestMetadataReorder(t *testing.T) {
	doc := mustLoad(t, `<article><front><journal-meta><journal-id>j</journal-id></journal-meta><article-meta><abstract><p>A</p></abstract><title-group><article-title>T</article-title></title-group><pub-date date-type="pub"><year>2020</year></pub-date><fpage>1</fpage></article-meta></front></article>`)
	rep := applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	meta := dom.FirstChild(dom.FirstChild(doc.Root(), "front"), "article-meta")
	if got := childTags(meta); got != "title-group,pub-date,fpage,abstract" {
		t.Errorf("reordered children = %q", got)
	}
	found := false
	for _, w := range rep.Warnings {
		if strings.Contains(w, "reordered") {
			found = true
		}
	}
	if !found {
		t.Errorf("reorder should be reported, warnings: %v", rep.Warnings)
	}
}

func TestMetadataReorderKeepsComments(t *testing.T) {
	doc := mustLoad(t, `<article><front><journal-meta><journal-id>j</journal-id></journal-meta><article-meta><fpage>1</fpage><!-- title note --><title-group><article-title>T</article-title></title-group><pub-date date-type="pub"><year>2020</year></pub-date></article-meta></front></article>`)
	applyStage(t, &MetadataCompleter{FallbackYear: 2024}, doc)

	out := serialized(doc)
	if !strings.Contains(out, "title note") {
		t.Errorf("comment dropped during reorder:\n%s", out)
	}
}

func TestMetadataIdempotent(t *testing.T) {
	doc := mustLoad(t, `<article><body><p>Text.</p></body></article>`)
	m := &MetadataCompleter{FallbackYear: 2024}

	applyStage(t, m, doc)
	first := serialized(doc)

	rep := applyStage(t, m, doc)
	if len(rep.Warnings) != 0 {
		t.Errorf("second pass should repair nothing, got %v", rep.Warnings)
	}
	if got := serialized(doc); got != first {
		t.Errorf("second pass changed output:\nfirst:  %s\nsecond: %s", first, got)
	}
}
