package check

import (
	"testing"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
)

const compliantDoc = `<article dtd-version="1.3">
<front>
<journal-meta><journal-id>j</journal-id></journal-meta>
<article-meta>
<title-group><article-title>T</article-title></title-group>
<pub-date date-type="pub"><year>2024</year></pub-date>
</article-meta>
</front>
<body>
<sec id="s1"><p>Text.</p>
<fig id="f1"><caption><p>C</p></caption><graphic xlink:href="f1.png"/></fig>
<table-wrap id="t1" position="float"><table><tbody><tr><td>1</td></tr></tbody></table></table-wrap>
</sec>
</body>
<back><ref-list><ref id="r1"><mixed-citation>A.</mixed-citation></ref></ref-list></back>
</article>`

// stubValidator fakes the schema engine for reporter tests.
type stubValidator struct {
	valid bool
	errs  []string
}

func (s *stubValidator) Validate(xmlData []byte) (bool, []string) {
	return s.valid, s.errs
}

func mustLoad(t *testing.T, input string) *dom.Document {
	t.Helper()
	doc, err := dom.LoadBytes([]byte(input))
	if err != nil {
		t.Fatalf("loading fixture: %v", err)
	}
	return doc
}

func checkByName(rep *report.Report, name string) (report.Check, bool) {
	for _, c := range rep.Checks {
		if c.Name == name {
			return c, true
		}
	}
	return report.Check{}, false
}

func TestReporterCompliantDocument(t *testing.T) {
	doc := mustLoad(t, compliantDoc)
	rep := report.New()

	r := &Reporter{Validator: &stubValidator{valid: true}}
	r.Run(doc, doc.Serialize(), rep)
	rep.Finalize()

	if !rep.Passed() {
		t.Fatalf("compliant document should pass, report: %+v", rep)
	}
	for _, c := range rep.Checks {
		if !c.Passed {
			t.Errorf("check %s failed on compliant document", c.Name)
		}
	}
	if _, ok := checkByName(rep, "schema-validation"); !ok {
		t.Error("schema-validation check missing")
	}
}

func TestReporterSchemaFailure(t *testing.T) {
	doc := mustLoad(t, compliantDoc)
	rep := report.New()

	r := &Reporter{Validator: &stubValidator{valid: false, errs: []string{"element out of order"}}}
	r.Run(doc, doc.Serialize(), rep)
	rep.Finalize()

	if rep.Passed() {
		t.Error("failed schema validation must fail the report")
	}
	c, ok := checkByName(rep, "schema-validation")
	if !ok || c.Passed {
		t.Errorf("schema-validation check = %+v", c)
	}
	if len(rep.Errors) != 1 {
		t.Errorf("validator messages should land in errors, got %v", rep.Errors)
	}
}

func TestReporterNilValidator(t *testing.T) {
	doc := mustLoad(t, compliantDoc)
	rep := report.New()

	(&Reporter{}).Run(doc, doc.Serialize(), rep)
	if _, ok := checkByName(rep, "schema-validation"); ok {
		t.Error("schema-validation must be skipped without a validator")
	}
	if len(rep.Checks) == 0 {
		t.Error("structural checks should still run")
	}
}

func TestStructuralChecks(t *testing.T) {
	tests := []struct {
		name      string
		doc       string
		failCheck string
	}{
		{
			name:      "missing journal-meta",
			doc:       `<article><front><article-meta><title-group/><pub-date/></article-meta></front></article>`,
			failCheck: "journal-meta-present",
		},
		{
			name:      "missing article-meta",
			doc:       `<article><front><journal-meta/></front></article>`,
			failCheck: "article-meta-present",
		},
		{
			name:      "missing title-group",
			doc:       `<article><front><journal-meta/><article-meta><pub-date/></article-meta></front></article>`,
			failCheck: "title-group-present",
		},
		{
			name:      "missing pub-date",
			doc:       `<article><front><journal-meta/><article-meta><title-group/></article-meta></front></article>`,
			failCheck: "pub-date-present",
		},
		{
			name:      "illegal table position",
			doc:       `<article><body><table-wrap id="t1" position="top"><table><tbody><tr><td>1</td></tr></tbody></table></table-wrap></body></article>`,
			failCheck: "table-wrap-position",
		},
		{
			name:      "figure without caption",
			doc:       `<article><body><fig id="f1"><graphic xlink:href="f.png"/></fig></body></article>`,
			failCheck: "figure-captions",
		},
		{
			name:      "section without id",
			doc:       `<article><body><sec><p>T.</p></sec></body></article>`,
			failCheck: "identifiers-present",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := mustLoad(t, tt.doc)
			rep := report.New()
			(&Reporter{}).Run(doc, doc.Serialize(), rep)
			rep.Finalize()

			c, ok := checkByName(rep, tt.failCheck)
			if !ok {
				t.Fatalf("check %s not present", tt.failCheck)
			}
			if c.Passed {
				t.Errorf("check %s should fail", tt.failCheck)
			}
			if rep.Passed() {
				t.Error("report should fail overall")
			}
		})
	}
}

func TestReporterDoesNotMutate(t *testing.T) {
	doc := mustLoad(t, compliantDoc)
	before := string(doc.Serialize())

	rep := report.New()
	(&Reporter{Validator: &stubValidator{valid: false, errs: []string{"x"}}}).Run(doc, doc.Serialize(), rep)

	if got := string(doc.Serialize()); got != before {
		t.Error("reporter must never modify the document")
	}
}
