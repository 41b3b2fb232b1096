package repair

import (
	"fmt"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Marker is a decoded citation marker: the ordered reference numbers after
// expanding comma lists and ranges, plus any punctuation that preceded the
// marker in the original content.
type Marker struct {
	Lead    string
	Numbers []int
}

// markerExpr is the surface grammar of a superscript citation marker:
// optional leading punctuation, then "^{" items "}" where each item is a
// number or a number range.
type markerExpr struct {
	Lead  string       `parser:"@Punct?"`
	First markerItem   `parser:"'^' '{' @@"`
	Rest  []markerItem `parser:"( ',' @@ )* '}'"`
}

type markerItem struct {
	Start int  `parser:"@Number"`
	End   *int `parser:"( '-' @Number )?"`
}

var markerLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Punct", Pattern: `[.,;:!?]+`},
	{Name: "Number", Pattern: `\d+`},
	{Name: "Caret", Pattern: `\^`},
	{Name: "LBrace", Pattern: `\{`},
	{Name: "RBrace", Pattern: `\}`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var markerParser = participle.MustBuild[markerExpr](
	participle.Lexer(markerLexer),
	participle.Elide("Whitespace"),
)

// parseMarker parses a citation marker payload such as "^{5}", "^{5,6}",
// ".^{1-3}". En dashes are treated as range separators. The maxSpan bound
// keeps a mistyped range from fabricating an absurd number of references.
func parseMarker(input string, maxSpan int) (*Marker, error) {
	normalized := strings.ReplaceAll(strings.TrimSpace(input), "–", "-")

	expr, err := markerParser.ParseString("", normalized)
	if err != nil {
		return nil, fmt.Errorf("parsing citation marker %q: %w", input, err)
	}

	items := append([]markerItem{expr.First}, expr.Rest...)
	marker := &Marker{Lead: expr.Lead}
	for _, item := range items {
		if item.Start < 1 {
			return nil, fmt.Errorf("citation marker %q: reference number must be positive", input)
		}
		if item.End == nil {
			marker.Numbers = append(marker.Numbers, item.Start)
			continue
		}
		if *item.End < item.Start {
			return nil, fmt.Errorf("citation marker %q: descending range", input)
		}
		if span := *item.End - item.Start + 1; maxSpan > 0 && span > maxSpan {
			return nil, fmt.Errorf("citation marker %q: range spans %d references", input, span)
		}
		for n := item.Start; n <= *item.End; n++ {
			marker.Numbers = append(marker.Numbers, n)
		}
	}
	return marker, nil
}
