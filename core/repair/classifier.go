package repair

import "strings"

// Classification is the outcome of inspecting a math-like placeholder.
type Classification int

const (
	// ClassFormula means the content is genuine mathematical notation and
	// must be left untouched.
	ClassFormula Classification = iota
	// ClassCitation means the content is a superscript citation marker to
	// be expanded into cross-reference links.
	ClassCitation
	// ClassAmbiguous means the heuristic could not confidently decide;
	// the content is left untouched and flagged.
	ClassAmbiguous
)

// Classifier decides whether a math placeholder payload is a citation
// marker. It is pluggable so thresholds can be tuned or the whole strategy
// swapped without touching the pipeline.
type Classifier interface {
	Classify(content string) (Classification, *Marker)
}

// ThresholdClassifier is the default heuristic. A payload is a citation
// candidate when it is short and shaped like optional punctuation followed
// by a superscript group of digits, commas, and ranges. Operators, long
// expressions, and complete formula markers are genuine math.
type ThresholdClassifier struct {
	// MaxMarkerLength is the longest payload still considered a possible
	// marker.
	MaxMarkerLength int
	// MaxRangeSpan bounds how many references one range may expand to.
	MaxRangeSpan int
}

// DefaultClassifier returns the classifier with stock thresholds.
func DefaultClassifier() *ThresholdClassifier {
	return &ThresholdClassifier{MaxMarkerLength: 24, MaxRangeSpan: 50}
}

// formulaFragments mark content that is certainly notation, not a marker.
var formulaFragments = []string{
	`\documentclass`,
	`\begin{`,
	`\frac`,
	`=`,
}

// Classify implements Classifier.
func (c *ThresholdClassifier) Classify(content string) (Classification, *Marker) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return ClassFormula, nil
	}
	for _, fragment := range formulaFragments {
		if strings.Contains(trimmed, fragment) {
			return ClassFormula, nil
		}
	}
	if !looksLikeMarker(trimmed) {
		return ClassFormula, nil
	}
	if c.MaxMarkerLength > 0 && len(trimmed) > c.MaxMarkerLength {
		return ClassFormula, nil
	}

	marker, err := parseMarker(trimmed, c.MaxRangeSpan)
	if err != nil {
		// Shaped like a marker but unparseable: do not guess.
		return ClassAmbiguous, nil
	}
	return ClassCitation, marker
}

// looksLikeMarker is a cheap shape test: optional punctuation, then a
// superscript group containing only digits, commas, dashes, and spaces.
func looksLikeMarker(s string) bool {
	i := strings.Index(s, "^{")
	if i < 0 || !strings.HasSuffix(s, "}") {
		return false
	}
	for _, r := range s[:i] {
		if !strings.ContainsRune(".,;:!? ", r) {
			return false
		}
	}
	body := s[i+2 : len(s)-1]
	if body == "" {
		return false
	}
	for _, r := range body {
		switch {
		case r >= '0' && r <= '9':
		case r == ',' || r == '-' || r == '–' || r == ' ':
		default:
			return false
		}
	}
	return true
}
