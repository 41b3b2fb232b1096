package repair

import (
	"strings"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// Sanitizer strips authoring-only attributes the target grammar never
// allows: anything under a banned prefix (data-*) plus an explicit
// deny-list (presentation hints like class/style). Grammar-legal attributes
// such as id, rid, position, colspan, and rowspan pass through untouched.
type Sanitizer struct {
	BannedPrefixes []string
	DenyList       []string
}

// Name implements Stage.
func (s *Sanitizer) Name() string { return "sanitize" }

// Apply implements Stage. A second pass finds nothing left to remove.
func (s *Sanitizer) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}
	removed := 0
	dom.Walk(root, func(n *xmlquery.Node) {
		var banned []string
		for _, a := range n.Attr {
			name := dom.AttrName(a)
			if s.banned(name) {
				banned = append(banned, name)
			}
		}
		for _, name := range banned {
			dom.RemoveAttr(n, name)
			removed++
		}
	})
	if removed > 0 {
		logging.Repair(s.Name(), "removed_attributes", "count", removed)
		rep.Warnf("sanitizer removed %d non-grammar attribute(s)", removed)
	}
	return nil
}

func (s *Sanitizer) banned(name string) bool {
	for _, prefix := range s.BannedPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	for _, deny := range s.DenyList {
		if name == deny {
			return true
		}
	}
	return false
}
