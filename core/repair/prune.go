package repair

import (
	"github.com/jatsfix/jatsfix/core/dom"
	"github.com/jatsfix/jatsfix/core/report"
	"github.com/jatsfix/jatsfix/internal/logging"
)

// Pruner removes designated container elements that hold no meaningful
// content. The target grammar disallows empty instances of these
// containers, so one holding only comments or whitespace must not survive
// into the output. Runs last so it judges the containers on their final
// content.
type Pruner struct {
	// Targets lists the container tags subject to pruning.
	Targets []string
}

// Name implements Stage.
func (p *Pruner) Name() string { return "prune" }

// Apply implements Stage.
func (p *Pruner) Apply(doc *dom.Document, rep *report.Report) error {
	root := doc.Root()
	if root == nil {
		return nil
	}
	// Removing a nested container can empty its parent, so iterate to a
	// fixed point.
	for changed := true; changed; {
		changed = false
		for _, tag := range p.Targets {
			for _, container := range dom.Elements(root, tag) {
				if dom.HasElementChildren(container) {
					continue
				}
				dom.Detach(container)
				changed = true
				logging.Repair(p.Name(), "removed_empty_container", "tag", tag)
				rep.Warnf("prune: removed empty <%s> container", tag)
			}
		}
	}
	return nil
}
