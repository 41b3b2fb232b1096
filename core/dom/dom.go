// Package dom provides the mutable document tree the repair engine operates
// on. It wraps xmlquery nodes with the ownership and mutation rules the
// pipeline needs: ordered children, an attribute map per element, weak parent
// back-references, and sibling-level insertion that xmlquery itself does not
// expose.
package dom

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/antchfx/xmlquery"
)

// ErrParse is the only fatal condition in the engine: the input could not be
// parsed as XML at all.
var ErrParse = errors.New("document is not parseable XML")

// Document owns a parsed tree. The document node is never exposed; callers
// work with the root element and below.
type Document struct {
	doc *xmlquery.Node
}

// Load parses raw document text into a Document using a lenient decoder, so
// minor well-formedness defects in converter output do not abort processing.
// Any DOCTYPE directive in the prolog is dropped; the binder re-emits the
// configured one on serialization.
func Load(r io.Reader) (*Document, error) {
	opts := xmlquery.ParserOptions{
		Decoder: &xmlquery.DecoderOptions{
			Strict: false,
			Entity: map[string]string{},
		},
	}
	doc, err := xmlquery.ParseWithOptions(r, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	var root *xmlquery.Node
	for child := doc.FirstChild; child != nil; {
		next := child.NextSibling
		switch child.Type {
		case xmlquery.NotationNode:
			Detach(child)
		case xmlquery.ElementNode:
			if root == nil {
				root = child
			}
		}
		child = next
	}
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return &Document{doc: doc}, nil
}

// LoadBytes parses an in-memory document.
func LoadBytes(data []byte) (*Document, error) {
	return Load(bytes.NewReader(data))
}

// Root returns the document's root element.
func (d *Document) Root() *xmlquery.Node {
	for child := d.doc.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return child
		}
	}
	return nil
}

// Serialize emits the document as UTF-8 XML with a declaration. Output is
// stable under a parse/serialize round trip, which is what makes the full
// pipeline idempotent on its own output.
func (d *Document) Serialize() []byte {
	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	if root := d.Root(); root != nil {
		buf.WriteString(root.OutputXML(true))
	}
	buf.WriteByte('\n')
	return buf.Bytes()
}

// NewElement creates a detached element node. The tag may carry a prefix
// ("mml:math"); the prefix is stored separately so serialization reproduces
// the qualified name.
func NewElement(tag string) *xmlquery.Node {
	prefix, local := splitQName(tag)
	return &xmlquery.Node{Type: xmlquery.ElementNode, Data: local, Prefix: prefix}
}

// NewText creates a detached text node.
func NewText(text string) *xmlquery.Node {
	return &xmlquery.Node{Type: xmlquery.TextNode, Data: text}
}

// AppendChild attaches n as the last child of parent.
func AppendChild(parent, n *xmlquery.Node) {
	n.Parent = parent
	n.NextSibling = nil
	if parent.FirstChild == nil {
		parent.FirstChild = n
		n.PrevSibling = nil
	} else {
		parent.LastChild.NextSibling = n
		n.PrevSibling = parent.LastChild
	}
	parent.LastChild = n
}

// InsertBefore attaches n as the previous sibling of ref.
func InsertBefore(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.PrevSibling = ref.PrevSibling
	n.NextSibling = ref
	if ref.PrevSibling != nil {
		ref.PrevSibling.NextSibling = n
	} else if ref.Parent != nil {
		ref.Parent.FirstChild = n
	}
	ref.PrevSibling = n
}

// InsertAfter attaches n as the next sibling of ref.
func InsertAfter(ref, n *xmlquery.Node) {
	n.Parent = ref.Parent
	n.NextSibling = ref.NextSibling
	n.PrevSibling = ref
	if ref.NextSibling != nil {
		ref.NextSibling.PrevSibling = n
	} else if ref.Parent != nil {
		ref.Parent.LastChild = n
	}
	ref.NextSibling = n
}

// Detach removes n from its parent, leaving siblings correctly linked. The
// node keeps its own children and can be re-attached elsewhere.
func Detach(n *xmlquery.Node) {
	if n.Parent != nil {
		if n.Parent.FirstChild == n {
			n.Parent.FirstChild = n.NextSibling
		}
		if n.Parent.LastChild == n {
			n.Parent.LastChild = n.PrevSibling
		}
	}
	if n.PrevSibling != nil {
		n.PrevSibling.NextSibling = n.NextSibling
	}
	if n.NextSibling != nil {
		n.NextSibling.PrevSibling = n.PrevSibling
	}
	n.Parent = nil
	n.PrevSibling = nil
	n.NextSibling = nil
}

// Attr returns the value of the named attribute. Prefixed names ("xsi:type")
// match on the stored prefix.
func Attr(n *xmlquery.Node, name string) (string, bool) {
	prefix, local := splitQName(name)
	for _, a := range n.Attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr sets or replaces the named attribute, preserving the position of an
// existing attribute so repeated runs serialize identically.
func SetAttr(n *xmlquery.Node, name, value string) {
	prefix, local := splitQName(name)
	for i, a := range n.Attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			n.Attr[i].Value = value
			return
		}
	}
	n.Attr = append(n.Attr, xmlquery.Attr{
		Name:  xml.Name{Space: prefix, Local: local},
		Value: value,
	})
}

// RemoveAttr deletes the named attribute if present.
func RemoveAttr(n *xmlquery.Node, name string) {
	prefix, local := splitQName(name)
	for i, a := range n.Attr {
		if a.Name.Space == prefix && a.Name.Local == local {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}

// AttrName composes the serialized name of an attribute ("data-x",
// "xlink:href").
func AttrName(a xmlquery.Attr) string {
	if a.Name.Space != "" {
		return a.Name.Space + ":" + a.Name.Local
	}
	return a.Name.Local
}

// QName composes the qualified tag name of an element.
func QName(n *xmlquery.Node) string {
	if n.Prefix != "" {
		return n.Prefix + ":" + n.Data
	}
	return n.Data
}

// ChildElements returns the direct element children of n, optionally filtered
// by tag name. An empty tag matches every element.
func ChildElements(n *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type != xmlquery.ElementNode {
			continue
		}
		if tag == "" || QName(child) == tag {
			out = append(out, child)
		}
	}
	return out
}

// FirstChild returns the first direct element child with the given tag.
func FirstChild(n *xmlquery.Node, tag string) *xmlquery.Node {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode && QName(child) == tag {
			return child
		}
	}
	return nil
}

// Text returns the concatenated text content of a node.
func Text(n *xmlquery.Node) string {
	return n.InnerText()
}

// Walk visits n and every descendant element in document order. Mutating the
// tree during a walk is unsafe; collect targets first, then mutate.
func Walk(n *xmlquery.Node, visit func(*xmlquery.Node)) {
	if n.Type == xmlquery.ElementNode {
		visit(n)
	}
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		Walk(child, visit)
	}
}

// Elements collects every descendant element (including root itself) with the
// given tag name. Safe to mutate afterwards.
func Elements(root *xmlquery.Node, tag string) []*xmlquery.Node {
	var out []*xmlquery.Node
	Walk(root, func(n *xmlquery.Node) {
		if QName(n) == tag {
			out = append(out, n)
		}
	})
	return out
}

// IDs builds the id registry: every id attribute value mapped to its owning
// element. The registry is a snapshot; it must be rebuilt after any mutation
// and never read stale.
func IDs(root *xmlquery.Node) map[string]*xmlquery.Node {
	ids := make(map[string]*xmlquery.Node)
	Walk(root, func(n *xmlquery.Node) {
		if id, ok := Attr(n, "id"); ok && id != "" {
			if _, taken := ids[id]; !taken {
				ids[id] = n
			}
		}
	})
	return ids
}

// HasElementChildren reports whether n has at least one element child.
// Comments and whitespace do not count as meaningful content.
func HasElementChildren(n *xmlquery.Node) bool {
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		if child.Type == xmlquery.ElementNode {
			return true
		}
	}
	return false
}

func splitQName(name string) (prefix, local string) {
	if i := strings.IndexByte(name, ':'); i >= 0 {
		return name[:i], name[i+1:]
	}
	return "", name
}
