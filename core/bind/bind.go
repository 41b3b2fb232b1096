// Package bind finalizes namespace declarations and produces the two
// sibling serializations of the repaired tree: the schema variant carrying
// a schema-location attribute, and the grammar variant carrying the
// document-type declaration the downstream style checker requires.
package bind

import (
	"bytes"
	"fmt"

	"github.com/antchfx/xmlquery"

	"github.com/jatsfix/jatsfix/core/dom"
)

// Namespace URIs declared at the root when the tree uses them.
const (
	XlinkNS  = "http://www.w3.org/1999/xlink"
	MathMLNS = "http://www.w3.org/1998/Math/MathML"
	XSINS    = "http://www.w3.org/2001/XMLSchema-instance"
)

// doctypes holds the official Journal Publishing DTD declarations per
// grammar version.
var doctypes = map[string]string{
	"1.4": `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.4 20240930//EN" "https://jats.nlm.nih.gov/publishing/1.4/JATS-journalpublishing1-4.dtd">`,
	"1.3": `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.3 20210610//EN" "https://jats.nlm.nih.gov/publishing/1.3/JATS-journalpublishing1-3.dtd">`,
	"1.2": `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.2 20190208//EN" "https://jats.nlm.nih.gov/publishing/1.2/JATS-journalpublishing1-2.dtd">`,
	"1.1": `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.1 20151215//EN" "https://jats.nlm.nih.gov/publishing/1.1/JATS-journalpublishing1-1.dtd">`,
	"1.0": `<!DOCTYPE article PUBLIC "-//NLM//DTD JATS (Z39.96) Journal Publishing DTD v1.0 20120330//EN" "https://jats.nlm.nih.gov/publishing/1.0/JATS-journalpublishing1.dtd">`,
}

// SupportedVersion reports whether a grammar version has a known DTD.
func SupportedVersion(version string) bool {
	_, ok := doctypes[version]
	return ok
}

// Binder produces the two output serializations for a configured grammar
// version.
type Binder struct {
	// Version is the target grammar version (1.0-1.4).
	Version string
	// SchemaLocation is written to the root's
	// xsi:noNamespaceSchemaLocation in the schema variant.
	SchemaLocation string
}

// Bind finalizes the root element: namespace declarations required by the
// content, declared exactly once, plus the dtd-version attribute. Both
// variants share this state, keeping their content identical.
func (b *Binder) Bind(doc *dom.Document) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("bind: document has no root element")
	}
	if !SupportedVersion(b.Version) {
		return fmt.Errorf("bind: unsupported grammar version %q", b.Version)
	}

	usesXlink, usesMathML := scanNamespaceUse(root)
	if usesXlink {
		ensureDeclaration(root, "xmlns:xlink", XlinkNS)
	}
	if usesMathML {
		ensureDeclaration(root, "xmlns:mml", MathMLNS)
	}
	dom.SetAttr(root, "dtd-version", b.Version)
	return nil
}

// SchemaVariant serializes the tree with a schema-location attribute for
// validators that resolve schemas by reference. No document-type
// declaration is emitted.
func (b *Binder) SchemaVariant(doc *dom.Document) ([]byte, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("bind: document has no root element")
	}
	ensureDeclaration(root, "xmlns:xsi", XSINS)
	dom.SetAttr(root, "xsi:noNamespaceSchemaLocation", b.SchemaLocation)
	return doc.Serialize(), nil
}

// DTDVariant serializes the tree with the configured document-type
// declaration. The grammar format does not support schema-location
// attributes, so they are removed first.
func (b *Binder) DTDVariant(doc *dom.Document) ([]byte, error) {
	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("bind: document has no root element")
	}
	dom.RemoveAttr(root, "xsi:noNamespaceSchemaLocation")
	dom.RemoveAttr(root, "xmlns:xsi")

	body := doc.Serialize()
	decl := []byte(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	doctype := []byte(doctypes[b.Version] + "\n")

	var buf bytes.Buffer
	if bytes.HasPrefix(body, decl) {
		buf.Write(decl)
		buf.Write(doctype)
		buf.Write(body[len(decl):])
	} else {
		buf.Write(doctype)
		buf.Write(body)
	}
	return buf.Bytes(), nil
}

// scanNamespaceUse reports whether any element or attribute in the tree
// uses the xlink or MathML prefixes.
func scanNamespaceUse(root *xmlquery.Node) (usesXlink, usesMathML bool) {
	dom.Walk(root, func(n *xmlquery.Node) {
		if n.Prefix == "mml" {
			usesMathML = true
		}
		for _, a := range n.Attr {
			if a.Name.Space == "xlink" {
				usesXlink = true
			}
		}
	})
	return usesXlink, usesMathML
}

// ensureDeclaration declares a namespace at the root exactly once.
func ensureDeclaration(root *xmlquery.Node, name, uri string) {
	if _, ok := dom.Attr(root, name); ok {
		return
	}
	dom.SetAttr(root, name, uri)
}
