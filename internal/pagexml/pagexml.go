// Package pagexml edits the XML document OneNote returns for a single page.
//
// Every element created here is bound to the OneNote 2013 namespace. Body
// content is stored verbatim as CDATA; OneNote interprets it as HTML.
package pagexml

import (
	"errors"
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// Namespace is the OneNote 2013 page schema.
const Namespace = "http://schemas.microsoft.com/office/onenote/2013/onenote"

const defaultPrefix = "one"

// Parse reads a page document.
func Parse(s string) (*etree.Document, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromString(strings.TrimPrefix(s, "\ufeff")); err != nil {
		return nil, fmt.Errorf("pagexml: parse: %w", err)
	}
	if doc.Root() == nil {
		return nil, errors.New("pagexml: document has no root element")
	}
	return doc, nil
}

// Serialize writes doc back to a string.
func Serialize(doc *etree.Document) (string, error) {
	s, err := doc.WriteToString()
	if err != nil {
		return "", fmt.Errorf("pagexml: serialize: %w", err)
	}
	return s, nil
}

// PageID returns the ID attribute of the page element.
func PageID(doc *etree.Document) string {
	if root := doc.Root(); root != nil {
		return root.SelectAttrValue("ID", "")
	}
	return ""
}

// SetTitle replaces the text of //one:Title/one:OE/one:T with text. It
// reports false, leaving doc untouched, when the page has no title node.
func SetTitle(doc *etree.Document, text string) bool {
	t := titleNode(doc)
	if t == nil {
		return false
	}
	for len(t.Child) > 0 {
		t.RemoveChildAt(0)
	}
	t.CreateCData(cdataSafe(text))
	return true
}

// Title returns the current page title text, or "" when there is none.
func Title(doc *etree.Document) string {
	if t := titleNode(doc); t != nil {
		return t.Text()
	}
	return ""
}

// AppendBody adds one paragraph of content as the last child of the page:
//
//	<one:Outline><one:OEChildren><one:OE><one:T><![CDATA[fragment]]></one:T></one:OE></one:OEChildren></one:Outline>
//
// Existing outlines are never replaced.
func AppendBody(doc *etree.Document, fragment string) error {
	root := doc.Root()
	if root == nil {
		return errors.New("pagexml: document has no root element")
	}
	prefix := bindPrefix(root)
	q := func(local string) string {
		if prefix == "" {
			return local
		}
		return prefix + ":" + local
	}

	outline := etree.NewElement(q("Outline"))
	oe := outline.CreateElement(q("OEChildren")).CreateElement(q("OE"))
	oe.CreateElement(q("T")).CreateCData(cdataSafe(fragment))
	root.AddChild(outline)
	return nil
}

func titleNode(doc *etree.Document) *etree.Element {
	for _, t := range doc.FindElements("//Title/OE/T") {
		oe := t.Parent()
		title := oe.Parent()
		if inNamespace(t) && inNamespace(oe) && inNamespace(title) {
			return t
		}
	}
	return nil
}

func inNamespace(e *etree.Element) bool {
	return e != nil && e.NamespaceURI() == Namespace
}

// bindPrefix returns the prefix the root binds to Namespace, declaring
// xmlns:one (or a free variant) when none is bound. An empty result means
// Namespace is the default namespace.
func bindPrefix(root *etree.Element) string {
	if root.Space != "" && root.NamespaceURI() == Namespace {
		return root.Space
	}
	taken := make(map[string]bool)
	defaultNS := ""
	for _, a := range root.Attr {
		switch {
		case a.Space == "xmlns" && a.Value == Namespace:
			return a.Key
		case a.Space == "xmlns":
			taken[a.Key] = true
		case a.Space == "" && a.Key == "xmlns":
			defaultNS = a.Value
		}
	}
	if defaultNS == Namespace && root.Space == "" {
		return ""
	}

	prefix := defaultPrefix
	for i := 1; taken[prefix]; i++ {
		prefix = fmt.Sprintf("%s%d", defaultPrefix, i)
	}
	root.CreateAttr("xmlns:"+prefix, Namespace)
	return prefix
}

// cdataSafe splits any "]]>" so the fragment survives inside one CDATA token.
func cdataSafe(s string) string {
	return strings.ReplaceAll(s, "]]>", "]]]]><![CDATA[>")
}
