package transform

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

// node is a minimal XML tree. Text content is represented as child nodes with
// an empty name so mixed content keeps its order. Serialization is fully
// deterministic: attribute order is preserved and no state leaks between
// documents.
type node struct {
	name xml.Name
	attr []xml.Attr
	text string
	kids []*node
}

func (n *node) isText() bool { return n.name.Local == "" }

func (n *node) attrValue(name string) (string, bool) {
	for _, a := range n.attr {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *node) setAttr(name, value string) {
	for i, a := range n.attr {
		if a.Name.Local == name {
			n.attr[i].Value = value
			return
		}
	}
	n.attr = append(n.attr, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// firstElement returns the first non-text child, if any.
func (n *node) firstElement() *node {
	for _, kid := range n.kids {
		if !kid.isText() {
			return kid
		}
	}
	return nil
}

// walk visits n and all element descendants in document order.
func (n *node) walk(visit func(*node)) {
	visit(n)
	for _, kid := range n.kids {
		if !kid.isText() {
			kid.walk(visit)
		}
	}
}

// parseDocument parses an XML document and returns its root element. Empty
// input and input without a root element are parse errors.
func parseDocument(doc []byte) (*node, error) {
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, errdef.NewMalformed("empty XML document")
	}

	decoder := xml.NewDecoder(bytes.NewReader(doc))
	var root *node
	var stack []*node

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errdef.NewMalformed("invalid XML: %v", err)
		}

		switch t := token.(type) {
		case xml.StartElement:
			element := &node{name: t.Name, attr: copyAttrs(t.Attr)}
			if len(stack) == 0 {
				if root != nil {
					return nil, errdef.NewMalformed("multiple root elements")
				}
				root = element
			} else {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, element)
			}
			stack = append(stack, element)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.kids = append(parent.kids, &node{text: string(t)})
			}
		}
	}

	if root == nil {
		return nil, errdef.NewMalformed("no root element found")
	}
	if len(stack) != 0 {
		return nil, errdef.NewMalformed("unclosed element %q", stack[len(stack)-1].name.Local)
	}
	return root, nil
}

func copyAttrs(attrs []xml.Attr) []xml.Attr {
	if len(attrs) == 0 {
		return nil
	}
	copied := make([]xml.Attr, len(attrs))
	copy(copied, attrs)
	return copied
}

// serialize renders the tree using local element names. Namespace prefixes
// are dropped, matching the flattened HTML/model fragments this pipeline
// emits.
func serialize(n *node) string {
	var b strings.Builder
	writeNode(&b, n)
	return b.String()
}

func writeNode(b *strings.Builder, n *node) {
	if n.isText() {
		_ = xml.EscapeText(b, []byte(n.text))
		return
	}

	b.WriteByte('<')
	b.WriteString(n.name.Local)
	for _, a := range n.attr {
		if a.Name.Space == "xmlns" || (a.Name.Space == "" && a.Name.Local == "xmlns") {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a.Name.Local)
		b.WriteString(`="`)
		_ = xml.EscapeText(b, []byte(a.Value))
		b.WriteByte('"')
	}

	if len(n.kids) == 0 {
		// TODO: self-closing tags are invalid for some empty HTML elements,
		// the renderer currently tolerates them
		b.WriteString("/>")
		return
	}

	b.WriteByte('>')
	for _, kid := range n.kids {
		writeNode(b, kid)
	}
	b.WriteString("</")
	b.WriteString(n.name.Local)
	b.WriteByte('>')
}
