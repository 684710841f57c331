package transform

import (
	"encoding/xml"
	"strings"

	"github.com/odk-sre/webform-manager/internal/errdef"
)

// Stylesheet is one of the two fixed form transforms. Apply renders the XForm
// document into an output fragment wrapped in a single throwaway root
// element, which the engine strips afterwards. Implementations must be
// stateless so concurrent applications cannot interfere, and deterministic so
// identical input yields byte-identical output.
type Stylesheet interface {
	Apply(doc []byte) (string, error)
	Version() string
}

const (
	formStylesheetVersion  = "openrosa2html5form/1.0.0"
	modelStylesheetVersion = "openrosa2xmlmodel/1.0.0"
)

// NewFormStylesheet returns the built-in XForm to HTML form transform.
func NewFormStylesheet() Stylesheet { return formStylesheet{} }

// NewModelStylesheet returns the built-in XForm to XML instance model
// transform.
func NewModelStylesheet() Stylesheet { return modelStylesheet{} }

type formStylesheet struct{}

func (formStylesheet) Version() string { return formStylesheetVersion }

func (formStylesheet) Apply(doc []byte) (string, error) {
	root, err := parseDocument(doc)
	if err != nil {
		return "", err
	}

	form := &node{name: xml.Name{Local: "form"}}
	form.setAttr("class", "or")
	form.setAttr("autocomplete", "off")
	form.setAttr("novalidate", "novalidate")

	if id := primaryInstanceID(root); id != "" {
		form.setAttr("data-form-id", id)
	}
	form.kids = append(form.kids, &node{
		name: xml.Name{Local: "section"},
		attr: []xml.Attr{{Name: xml.Name{Local: "class"}, Value: "form-logo"}},
	})
	if title := formTitle(root); title != "" {
		form.kids = append(form.kids, &node{
			name: xml.Name{Local: "h3"},
			attr: []xml.Attr{{Name: xml.Name{Local: "id"}, Value: "form-title"}},
			kids: []*node{{text: title}},
		})
	}

	body := findChild(root, "body")
	if body == nil {
		return "", errdef.NewTransform("form has no body element")
	}
	for _, kid := range body.kids {
		if kid.isText() {
			continue
		}
		form.kids = append(form.kids, renderControl(kid))
	}

	wrapper := &node{name: xml.Name{Local: "root"}, kids: []*node{form}}
	return serialize(wrapper), nil
}

func renderControl(control *node) *node {
	label := childText(control, "label")
	ref, _ := control.attrValue("ref")
	if ref == "" {
		ref, _ = control.attrValue("nodeset")
	}

	switch control.name.Local {
	case "group":
		section := &node{name: xml.Name{Local: "section"}}
		section.setAttr("class", "or-group")
		if ref != "" {
			section.setAttr("name", ref)
		}
		if label != "" {
			section.kids = append(section.kids, &node{
				name: xml.Name{Local: "h4"},
				kids: []*node{{text: label}},
			})
		}
		for _, kid := range control.kids {
			if kid.isText() || kid.name.Local == "label" {
				continue
			}
			section.kids = append(section.kids, renderControl(kid))
		}
		return section
	case "repeat":
		section := &node{name: xml.Name{Local: "section"}}
		section.setAttr("class", "or-repeat")
		if ref != "" {
			section.setAttr("name", ref)
		}
		for _, kid := range control.kids {
			if kid.isText() || kid.name.Local == "label" {
				continue
			}
			section.kids = append(section.kids, renderControl(kid))
		}
		return section
	case "select1", "select":
		inputType := "radio"
		class := "question simple-select"
		if control.name.Local == "select" {
			inputType = "checkbox"
		}
		fieldset := &node{name: xml.Name{Local: "fieldset"}}
		fieldset.setAttr("class", class)
		legend := &node{name: xml.Name{Local: "legend"}, kids: []*node{{text: label}}}
		fieldset.kids = append(fieldset.kids, legend)
		for _, item := range control.kids {
			if item.isText() || item.name.Local != "item" {
				continue
			}
			option := &node{name: xml.Name{Local: "label"}}
			option.setAttr("class", "option-wrapper")
			input := &node{name: xml.Name{Local: "input"}}
			input.setAttr("type", inputType)
			input.setAttr("name", ref)
			input.setAttr("value", childText(item, "value"))
			option.kids = append(option.kids,
				input,
				&node{
					name: xml.Name{Local: "span"},
					attr: []xml.Attr{{Name: xml.Name{Local: "class"}, Value: "option-label"}},
					kids: []*node{{text: childText(item, "label")}},
				},
			)
			fieldset.kids = append(fieldset.kids, option)
		}
		return fieldset
	case "upload":
		question := questionLabel(label)
		input := &node{name: xml.Name{Local: "input"}}
		input.setAttr("type", "file")
		input.setAttr("name", ref)
		question.kids = append(question.kids, input)
		return question
	default:
		question := questionLabel(label)
		input := &node{name: xml.Name{Local: "input"}}
		input.setAttr("type", "text")
		input.setAttr("name", ref)
		question.kids = append(question.kids, input)
		return question
	}
}

func questionLabel(label string) *node {
	question := &node{name: xml.Name{Local: "label"}}
	question.setAttr("class", "question non-select")
	if label != "" {
		question.kids = append(question.kids, &node{
			name: xml.Name{Local: "span"},
			attr: []xml.Attr{{Name: xml.Name{Local: "class"}, Value: "question-label"}},
			kids: []*node{{text: label}},
		})
	}
	return question
}

type modelStylesheet struct{}

func (modelStylesheet) Version() string { return modelStylesheetVersion }

func (modelStylesheet) Apply(doc []byte) (string, error) {
	root, err := parseDocument(doc)
	if err != nil {
		return "", err
	}

	xformModel := findModel(root)
	if xformModel == nil {
		return "", errdef.NewTransform("form has no model element")
	}

	out := &node{name: xml.Name{Local: "model"}}
	for _, kid := range xformModel.kids {
		if kid.isText() || kid.name.Local != "instance" {
			continue
		}
		out.kids = append(out.kids, kid)
	}
	if len(out.kids) == 0 {
		return "", errdef.NewTransform("form model has no instance")
	}

	wrapper := &node{name: xml.Name{Local: "root"}, kids: []*node{out}}
	return serialize(wrapper), nil
}

func findModel(root *node) *node {
	head := findChild(root, "head")
	if head == nil {
		return nil
	}
	return findChild(head, "model")
}

func findChild(n *node, local string) *node {
	for _, kid := range n.kids {
		if !kid.isText() && kid.name.Local == local {
			return kid
		}
	}
	return nil
}

func childText(n *node, local string) string {
	child := findChild(n, local)
	if child == nil {
		return ""
	}
	var b strings.Builder
	for _, kid := range child.kids {
		if kid.isText() {
			b.WriteString(kid.text)
		}
	}
	return strings.TrimSpace(b.String())
}

func formTitle(root *node) string {
	head := findChild(root, "head")
	if head == nil {
		return ""
	}
	return childText(head, "title")
}

func primaryInstanceID(root *node) string {
	model := findModel(root)
	if model == nil {
		return ""
	}
	instance := findChild(model, "instance")
	if instance == nil {
		return ""
	}
	data := instance.firstElement()
	if data == nil {
		return ""
	}
	id, _ := data.attrValue("id")
	return id
}
