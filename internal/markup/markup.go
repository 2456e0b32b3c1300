// Package markup wraps the parsed rendered document in a small typed
// tree abstraction: locate elements by tag, read and overwrite
// attributes, and serialize the mutated tree back to text.
package markup

import (
	"errors"
	"io"

	"github.com/beevik/etree"
)

const imageTag = "img"

var ErrMalformedMarkup = errors.New("malformed markup document")

// Document is a mutable markup tree.
type Document struct {
	doc *etree.Document
}

// Element is one node of the tree.
type Element struct {
	el *etree.Element
}

// Attr is one attribute assignment. Attributes are applied in slice
// order so serialization stays deterministic.
type Attr struct {
	Key   string
	Value string
}

func Parse(r io.Reader) (*Document, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, errors.Join(ErrMalformedMarkup, err)
	}
	return &Document{doc: doc}, nil
}

// FindByTag returns every element with the given tag, in document order.
func (d *Document) FindByTag(tag string) []*Element {
	found := d.doc.FindElements("//" + tag)
	elements := make([]*Element, 0, len(found))
	for _, el := range found {
		elements = append(elements, &Element{el: el})
	}
	return elements
}

// Images returns every img element in document order.
func (d *Document) Images() []*Element {
	return d.FindByTag(imageTag)
}

// Serialize renders the tree back to indented markup text.
func (d *Document) Serialize() (string, error) {
	d.doc.Indent(2)
	return d.doc.WriteToString()
}

// GetAttribute returns the attribute value and whether it is present.
func (e *Element) GetAttribute(key string) (string, bool) {
	attr := e.el.SelectAttr(key)
	if attr == nil {
		return "", false
	}
	return attr.Value, true
}

// SetAttributes overwrites the given attributes, creating missing ones.
func (e *Element) SetAttributes(attrs []Attr) {
	for _, attr := range attrs {
		e.el.CreateAttr(attr.Key, attr.Value)
	}
}

// RemoveAttribute drops the attribute if present.
func (e *Element) RemoveAttribute(key string) {
	e.el.RemoveAttr(key)
}
