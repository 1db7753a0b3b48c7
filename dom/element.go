package dom

import (
	"bytes"
	"io"
	"slices"

	"golang.org/x/net/html"

	"github.com/CreativeUnicorns/addonprefs"
)

// Element wraps one element node of a Document.
type Element struct {
	node      *html.Node
	doc       *Document
	namespace string
	listeners map[string][]addonprefs.EventListener
}

// TagName returns the element's tag as created.
func (e *Element) TagName() string {
	return e.node.Data
}

// Namespace returns the namespace URI the element was created in.
func (e *Element) Namespace() string {
	return e.namespace
}

// SetAttribute sets or replaces an attribute.
func (e *Element) SetAttribute(name, value string) {
	for i, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			e.node.Attr[i].Val = value
			return
		}
	}
	e.node.Attr = append(e.node.Attr, html.Attribute{Key: name, Val: value})
}

// GetAttribute returns the attribute value, or "" when it is not set.
func (e *Element) GetAttribute(name string) string {
	return attr(e.node, name)
}

// LookupAttribute reports whether the attribute is set.
func (e *Element) LookupAttribute(name string) (string, bool) {
	for _, a := range e.node.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// RemoveAttribute deletes an attribute if present.
func (e *Element) RemoveAttribute(name string) {
	e.node.Attr = slices.DeleteFunc(e.node.Attr, func(a html.Attribute) bool {
		return a.Namespace == "" && a.Key == name
	})
}

// Attributes returns a copy of the attributes in insertion order.
func (e *Element) Attributes() []html.Attribute {
	return slices.Clone(e.node.Attr)
}

// AppendChild moves child to the end of e's children and returns it.
// child must have been created by the same Document.
func (e *Element) AppendChild(child addonprefs.Element) addonprefs.Element {
	c, ok := child.(*Element)
	if !ok || c.doc != e.doc {
		panic("dom: AppendChild of an element from another document")
	}
	if c.node.Parent != nil {
		c.node.Parent.RemoveChild(c.node)
	}
	e.node.AppendChild(c.node)
	return c
}

// Remove detaches e from its parent.
func (e *Element) Remove() {
	if e.node.Parent != nil {
		e.node.Parent.RemoveChild(e.node)
	}
}

// Parent returns the parent element, or nil.
func (e *Element) Parent() *Element {
	p := e.node.Parent
	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p, "")
}

// Children returns the element children in order.
func (e *Element) Children() []*Element {
	var out []*Element
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			out = append(out, e.doc.wrap(c, ""))
		}
	}
	return out
}

// SetText replaces the children of e with a single text node.
func (e *Element) SetText(text string) {
	for c := e.node.FirstChild; c != nil; {
		next := c.NextSibling
		e.node.RemoveChild(c)
		c = next
	}
	e.node.AppendChild(&html.Node{Type: html.TextNode, Data: text})
}

// Text returns the concatenated text content of e.
func (e *Element) Text() string {
	var buf bytes.Buffer
	walk(e.node, func(n *html.Node) bool {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		return true
	})
	return buf.String()
}

// AddEventListener registers fn for events of eventType.
func (e *Element) AddEventListener(eventType string, fn addonprefs.EventListener) {
	if fn == nil {
		return
	}
	if e.listeners == nil {
		e.listeners = make(map[string][]addonprefs.EventListener)
	}
	e.listeners[eventType] = append(e.listeners[eventType], fn)
}

// Listeners reports how many listeners are registered for eventType.
func (e *Element) Listeners(eventType string) int {
	return len(e.listeners[eventType])
}

// DispatchEvent runs e's listeners for ev.Type in registration order and
// returns how many ran. Events do not bubble.
func (e *Element) DispatchEvent(ev addonprefs.Event) int {
	fns := slices.Clone(e.listeners[ev.Type])
	for _, fn := range fns {
		fn(ev)
	}
	return len(fns)
}

// Render writes e and its subtree as HTML.
func (e *Element) Render(w io.Writer) error {
	return html.Render(w, e.node)
}

// OuterHTML renders e, returning an empty string on failure.
func (e *Element) OuterHTML() string {
	var buf bytes.Buffer
	if err := e.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}
