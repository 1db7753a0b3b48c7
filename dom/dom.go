// Package dom is an in-memory document provider backed by golang.org/x/net/html.
// It implements addonprefs.Document and addonprefs.Element so panels can be
// rendered, driven by dispatched events, and serialized to HTML.
//
// A Document is not safe for concurrent use.
package dom

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/CreativeUnicorns/addonprefs"
)

var (
	_ addonprefs.Document = (*Document)(nil)
	_ addonprefs.Element  = (*Element)(nil)
)

// Document owns a node tree and the Element wrappers handed out for it.
type Document struct {
	root     *html.Node
	body     *html.Node
	elements map[*html.Node]*Element
}

// New returns an empty <html><body></body></html> document.
func New() *Document {
	root := &html.Node{Type: html.DocumentNode}
	htmlNode := newElementNode("html")
	body := newElementNode("body")
	htmlNode.AppendChild(newElementNode("head"))
	htmlNode.AppendChild(body)
	root.AppendChild(htmlNode)
	return &Document{root: root, body: body, elements: make(map[*html.Node]*Element)}
}

// NewOptionsPage returns a document whose body holds one empty container
// element with the given id, the shape of an extension details page.
func NewOptionsPage(containerID string) *Document {
	doc := New()
	container := doc.CreateElement("div")
	container.SetAttribute("id", containerID)
	doc.Body().AppendChild(container)
	return doc
}

// Parse reads an HTML document.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dom: parse: %w", err)
	}
	doc := &Document{root: root, elements: make(map[*html.Node]*Element)}
	doc.body = findNode(root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.DataAtom == atom.Body
	})
	return doc, nil
}

func newElementNode(tag string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		Data:     tag,
		DataAtom: atom.Lookup([]byte(tag)),
	}
}

// Body returns the body element, or nil for a parsed fragment without one.
func (d *Document) Body() *Element {
	if d.body == nil {
		return nil
	}
	return d.wrap(d.body, "")
}

// CreateElement creates a detached HTML element.
func (d *Document) CreateElement(tag string) addonprefs.Element {
	return d.wrap(newElementNode(strings.ToLower(tag)), addonprefs.HTMLNamespace)
}

// CreateElementNS creates a detached element in namespace. The tag keeps its case.
func (d *Document) CreateElementNS(namespace, tag string) addonprefs.Element {
	n := newElementNode(tag)
	if namespace != addonprefs.HTMLNamespace {
		n.DataAtom = 0
	}
	return d.wrap(n, namespace)
}

// GetElementByID returns the attached element with id, or nil.
func (d *Document) GetElementByID(id string) addonprefs.Element {
	n := findNode(d.root, func(n *html.Node) bool {
		return n.Type == html.ElementNode && attr(n, "id") == id
	})
	if n == nil {
		return nil
	}
	return d.wrap(n, "")
}

// Element is GetElementByID with the concrete type.
func (d *Document) Element(id string) (*Element, bool) {
	el, ok := d.GetElementByID(id).(*Element)
	return el, ok
}

// Walk visits every attached element in document order until fn returns false.
func (d *Document) Walk(fn func(el *Element) bool) {
	walk(d.root, func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		return fn(d.wrap(n, ""))
	})
}

// QueryByAttr returns the attached elements whose attribute name equals value.
func (d *Document) QueryByAttr(name, value string) []*Element {
	var out []*Element
	d.Walk(func(el *Element) bool {
		if v, ok := el.LookupAttribute(name); ok && v == value {
			out = append(out, el)
		}
		return true
	})
	return out
}

// Dispatch delivers ev to every attached element whose attribute name equals
// value and returns how many listeners ran.
func (d *Document) Dispatch(name, value string, ev addonprefs.Event) int {
	handled := 0
	for _, el := range d.QueryByAttr(name, value) {
		handled += el.DispatchEvent(ev)
	}
	return handled
}

// Render writes the whole document as HTML.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// String renders the document, returning an empty string on failure.
func (d *Document) String() string {
	var buf bytes.Buffer
	if err := d.Render(&buf); err != nil {
		return ""
	}
	return buf.String()
}

// wrap returns the Element for n, creating it on first sight.
func (d *Document) wrap(n *html.Node, namespace string) *Element {
	if el, ok := d.elements[n]; ok {
		return el
	}
	if namespace == "" {
		namespace = addonprefs.HTMLNamespace
	}
	el := &Element{node: n, doc: d, namespace: namespace}
	d.elements[n] = el
	return el
}

func walk(n *html.Node, fn func(*html.Node) bool) bool {
	if !fn(n) {
		return false
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if !walk(c, fn) {
			return false
		}
	}
	return true
}

func findNode(root *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(root, func(n *html.Node) bool {
		if match(n) {
			found = n
			return false
		}
		return true
	})
	return found
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Namespace == "" && a.Key == name {
			return a.Val
		}
	}
	return ""
}
