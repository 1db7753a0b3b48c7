package addonprefs

import (
	stdhtml "html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	textPolicyOnce sync.Once
	textPolicy     *bluemonday.Policy
)

// markupElements are the elements whose tags mark a description as HTML.
var markupElements = map[atom.Atom]bool{
	atom.A: true, atom.Abbr: true, atom.B: true, atom.Blockquote: true, atom.Br: true,
	atom.Code: true, atom.Del: true, atom.Div: true, atom.Em: true, atom.H1: true,
	atom.H2: true, atom.H3: true, atom.H4: true, atom.Hr: true, atom.I: true,
	atom.Iframe: true, atom.Img: true, atom.Ins: true, atom.Kbd: true, atom.Li: true,
	atom.Mark: true, atom.Ol: true, atom.P: true, atom.Pre: true, atom.Q: true,
	atom.S: true, atom.Script: true, atom.Small: true, atom.Span: true, atom.Strong: true,
	atom.Style: true, atom.Sub: true, atom.Sup: true, atom.U: true, atom.Ul: true,
}

// descriptionText strips HTML elements from a description. Text whose angle
// brackets do not form known HTML tags, such as "Press <Enter>", is kept as
// written, and so is text that stripping would leave empty. The result is
// unescaped again because the document escapes attribute values itself.
func descriptionText(raw string) string {
	if !hasHTMLMarkup(raw) {
		return raw
	}
	stripped := strings.TrimSpace(stdhtml.UnescapeString(textSanitizer().Sanitize(raw)))
	if stripped == "" {
		return raw
	}
	return stripped
}

// hasHTMLMarkup reports whether s contains a tag of one of markupElements.
func hasHTMLMarkup(s string) bool {
	if !strings.Contains(s, "<") {
		return false
	}
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return false
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			if markupElements[atom.Lookup(name)] {
				return true
			}
		}
	}
}

func textSanitizer() *bluemonday.Policy {
	textPolicyOnce.Do(func() {
		textPolicy = bluemonday.StrictPolicy()
	})
	return textPolicy
}
