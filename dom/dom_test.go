package dom

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CreativeUnicorns/addonprefs"
)

func TestNewOptionsPage(t *testing.T) {
	doc := NewOptionsPage("detail-rows")

	container := doc.GetElementByID("detail-rows")
	require.NotNil(t, container)
	assert.Equal(t, "detail-rows", container.GetAttribute("id"))
	assert.Nil(t, doc.GetElementByID("missing"))

	assert.Equal(t, `<html><head></head><body><div id="detail-rows"></div></body></html>`, doc.String())
}

func TestGetElementByIDIgnoresDetached(t *testing.T) {
	doc := New()
	el := doc.CreateElement("div")
	el.SetAttribute("id", "floating")
	assert.Nil(t, doc.GetElementByID("floating"))

	doc.Body().AppendChild(el)
	assert.Same(t, el, doc.GetElementByID("floating"))
}

func TestAttributes(t *testing.T) {
	doc := New()
	el := doc.CreateElementNS(addonprefs.XULNamespace, "setting").(*Element)

	el.SetAttribute("title", "First")
	el.SetAttribute("pref", "ext.debug")
	el.SetAttribute("title", "Second")

	assert.Equal(t, "Second", el.GetAttribute("title"))
	assert.Equal(t, "", el.GetAttribute("desc"))
	_, ok := el.LookupAttribute("desc")
	assert.False(t, ok)

	var keys []string
	for _, a := range el.Attributes() {
		keys = append(keys, a.Key)
	}
	if diff := cmp.Diff([]string{"title", "pref"}, keys); diff != "" {
		t.Errorf("attribute order mismatch (-want +got):\n%s", diff)
	}

	el.RemoveAttribute("title")
	_, ok = el.LookupAttribute("title")
	assert.False(t, ok)
	assert.Equal(t, addonprefs.XULNamespace, el.Namespace())
	assert.Equal(t, "setting", el.TagName())
}

func TestAppendChildMoves(t *testing.T) {
	doc := New()
	a := doc.CreateElement("div").(*Element)
	b := doc.CreateElement("div").(*Element)
	child := doc.CreateElement("span").(*Element)

	a.AppendChild(child)
	require.Len(t, a.Children(), 1)
	assert.Same(t, a, child.Parent())

	b.AppendChild(child)
	assert.Empty(t, a.Children())
	assert.Same(t, b, child.Parent())

	child.Remove()
	assert.Empty(t, b.Children())
	assert.Nil(t, child.Parent())
}

func TestAppendChildFromOtherDocumentPanics(t *testing.T) {
	a, b := New(), New()
	assert.Panics(t, func() {
		a.Body().AppendChild(b.CreateElement("div"))
	})
}

func TestDispatch(t *testing.T) {
	doc := NewOptionsPage("rows")
	rows := doc.GetElementByID("rows")

	var got []any
	for _, name := range []string{"debug", "debug", "level"} {
		el := doc.CreateElement("div")
		el.SetAttribute("pref-name", name)
		el.AddEventListener("change", func(ev addonprefs.Event) {
			got = append(got, ev.Detail)
		})
		rows.AppendChild(el)
	}

	n := doc.Dispatch("pref-name", "debug", addonprefs.Event{Type: "change", Detail: true})
	assert.Equal(t, 2, n)
	assert.Equal(t, []any{true, true}, got)

	assert.Zero(t, doc.Dispatch("pref-name", "debug", addonprefs.Event{Type: "command"}))
	assert.Zero(t, doc.Dispatch("pref-name", "missing", addonprefs.Event{Type: "change"}))
	assert.Len(t, doc.QueryByAttr("pref-name", "level"), 1)
}

func TestListenerMayAddListeners(t *testing.T) {
	doc := New()
	el := doc.CreateElement("button").(*Element)
	calls := 0
	el.AddEventListener("command", func(addonprefs.Event) {
		calls++
		el.AddEventListener("command", func(addonprefs.Event) { calls++ })
	})

	assert.Equal(t, 1, el.DispatchEvent(addonprefs.Event{Type: "command"}))
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, el.Listeners("command"))
}

func TestRenderEscapesAttributes(t *testing.T) {
	doc := New()
	el := doc.CreateElementNS(addonprefs.XULNamespace, "setting")
	el.SetAttribute("title", `Say "hi" & <bye>`)
	doc.Body().AppendChild(el)

	out := el.(*Element).OuterHTML()
	assert.Equal(t, `<setting title="Say &#34;hi&#34; &amp; &lt;bye&gt;"></setting>`, out)
}

func TestParse(t *testing.T) {
	doc, err := Parse(strings.NewReader(`<html><body><div id="detail-rows"><p>hi</p></div></body></html>`))
	require.NoError(t, err)

	el, ok := doc.Element("detail-rows")
	require.True(t, ok)
	assert.Equal(t, "hi", el.Text())
	require.NotNil(t, doc.Body())

	el.SetText("replaced")
	assert.Equal(t, "replaced", el.Text())
	assert.Len(t, el.Children(), 0)
}
