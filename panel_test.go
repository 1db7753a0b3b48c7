package addonprefs_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/dom"
	"github.com/CreativeUnicorns/addonprefs/events"
	"github.com/CreativeUnicorns/addonprefs/l10n"
	"github.com/CreativeUnicorns/addonprefs/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const extensionID = "jid1-panel@example"

var panelDescs = []addonprefs.Descriptor{
	{Name: "debug", Title: "Debug", Type: addonprefs.TypeBool, Value: false},
	{Name: "token", Title: "Token", Type: addonprefs.TypeString, Value: "abc", Hidden: true},
	{Name: "sayHello", Title: "Say Hello", Type: addonprefs.TypeControl, Label: "Click me"},
	{Name: "sites", Title: "Sites", Type: addonprefs.TypeMultiSelect, Value: []any{"a", "b"},
		Options: []addonprefs.Option{{Value: "a", Label: "A"}, {Value: "b", Label: "B"}, {Value: "c", Label: "C"}}},
	{Name: "level", Title: "Level", Type: addonprefs.TypeRadio, Value: 1,
		Options: []addonprefs.Option{{Value: 0, Label: "Quiet"}, {Value: 1, Label: "Loud"}}},
}

type panel struct {
	svc     *addonprefs.Service
	bus     *events.Bus
	manager *addonprefs.Manager
}

func newPanel(t *testing.T, opts ...addonprefs.ManagerOption) *panel {
	t.Helper()
	svc := addonprefs.New(
		addonprefs.WithStorage(storage.NewMemoryStorage()),
		addonprefs.WithLogger(addonprefs.NopLogger()),
	)
	t.Cleanup(func() { _ = svc.Close() })

	bus := events.New(addonprefs.NopLogger())
	opts = append([]addonprefs.ManagerOption{addonprefs.WithManagerLogger(addonprefs.NopLogger())}, opts...)
	p := &panel{svc: svc, bus: bus, manager: addonprefs.NewManager(svc, bus, opts...)}

	_, err := p.manager.Enable(context.Background(), panelDescs, extensionID)
	require.NoError(t, err)
	return p
}

func (p *panel) show(t *testing.T) *dom.Document {
	t.Helper()
	doc := dom.NewOptionsPage(addonprefs.DetailRowsID)
	require.Equal(t, 1, p.bus.DisplayPanel(doc, extensionID))
	return doc
}

func TestPanelRendersVisibleSettings(t *testing.T) {
	p := newPanel(t)
	doc := p.show(t)

	settings := doc.QueryByAttr(addonprefs.AttrJetpackID, extensionID)
	var names []string
	for _, el := range settings {
		if el.TagName() == addonprefs.SettingTag {
			names = append(names, el.GetAttribute(addonprefs.AttrPrefName))
		}
	}
	assert.Equal(t, []string{"debug", "sayHello", "sites", "level"}, names)

	out := doc.String()
	assert.NotContains(t, out, `pref-name="token"`)
	assert.Contains(t, out, `pref="jid1-panel@example.debug"`)
	assert.Contains(t, out, `<radio value="0" label="Quiet">`)
}

func TestPanelChangeWritesUserBranch(t *testing.T) {
	ctx := context.Background()
	p := newPanel(t)
	doc := p.show(t)

	assert.Equal(t, 1, doc.Dispatch(addonprefs.AttrPrefName, "debug", addonprefs.Event{Type: addonprefs.EventChange, Detail: true}))

	user := p.svc.Branch(extensionID + ".")
	v, err := user.GetBool(ctx, "debug")
	require.NoError(t, err)
	assert.True(t, v)

	def, err := p.svc.DefaultBranch(extensionID+".").GetBool(ctx, "debug")
	require.NoError(t, err)
	assert.False(t, def)

	doc.Dispatch(addonprefs.AttrPrefName, "level", addonprefs.Event{Type: addonprefs.EventChange, Detail: "0"})
	n, err := user.GetInt(ctx, "level")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestPanelButtonBroadcasts(t *testing.T) {
	p := newPanel(t)
	var got []string
	p.bus.AddObserver(addonprefs.CommandTopic(extensionID), func(topic string, subject any, data string) {
		assert.Nil(t, subject)
		got = append(got, topic+":"+data)
	})

	doc := p.show(t)
	assert.Equal(t, 1, doc.Dispatch(addonprefs.AttrPrefName, "sayHello", addonprefs.Event{Type: addonprefs.EventCommand}))
	assert.Equal(t, []string{"jid1-panel@example-cmdPressed:sayHello"}, got)
}

func TestPanelTagsAdd(t *testing.T) {
	ctx := context.Background()
	p := newPanel(t)
	doc := p.show(t)

	handled := doc.Dispatch(addonprefs.AttrPrefName, "sites", addonprefs.Event{
		Type:   addonprefs.EventTagAdd,
		Detail: map[string]any{"value": "c"},
	})
	assert.Equal(t, 1, handled)

	stored, err := p.svc.Branch(extensionID+".").GetString(ctx, "sites")
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, stored)
}

func TestPanelReEnableRendersOnce(t *testing.T) {
	p := newPanel(t)
	_, err := p.manager.Enable(context.Background(), panelDescs[:1], extensionID)
	require.NoError(t, err)

	doc := p.show(t)
	settings := 0
	doc.Walk(func(el *dom.Element) bool {
		if el.TagName() == addonprefs.SettingTag {
			settings++
		}
		return true
	})
	assert.Equal(t, 1, settings)
}

func TestPanelMissingContainer(t *testing.T) {
	p := newPanel(t)
	doc := dom.New()
	assert.Equal(t, 1, p.bus.DisplayPanel(doc, extensionID))
	assert.NotContains(t, doc.String(), "<setting")
}

func TestPanelLocalized(t *testing.T) {
	catalog := l10n.New("fr", map[string]string{
		"debug_title":         "Débogage",
		"debug_description":   "Journal détaillé",
		"sayHello_label":      "Cliquez",
		"level_options.Quiet": "Silencieux",
		"unrelated_title":     "ignored",
	})
	p := newPanel(t, addonprefs.WithLocalizer(catalog))
	doc := p.show(t)

	debug := doc.QueryByAttr(addonprefs.AttrPrefName, "debug")
	require.Len(t, debug, 1)
	assert.Equal(t, "Débogage", debug[0].GetAttribute(addonprefs.AttrTitle))
	assert.Equal(t, "Journal détaillé", debug[0].GetAttribute(addonprefs.AttrDesc))

	out := doc.String()
	assert.Contains(t, out, `label="Cliquez"`)
	assert.Contains(t, out, `label="Silencieux"`)
	assert.Contains(t, out, `label="Loud"`)
	assert.True(t, strings.Contains(out, `title="Sites"`), "settings without messages keep their title")
}

func TestPanelReEnableWhileDisplaying(t *testing.T) {
	p := newPanel(t)
	visible := 4

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 200; i++ {
			if _, err := p.manager.Enable(context.Background(), panelDescs, extensionID); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	for i := 0; i < 200; i++ {
		doc := dom.NewOptionsPage(addonprefs.DetailRowsID)
		assert.LessOrEqual(t, p.bus.DisplayPanel(doc, extensionID), 1)
		container, ok := doc.Element(addonprefs.DetailRowsID)
		require.True(t, ok)
		assert.Contains(t, []int{0, visible}, len(container.Children()), "each display renders the panel at most once")
	}
	wg.Wait()
}
