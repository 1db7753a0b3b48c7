package events

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/dom"
)

func TestNotifyInSubscriptionOrder(t *testing.T) {
	bus := New(nil)
	var order []string

	bus.AddObserver("topic", func(string, any, string) { order = append(order, "first") })
	bus.AddObserver(AllTopics, func(topic string, _ any, _ string) { order = append(order, "all:"+topic) })
	bus.AddObserver("topic", func(string, any, string) { order = append(order, "third") })
	bus.AddObserver("other", func(string, any, string) { order = append(order, "other") })

	n := bus.NotifyObservers("topic", nil, "")
	assert.Equal(t, 3, n)
	assert.Equal(t, []string{"first", "all:topic", "third"}, order)
}

func TestRemoveObserver(t *testing.T) {
	bus := New(nil)
	calls := 0
	sub := bus.AddObserver("topic", func(string, any, string) { calls++ })

	assert.True(t, bus.RemoveObserver(sub))
	assert.False(t, bus.RemoveObserver(sub))
	assert.False(t, bus.RemoveObserver(addonprefs.Subscription{Topic: "nope", ID: 99}))

	assert.Zero(t, bus.NotifyObservers("topic", nil, ""))
	assert.Zero(t, calls)
	assert.Zero(t, bus.Observers("topic"))
}

func TestObserverMayUnsubscribeItself(t *testing.T) {
	bus := New(nil)
	calls := 0
	var sub addonprefs.Subscription
	sub = bus.AddObserver("topic", func(string, any, string) {
		calls++
		bus.RemoveObserver(sub)
	})

	bus.NotifyObservers("topic", nil, "")
	bus.NotifyObservers("topic", nil, "")
	assert.Equal(t, 1, calls)
}

func TestPanicIsContained(t *testing.T) {
	bus := New(nil)
	reached := false
	bus.AddObserver("topic", func(string, any, string) { panic("boom") })
	bus.AddObserver("topic", func(string, any, string) { reached = true })

	assert.NotPanics(t, func() { bus.NotifyObservers("topic", nil, "") })
	assert.True(t, reached)
}

func TestOnPanelDisplayFiltersExtension(t *testing.T) {
	bus := New(nil)
	var got []addonprefs.Document
	sub := bus.OnPanelDisplay("ext-a", func(doc addonprefs.Document) {
		got = append(got, doc)
	})

	docA := dom.New()
	bus.DisplayPanel(docA, "ext-a")
	bus.DisplayPanel(dom.New(), "ext-b")
	bus.NotifyObservers(TopicPanelDisplayed, "not a document", "ext-a")

	require.Len(t, got, 1)
	assert.Same(t, docA, got[0])

	bus.OffPanelDisplay(sub)
	bus.DisplayPanel(docA, "ext-a")
	assert.Len(t, got, 1)
}

func TestBroadcast(t *testing.T) {
	bus := New(nil)
	var topics, data []string
	bus.AddObserver("ext-cmdPressed", func(topic string, subject any, d string) {
		assert.Nil(t, subject)
		topics = append(topics, topic)
		data = append(data, d)
	})

	bus.Broadcast("ext-cmdPressed", "reset")
	bus.Broadcast("other-cmdPressed", "reset")
	assert.Equal(t, []string{"ext-cmdPressed"}, topics)
	assert.Equal(t, []string{"reset"}, data)
}

func TestConcurrentUse(t *testing.T) {
	bus := New(nil)
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sub := bus.AddObserver("topic", func(string, any, string) {})
			bus.Broadcast("topic", "x")
			bus.RemoveObserver(sub)
		}()
	}
	wg.Wait()
	assert.Zero(t, bus.Observers("topic"))
}
