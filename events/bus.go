// Package events is an in-process observer service that implements
// addonprefs.EventBus.
package events

import (
	"fmt"
	"sort"
	"sync"

	"github.com/CreativeUnicorns/addonprefs"
)

// TopicPanelDisplayed is notified with the panel's Document as subject and
// the extension id as data when a host shows an options panel.
const TopicPanelDisplayed = "addon-options-displayed"

// AllTopics subscribes an observer to every notification.
const AllTopics = "*"

// Observer receives a notification. subject is nil for plain broadcasts.
type Observer func(topic string, subject any, data string)

type entry struct {
	id uint64
	fn Observer
}

// Bus delivers notifications synchronously on the notifying goroutine, in
// subscription order. Observers may subscribe and unsubscribe from inside a
// notification; the change applies to the next one. It is safe for concurrent use.
type Bus struct {
	mu        sync.RWMutex
	nextID    uint64
	observers map[string]map[uint64]Observer
	logger    addonprefs.Logger
}

var _ addonprefs.EventBus = (*Bus)(nil)

// New creates an empty Bus. A nil logger discards output.
func New(logger addonprefs.Logger) *Bus {
	if logger == nil {
		logger = addonprefs.NopLogger()
	}
	return &Bus{
		observers: make(map[string]map[uint64]Observer),
		logger:    logger,
	}
}

// AddObserver subscribes fn to topic, or to everything with AllTopics.
func (b *Bus) AddObserver(topic string, fn Observer) addonprefs.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	if b.observers[topic] == nil {
		b.observers[topic] = make(map[uint64]Observer)
	}
	b.observers[topic][b.nextID] = fn
	return addonprefs.Subscription{Topic: topic, ID: b.nextID}
}

// RemoveObserver cancels sub and reports whether it was active.
func (b *Bus) RemoveObserver(sub addonprefs.Subscription) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.observers[sub.Topic]
	if !ok {
		return false
	}
	if _, ok := subs[sub.ID]; !ok {
		return false
	}
	delete(subs, sub.ID)
	if len(subs) == 0 {
		delete(b.observers, sub.Topic)
	}
	return true
}

// NotifyObservers delivers a notification and returns how many observers got it.
// A panicking observer is logged and skipped.
func (b *Bus) NotifyObservers(topic string, subject any, data string) int {
	targets := b.snapshot(topic)
	for _, e := range targets {
		b.deliver(e, topic, subject, data)
	}
	return len(targets)
}

// Observers reports how many observers topic currently has, wildcards excluded.
func (b *Bus) Observers(topic string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.observers[topic])
}

// OnPanelDisplay runs h with the panel document whenever extensionID's panel is shown.
func (b *Bus) OnPanelDisplay(extensionID string, h addonprefs.PanelDisplayHandler) addonprefs.Subscription {
	return b.AddObserver(TopicPanelDisplayed, func(_ string, subject any, data string) {
		if data != extensionID {
			return
		}
		doc, ok := subject.(addonprefs.Document)
		if !ok {
			b.logger.Warn("Panel display notification without a document", "extension", extensionID, "subject", fmt.Sprintf("%T", subject))
			return
		}
		h(doc)
	})
}

// OffPanelDisplay cancels a subscription returned by OnPanelDisplay.
func (b *Bus) OffPanelDisplay(sub addonprefs.Subscription) {
	b.RemoveObserver(sub)
}

// DisplayPanel announces that extensionID's options panel is shown in doc.
func (b *Bus) DisplayPanel(doc addonprefs.Document, extensionID string) int {
	return b.NotifyObservers(TopicPanelDisplayed, doc, extensionID)
}

// Broadcast notifies topic without a subject.
func (b *Bus) Broadcast(topic, data string) {
	n := b.NotifyObservers(topic, nil, data)
	b.logger.Debug("Broadcast", "topic", topic, "data", data, "observers", n)
}

func (b *Bus) snapshot(topic string) []entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	var out []entry
	for id, fn := range b.observers[topic] {
		out = append(out, entry{id: id, fn: fn})
	}
	if topic != AllTopics {
		for id, fn := range b.observers[AllTopics] {
			out = append(out, entry{id: id, fn: fn})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

func (b *Bus) deliver(e entry, topic string, subject any, data string) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Observer panicked", "topic", topic, "subscription", e.id, "panic", fmt.Sprint(r))
		}
	}()
	e.fn(topic, subject, data)
}
