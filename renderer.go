// renderer.go
package addonprefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Element names and attributes written by the renderer.
const (
	SettingTag = "setting"

	AttrJetpackID = "data-jetpack-id"
	AttrPrefName  = "pref-name"
	AttrPref      = "pref"
	AttrType      = "type"
	AttrTitle     = "title"
	AttrDesc      = "desc"
	AttrValue     = "value"
	AttrLabel     = "label"

	// EventCommand is dispatched to control buttons when pressed.
	EventCommand = "command"
	// EventChange carries a new value for a setting in its Detail.
	EventChange = "change"
)

// CommandTopic is the broadcast topic a control button of extensionID notifies.
func CommandTopic(extensionID string) string {
	return extensionID + "-cmdPressed"
}

// Renderer builds setting rows for descriptors and wires them to the store.
type Renderer struct {
	prefs  PreferenceService
	bus    EventBus
	logger Logger
}

// NewRenderer returns a Renderer reading and writing through prefs and
// broadcasting button commands on bus.
func NewRenderer(prefs PreferenceService, bus EventBus, logger Logger) *Renderer {
	if logger == nil {
		logger = NopLogger()
	}
	return &Renderer{prefs: prefs, bus: bus, logger: logger}
}

// Render appends one setting element per visible descriptor to container and
// returns how many were rendered. descs must already have passed Validate.
// Listeners registered on the created elements write to the user branch
// "<namespace>." when the host dispatches events to them.
func (r *Renderer) Render(ctx context.Context, doc Document, container Element, namespace string, descs []Descriptor, extensionID string) (int, error) {
	if doc == nil || container == nil {
		return 0, errors.New("render: document and container are required")
	}

	// listeners outlive the display event that created them
	ctx = context.WithoutCancel(ctx)
	b := r.prefs.Branch(namespace + ".")

	rendered := 0
	for _, d := range descs {
		if d.Hidden {
			continue
		}
		setting := r.setting(ctx, doc, b, namespace, d, extensionID)
		container.AppendChild(setting)
		rendered++
	}
	r.logger.Debug("Rendered options panel", "extension", extensionID, "settings", rendered)
	return rendered, nil
}

func (r *Renderer) setting(ctx context.Context, doc Document, b PreferenceBranch, namespace string, d Descriptor, extensionID string) Element {
	setting := doc.CreateElementNS(XULNamespace, SettingTag)
	setting.SetAttribute(AttrJetpackID, extensionID)
	setting.SetAttribute(AttrPrefName, d.Name)
	setting.SetAttribute(AttrPref, namespace+"."+d.Name)
	setting.SetAttribute(AttrType, string(d.Type))
	setting.SetAttribute(AttrTitle, d.Title)
	if d.Description != "" {
		setting.SetAttribute(AttrDesc, descriptionText(d.Description))
	}

	switch c := d.Control().(type) {
	case PathControl:
		setting.SetAttribute("fullpath", "true")
	case ButtonControl:
		button := doc.CreateElementNS(XULNamespace, "button")
		button.SetAttribute(AttrPrefName, d.Name)
		button.SetAttribute(AttrJetpackID, extensionID)
		button.SetAttribute(AttrLabel, c.Label)
		name := d.Name
		button.AddEventListener(EventCommand, func(Event) {
			r.bus.Broadcast(CommandTopic(extensionID), name)
		})
		setting.AppendChild(button)
		return setting
	case BoolIntControl:
		if c.On != nil {
			setting.SetAttribute("on", FormatValue(c.On))
		}
		if c.Off != nil {
			setting.SetAttribute("off", FormatValue(c.Off))
		}
	case MenuListControl:
		menulist := doc.CreateElementNS(XULNamespace, "menulist")
		popup := doc.CreateElementNS(XULNamespace, "menupopup")
		for _, opt := range c.Options {
			item := doc.CreateElementNS(XULNamespace, "menuitem")
			item.SetAttribute(AttrValue, FormatValue(opt.Value))
			item.SetAttribute(AttrLabel, opt.Label)
			popup.AppendChild(item)
		}
		menulist.AppendChild(popup)
		setting.AppendChild(menulist)
	case TagsControl:
		setting.AppendChild(r.tagInput(ctx, doc, b, d, c))
		return setting
	case RadioControl:
		for _, opt := range c.Options {
			radio := doc.CreateElementNS(XULNamespace, "radio")
			radio.SetAttribute(AttrValue, FormatValue(opt.Value))
			radio.SetAttribute(AttrLabel, opt.Label)
			setting.AppendChild(radio)
		}
	}

	if v, ok := r.current(ctx, b, d.Name); ok {
		setting.SetAttribute(AttrValue, v)
	}
	setting.AddEventListener(EventChange, r.changeListener(ctx, b, d, setting))
	return setting
}

// current returns the effective value of name as attribute text.
func (r *Renderer) current(ctx context.Context, b PreferenceBranch, name string) (string, bool) {
	kind, err := b.Kind(ctx, name)
	if err != nil {
		r.logger.Warn("Failed to read preference", "pref", b.Root()+name, "error", err)
		return "", false
	}
	switch kind {
	case KindBool:
		v, err := b.GetBool(ctx, name)
		return strconv.FormatBool(v), err == nil
	case KindInt:
		v, err := b.GetInt(ctx, name)
		return strconv.FormatInt(v, 10), err == nil
	case KindString:
		v, err := b.GetString(ctx, name)
		return v, err == nil
	}
	return "", false
}

func (r *Renderer) tagInput(ctx context.Context, doc Document, b PreferenceBranch, d Descriptor, c TagsControl) Element {
	stored, err := b.GetString(ctx, d.Name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		r.logger.Warn("Failed to read tag preference", "pref", b.Root()+d.Name, "error", err)
	}
	set := NewTagSet(stored, c.Options, c.Open)

	input := doc.CreateElementNS(HTMLNamespace, "input")
	input.SetAttribute(AttrPrefName, d.Name)
	input.SetAttribute("data-whitelist", mustJSON(set.Whitelist()))
	input.SetAttribute("data-enforce-whitelist", strconv.FormatBool(!set.Open()))
	input.SetAttribute("data-tags", mustJSON(set.Tags()))

	name := d.Name
	for _, op := range []string{EventTagAdd, EventTagRemove, EventTagReorder} {
		input.AddEventListener(op, func(ev Event) {
			change, ok := tagChange(ev.Detail)
			if !ok || !set.Apply(op, change) {
				return
			}
			value, err := set.Value()
			if err != nil {
				r.logger.Error("Failed to encode tags", "pref", b.Root()+name, "error", err)
				return
			}
			if err := b.SetString(ctx, name, value); err != nil {
				r.logger.Error("Failed to store tags", "pref", b.Root()+name, "error", err)
				return
			}
			input.SetAttribute("data-tags", mustJSON(set.Tags()))
		})
	}
	return input
}

func (r *Renderer) changeListener(ctx context.Context, b PreferenceBranch, d Descriptor, setting Element) EventListener {
	name := d.Name
	control := d.Control()
	intOptions := integralOptions(d.Options)
	return func(ev Event) {
		var err error
		switch c := control.(type) {
		case BoolControl:
			var v bool
			if v, err = toBool(ev.Detail); err == nil {
				err = b.SetBool(ctx, name, v)
			}
		case BoolIntControl:
			var v int64
			if v, err = boolIntValue(ev.Detail, c); err == nil {
				err = b.SetInt(ctx, name, v)
			}
		case IntegerControl:
			var v int64
			if v, err = toInt(ev.Detail); err == nil {
				err = b.SetInt(ctx, name, v)
			}
		case MenuListControl, RadioControl:
			if intOptions {
				var v int64
				if v, err = toInt(ev.Detail); err == nil {
					err = b.SetInt(ctx, name, v)
				}
			} else {
				err = b.SetString(ctx, name, FormatValue(ev.Detail))
			}
		default:
			err = b.SetString(ctx, name, FormatValue(ev.Detail))
		}
		if err != nil {
			r.logger.Error("Failed to store preference", "pref", b.Root()+name, "error", err)
			return
		}
		if v, ok := r.current(ctx, b, name); ok {
			setting.SetAttribute(AttrValue, v)
		}
	}
}

func integralOptions(options []Option) bool {
	if len(options) == 0 {
		return false
	}
	for _, opt := range options {
		if _, ok := opt.Value.(string); ok {
			return false
		}
		if _, ok := integral(opt.Value); !ok {
			return false
		}
	}
	return true
}

func tagChange(detail any) (TagChange, bool) {
	switch v := detail.(type) {
	case TagChange:
		return v, true
	case *TagChange:
		if v == nil {
			return TagChange{}, false
		}
		return *v, true
	case string:
		return TagChange{Value: v}, true
	case []string:
		return TagChange{Order: v}, true
	case []any:
		order := make([]string, 0, len(v))
		for _, item := range v {
			order = append(order, FormatValue(item))
		}
		return TagChange{Order: order}, true
	case map[string]any:
		data, err := json.Marshal(v)
		if err != nil {
			return TagChange{}, false
		}
		var c TagChange
		if err := json.Unmarshal(data, &c); err != nil {
			return TagChange{}, false
		}
		return c, true
	}
	return TagChange{}, false
}

func toBool(v any) (bool, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		return strconv.ParseBool(strings.TrimSpace(x))
	}
	return false, fmt.Errorf("%w: cannot use %T as bool", ErrTypeMismatch, v)
}

func toInt(v any) (int64, error) {
	if s, ok := v.(string); ok {
		return strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	}
	if n, ok := integral(v); ok {
		return n, nil
	}
	if n, ok := v.(json.Number); ok {
		return n.Int64()
	}
	return 0, fmt.Errorf("%w: cannot use %v as integer", ErrTypeMismatch, v)
}

func boolIntValue(detail any, c BoolIntControl) (int64, error) {
	checked, err := toBool(detail)
	if err != nil {
		return toInt(detail)
	}
	on, off, err := c.Values()
	if err != nil {
		return 0, err
	}
	if checked {
		return on, nil
	}
	return off, nil
}

func mustJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "[]"
	}
	return string(data)
}
