package prompt

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/CreativeUnicorns/addonprefs"
)

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// Editor walks an extension's visible descriptors and asks for a value for
// each one, writing answers that differ from the current value to the user
// branch. Control descriptors ask whether to press the button and broadcast
// the command topic when confirmed.
type Editor struct {
	prefs  addonprefs.PreferenceService
	driver Driver
	bus    addonprefs.EventBus
	logger addonprefs.Logger
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithBus lets control buttons broadcast their command topic.
func WithBus(bus addonprefs.EventBus) EditorOption {
	return func(e *Editor) {
		e.bus = bus
	}
}

// WithLogger sets the editor's logger.
func WithLogger(l addonprefs.Logger) EditorOption {
	return func(e *Editor) {
		e.logger = l
	}
}

// NewEditor returns an Editor asking through driver and storing into prefs.
func NewEditor(prefs addonprefs.PreferenceService, driver Driver, opts ...EditorOption) *Editor {
	e := &Editor{prefs: prefs, driver: driver, logger: addonprefs.NopLogger()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Result lists the preference names an editing session wrote and the
// control buttons it pressed.
type Result struct {
	Changed []string
	Pressed []string
}

// Run edits descs stored under namespace. descs must have passed Validate.
// An aborted prompt stops the session and returns ErrAborted along with
// what was already written.
func (e *Editor) Run(ctx context.Context, namespace string, descs []addonprefs.Descriptor) (Result, error) {
	var res Result
	b := e.prefs.Branch(namespace + ".")

	for _, d := range descs {
		if d.Hidden {
			continue
		}
		changed, err := e.edit(ctx, b, namespace, d)
		if err != nil {
			return res, fmt.Errorf("edit %s: %w", d.Name, err)
		}
		if !changed {
			continue
		}
		if d.Type == addonprefs.TypeControl {
			res.Pressed = append(res.Pressed, d.Name)
		} else {
			res.Changed = append(res.Changed, d.Name)
		}
	}
	return res, nil
}

func (e *Editor) edit(ctx context.Context, b addonprefs.PreferenceBranch, namespace string, d addonprefs.Descriptor) (bool, error) {
	message := d.Title
	help := d.Description

	switch c := d.Control().(type) {
	case addonprefs.BoolControl:
		cur, err := readBool(ctx, b, d.Name)
		if err != nil {
			return false, err
		}
		v, err := e.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: help, Default: cur})
		if err != nil || v == cur {
			return false, err
		}
		return true, b.SetBool(ctx, d.Name, v)

	case addonprefs.BoolIntControl:
		on, off, err := c.Values()
		if err != nil {
			return false, err
		}
		cur, set, err := readInt(ctx, b, d.Name)
		if err != nil {
			return false, err
		}
		checked, err := e.driver.Confirm(ctx, ConfirmConfig{Message: message, Help: help, Default: set && cur == on})
		if err != nil {
			return false, err
		}
		v := off
		if checked {
			v = on
		}
		if set && v == cur {
			return false, nil
		}
		return true, b.SetInt(ctx, d.Name, v)

	case addonprefs.IntegerControl:
		cur, set, err := readInt(ctx, b, d.Name)
		if err != nil {
			return false, err
		}
		def := ""
		if set {
			def = strconv.FormatInt(cur, 10)
		}
		answer, err := e.driver.Input(ctx, InputConfig{Message: message, Help: help, Default: def, Validator: validateInt})
		if err != nil {
			return false, err
		}
		v, err := strconv.ParseInt(answer, 10, 64)
		if err != nil {
			return false, fmt.Errorf("%w: %v", addonprefs.ErrTypeMismatch, err)
		}
		if set && v == cur {
			return false, nil
		}
		return true, b.SetInt(ctx, d.Name, v)

	case addonprefs.StringControl, addonprefs.ColorControl, addonprefs.PathControl:
		cur, err := readString(ctx, b, d.Name)
		if err != nil {
			return false, err
		}
		cfg := InputConfig{Message: message, Help: help, Default: cur}
		if _, ok := c.(addonprefs.ColorControl); ok {
			cfg.Validator = validateColor
		}
		v, err := e.driver.Input(ctx, cfg)
		if err != nil || v == cur {
			return false, err
		}
		return true, b.SetString(ctx, d.Name, v)

	case addonprefs.ButtonControl:
		press, err := e.driver.Confirm(ctx, ConfirmConfig{Message: fmt.Sprintf("%s: %s?", message, c.Label), Help: help})
		if err != nil || !press {
			return false, err
		}
		if e.bus == nil {
			e.logger.Warn("No event bus for control button", "pref", b.Root()+d.Name)
			return false, nil
		}
		e.bus.Broadcast(addonprefs.CommandTopic(namespace), d.Name)
		return true, nil

	case addonprefs.MenuListControl:
		return e.choose(ctx, b, d, c.Options)

	case addonprefs.RadioControl:
		return e.choose(ctx, b, d, c.Options)

	case addonprefs.TagsControl:
		return e.tags(ctx, b, d, c)
	}
	return false, nil
}

func (e *Editor) choose(ctx context.Context, b addonprefs.PreferenceBranch, d addonprefs.Descriptor, options []addonprefs.Option) (bool, error) {
	labels := make([]string, len(options))
	values := make([]string, len(options))
	for i, opt := range options {
		labels[i] = opt.Label
		values[i] = addonprefs.FormatValue(opt.Value)
	}

	cur, err := currentText(ctx, b, d.Name)
	if err != nil {
		return false, err
	}
	idx, err := e.driver.Select(ctx, SelectConfig{
		Message:      d.Title,
		Help:         d.Description,
		Options:      labels,
		DefaultIndex: slices.Index(values, cur),
	})
	if err != nil {
		return false, err
	}
	if idx < 0 || idx >= len(values) || values[idx] == cur {
		return false, nil
	}

	if d.OptionKind() == addonprefs.KindInt {
		n, err := strconv.ParseInt(values[idx], 10, 64)
		if err != nil {
			return false, err
		}
		return true, b.SetInt(ctx, d.Name, n)
	}
	return true, b.SetString(ctx, d.Name, values[idx])
}

func (e *Editor) tags(ctx context.Context, b addonprefs.PreferenceBranch, d addonprefs.Descriptor, c addonprefs.TagsControl) (bool, error) {
	stored, err := readString(ctx, b, d.Name)
	if err != nil {
		return false, err
	}
	set := addonprefs.NewTagSet(stored, c.Options, c.Open)
	before, err := set.Value()
	if err != nil {
		return false, err
	}

	whitelist := set.Whitelist()
	labels := make([]string, len(whitelist))
	var defaults []int
	for i, t := range whitelist {
		labels[i] = t.Label
		if slices.ContainsFunc(set.Tags(), func(cur addonprefs.Tag) bool { return cur.Value == t.Value }) {
			defaults = append(defaults, i)
		}
	}

	picked, err := e.driver.MultiSelect(ctx, SelectConfig{
		Message:  d.Title,
		Help:     d.Description,
		Options:  labels,
		Defaults: defaults,
	})
	if err != nil {
		return false, err
	}

	for i, t := range whitelist {
		if slices.Contains(picked, i) {
			set.Apply(addonprefs.EventTagAdd, addonprefs.TagChange{Value: t.Value, Label: t.Label})
		} else {
			set.Apply(addonprefs.EventTagRemove, addonprefs.TagChange{Value: t.Value})
		}
	}

	after, err := set.Value()
	if err != nil || after == before {
		return false, err
	}
	return true, b.SetString(ctx, d.Name, after)
}

func readBool(ctx context.Context, b addonprefs.PreferenceBranch, name string) (bool, error) {
	v, err := b.GetBool(ctx, name)
	if errors.Is(err, addonprefs.ErrNotFound) || errors.Is(err, addonprefs.ErrTypeMismatch) {
		return false, nil
	}
	return v, err
}

func readInt(ctx context.Context, b addonprefs.PreferenceBranch, name string) (int64, bool, error) {
	v, err := b.GetInt(ctx, name)
	if errors.Is(err, addonprefs.ErrNotFound) || errors.Is(err, addonprefs.ErrTypeMismatch) {
		return 0, false, nil
	}
	return v, err == nil, err
}

func readString(ctx context.Context, b addonprefs.PreferenceBranch, name string) (string, error) {
	v, err := b.GetString(ctx, name)
	if errors.Is(err, addonprefs.ErrNotFound) || errors.Is(err, addonprefs.ErrTypeMismatch) {
		return "", nil
	}
	return v, err
}

// currentText returns the effective value as text whatever its kind.
func currentText(ctx context.Context, b addonprefs.PreferenceBranch, name string) (string, error) {
	kind, err := b.Kind(ctx, name)
	if err != nil {
		return "", err
	}
	switch kind {
	case addonprefs.KindBool:
		v, err := b.GetBool(ctx, name)
		return strconv.FormatBool(v), err
	case addonprefs.KindInt:
		v, err := b.GetInt(ctx, name)
		return strconv.FormatInt(v, 10), err
	case addonprefs.KindString:
		return b.GetString(ctx, name)
	}
	return "", nil
}

func validateInt(s string) error {
	if _, err := strconv.ParseInt(s, 10, 64); err != nil {
		return fmt.Errorf("%q is not an integer", s)
	}
	return nil
}

func validateColor(s string) error {
	if !colorPattern.MatchString(s) {
		return fmt.Errorf("%q is not a #rrggbb color", s)
	}
	return nil
}
