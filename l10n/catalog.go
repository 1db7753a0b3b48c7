// Package l10n localizes rendered options panels from message catalogs.
//
// A catalog maps keys derived from a setting's pref-name to text:
//
//	<name>_title        replaces the setting title
//	<name>_description  replaces the setting description
//	<name>_label        replaces a control button label
//	<name>_options.<label>  replaces the label of one menulist or radio option
//
// Catalogs are JSON or YAML objects; nested objects flatten to dotted keys.
package l10n

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/CreativeUnicorns/addonprefs"
	"github.com/CreativeUnicorns/addonprefs/dom"
)

// ErrUnsupportedDocument is returned by Localize for documents not built by package dom.
var ErrUnsupportedDocument = errors.New("l10n: unsupported document implementation")

// Catalog holds the messages of one locale.
type Catalog struct {
	locale   string
	messages map[string]string
}

var _ addonprefs.Localizer = (*Catalog)(nil)

// New builds a catalog from flat messages.
func New(locale string, messages map[string]string) *Catalog {
	c := &Catalog{locale: locale, messages: make(map[string]string, len(messages))}
	for k, v := range messages {
		c.messages[k] = v
	}
	return c
}

// Load reads a catalog file. The locale defaults to the file's base name.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("l10n: read %s: %w", path, err)
	}
	return Parse(data, localeFromPath(path))
}

// Parse decodes a JSON or YAML catalog.
func Parse(data []byte, locale string) (*Catalog, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		raw = nil
		if yerr := yaml.Unmarshal(data, &raw); yerr != nil {
			return nil, fmt.Errorf("l10n: parse %s catalog: invalid JSON or YAML", locale)
		}
	}

	c := &Catalog{locale: locale, messages: make(map[string]string)}
	flatten("", raw, c.messages)
	return c, nil
}

func flatten(prefix string, raw map[string]any, out map[string]string) {
	for k, v := range raw {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch x := v.(type) {
		case map[string]any:
			flatten(key, x, out)
		case map[any]any:
			m := make(map[string]any, len(x))
			for mk, mv := range x {
				m[fmt.Sprint(mk)] = mv
			}
			flatten(key, m, out)
		case nil:
		default:
			out[key] = fmt.Sprint(x)
		}
	}
}

// Locale returns the catalog's locale tag.
func (c *Catalog) Locale() string {
	return c.locale
}

// Lookup returns the message for key.
func (c *Catalog) Lookup(key string) (string, bool) {
	msg, ok := c.messages[key]
	return msg, ok
}

// Keys returns every message key in sorted order.
func (c *Catalog) Keys() []string {
	keys := make([]string, 0, len(c.messages))
	for k := range c.messages {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Localize rewrites the inline text of every rendered setting in doc.
// Settings without matching messages keep their schema text.
func (c *Catalog) Localize(doc addonprefs.Document) error {
	d, ok := doc.(*dom.Document)
	if !ok {
		return fmt.Errorf("%w: %T", ErrUnsupportedDocument, doc)
	}

	d.Walk(func(el *dom.Element) bool {
		if el.TagName() != addonprefs.SettingTag {
			return true
		}
		name := el.GetAttribute(addonprefs.AttrPrefName)
		if name == "" {
			return true
		}
		c.localizeSetting(el, name)
		return true
	})
	return nil
}

func (c *Catalog) localizeSetting(setting *dom.Element, name string) {
	if msg, ok := c.Lookup(name + "_title"); ok {
		setting.SetAttribute(addonprefs.AttrTitle, msg)
	}
	if msg, ok := c.Lookup(name + "_description"); ok {
		setting.SetAttribute(addonprefs.AttrDesc, msg)
	}

	var visit func(el *dom.Element)
	visit = func(el *dom.Element) {
		for _, child := range el.Children() {
			switch child.TagName() {
			case "button":
				if msg, ok := c.Lookup(name + "_label"); ok {
					child.SetAttribute(addonprefs.AttrLabel, msg)
				}
			case "menuitem", "radio":
				label := child.GetAttribute(addonprefs.AttrLabel)
				if msg, ok := c.Lookup(name + "_options." + label); ok {
					child.SetAttribute(addonprefs.AttrLabel, msg)
				}
			}
			visit(child)
		}
	}
	visit(setting)
}

func localeFromPath(path string) string {
	base := path
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '.'); i >= 0 {
		base = base[:i]
	}
	return base
}
