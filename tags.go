package addonprefs

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
)

// Tag is one entry of a multiselect tag set.
type Tag struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// Tag set mutations delivered as events to a multiselect control.
const (
	EventTagAdd     = "add"
	EventTagRemove  = "remove"
	EventTagReorder = "reorder"
)

// TagChange is the Detail of a tag set event. Add uses Value and Label,
// Remove uses Value, Reorder uses Order (the complete list of values).
type TagChange struct {
	Value string   `json:"value,omitempty"`
	Label string   `json:"label,omitempty"`
	Order []string `json:"order,omitempty"`
}

// TagSet is the ordered list of tags behind a multiselect control.
// It is not safe for concurrent use.
type TagSet struct {
	tags      []Tag
	whitelist []Tag
	open      bool
}

// NewTagSet seeds a tag set from the stored JSON value. A value that is not
// a JSON array yields an empty set.
func NewTagSet(stored string, options []Option, open bool) *TagSet {
	whitelist := optionTags(options)
	return &TagSet{
		tags:      ParseTags(stored, whitelist),
		whitelist: whitelist,
		open:      open,
	}
}

// ParseTags decodes a stored tag list. Entries may be plain values or
// {"value","label"} objects; labels missing from the entry are looked up in
// whitelist. It never fails: malformed input gives an empty list.
func ParseTags(stored string, whitelist []Tag) []Tag {
	var raw []any
	if err := json.Unmarshal([]byte(stored), &raw); err != nil {
		return []Tag{}
	}

	tags := make([]Tag, 0, len(raw))
	for _, entry := range raw {
		var t Tag
		switch v := entry.(type) {
		case string:
			t.Value = v
		case float64, bool:
			t.Value = FormatValue(v)
		case map[string]any:
			val, ok := v["value"]
			if !ok || val == nil {
				continue
			}
			t.Value = FormatValue(val)
			if label, ok := v["label"].(string); ok {
				t.Label = label
			}
		default:
			continue
		}
		if t.Label == "" {
			t.Label = labelFor(whitelist, t.Value)
		}
		tags = append(tags, t)
	}
	return tags
}

// Tags returns a copy of the current tags in order.
func (s *TagSet) Tags() []Tag {
	return slices.Clone(s.tags)
}

// Whitelist returns the tags offered for autocompletion.
func (s *TagSet) Whitelist() []Tag {
	return slices.Clone(s.whitelist)
}

// Open reports whether tags outside the whitelist are accepted.
func (s *TagSet) Open() bool {
	return s.open
}

// Add appends a tag. It reports false when the value is empty, already
// present, or not whitelisted on a closed set.
func (s *TagSet) Add(t Tag) bool {
	if t.Value == "" || s.index(t.Value) >= 0 {
		return false
	}
	known := labelFor(s.whitelist, t.Value)
	if !s.open && !s.whitelisted(t.Value) {
		return false
	}
	if t.Label == "" {
		t.Label = known
	}
	s.tags = append(s.tags, t)
	return true
}

// Remove drops the tag with value. It reports whether anything was removed.
func (s *TagSet) Remove(value string) bool {
	i := s.index(value)
	if i < 0 {
		return false
	}
	s.tags = slices.Delete(s.tags, i, i+1)
	return true
}

// Reorder arranges the tags in the given value order, which must be a
// permutation of the current values.
func (s *TagSet) Reorder(order []string) bool {
	if len(order) != len(s.tags) {
		return false
	}
	next := make([]Tag, 0, len(order))
	seen := make(map[string]bool, len(order))
	for _, v := range order {
		i := s.index(v)
		if i < 0 || seen[v] {
			return false
		}
		seen[v] = true
		next = append(next, s.tags[i])
	}
	s.tags = next
	return true
}

// Apply performs the mutation named by op. It reports whether the set changed.
func (s *TagSet) Apply(op string, change TagChange) bool {
	switch op {
	case EventTagAdd:
		return s.Add(Tag{Value: change.Value, Label: change.Label})
	case EventTagRemove:
		return s.Remove(change.Value)
	case EventTagReorder:
		return s.Reorder(change.Order)
	}
	return false
}

// Value is the JSON array of tag values written to the store.
func (s *TagSet) Value() (string, error) {
	values := make([]string, len(s.tags))
	for i, t := range s.tags {
		values[i] = t.Value
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *TagSet) index(value string) int {
	return slices.IndexFunc(s.tags, func(t Tag) bool { return t.Value == value })
}

func (s *TagSet) whitelisted(value string) bool {
	return slices.ContainsFunc(s.whitelist, func(t Tag) bool { return t.Value == value })
}

func optionTags(options []Option) []Tag {
	tags := make([]Tag, 0, len(options))
	for _, opt := range options {
		tags = append(tags, Tag{Value: FormatValue(opt.Value), Label: opt.Label})
	}
	return tags
}

func labelFor(whitelist []Tag, value string) string {
	for _, t := range whitelist {
		if t.Value == value {
			return t.Label
		}
	}
	return value
}

// FormatValue renders an option or default value as attribute text.
// Integral floats print without a decimal point.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	}
	if n, ok := integral(v); ok {
		return strconv.FormatInt(n, 10)
	}
	return fmt.Sprint(v)
}
