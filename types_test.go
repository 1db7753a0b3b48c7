package addonprefs

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescriptorControl(t *testing.T) {
	opts := []Option{{Value: 1, Label: "One"}}
	tests := []struct {
		desc Descriptor
		want Control
	}{
		{Descriptor{Type: TypeBool}, BoolControl{}},
		{Descriptor{Type: TypeBoolInt, On: 5, Off: 2}, BoolIntControl{On: 5, Off: 2}},
		{Descriptor{Type: TypeInteger}, IntegerControl{}},
		{Descriptor{Type: TypeString}, StringControl{}},
		{Descriptor{Type: TypeColor}, ColorControl{}},
		{Descriptor{Type: TypeFile}, PathControl{}},
		{Descriptor{Type: TypeDirectory}, PathControl{Directory: true}},
		{Descriptor{Type: TypeControl, Label: "Go"}, ButtonControl{Label: "Go"}},
		{Descriptor{Type: TypeMenuList, Options: opts}, MenuListControl{Options: opts}},
		{Descriptor{Type: TypeMultiSelect, Options: opts, Open: true}, TagsControl{Options: opts, Open: true}},
		{Descriptor{Type: TypeRadio, Options: opts}, RadioControl{Options: opts}},
		{Descriptor{Type: "slider"}, nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.desc.Type), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.desc.Control())
		})
	}
}

func TestDescriptorOptionKind(t *testing.T) {
	tests := []struct {
		name    string
		options []Option
		want    Kind
	}{
		{"ints", []Option{{Value: 1, Label: "a"}, {Value: 2, Label: "b"}}, KindInt},
		{"integral floats", []Option{{Value: float64(0), Label: "a"}, {Value: float64(3), Label: "b"}}, KindInt},
		{"fraction", []Option{{Value: 1.5, Label: "a"}}, KindString},
		{"strings", []Option{{Value: "1", Label: "a"}}, KindString},
		{"mixed", []Option{{Value: 1, Label: "a"}, {Value: "x", Label: "b"}}, KindString},
		{"none", nil, KindString},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Descriptor{Options: tt.options}.OptionKind())
		})
	}
}

func TestBoolIntValues(t *testing.T) {
	on, off, err := BoolIntControl{}.Values()
	require.NoError(t, err)
	assert.Equal(t, int64(1), on)
	assert.Equal(t, int64(0), off)

	on, off, err = BoolIntControl{On: float64(10), Off: "-3"}.Values()
	require.NoError(t, err)
	assert.Equal(t, int64(10), on)
	assert.Equal(t, int64(-3), off)

	_, _, err = BoolIntControl{On: "yes"}.Values()
	assert.ErrorContains(t, err, "boolint on value")

	_, _, err = BoolIntControl{Off: 0.5}.Values()
	assert.ErrorIs(t, err, ErrTypeMismatch)
}

func TestManifestDecoding(t *testing.T) {
	raw := `{
		"id": "jid1@example",
		"preferences": [
			{"name": "debug", "title": "Debug", "type": "bool", "value": true},
			{"name": "mode", "title": "Mode", "type": "boolint", "on": 2, "off": 1, "hidden": true},
			{"name": "sites", "title": "Sites", "type": "multiselect", "open": true,
			 "options": [{"value": "a", "label": "A"}]}
		]
	}`

	var m Manifest
	require.NoError(t, json.Unmarshal([]byte(raw), &m))

	want := Manifest{
		ID: "jid1@example",
		Preferences: []Descriptor{
			{Name: "debug", Title: "Debug", Type: TypeBool, Value: true},
			{Name: "mode", Title: "Mode", Type: TypeBoolInt, On: float64(2), Off: float64(1), Hidden: true},
			{Name: "sites", Title: "Sites", Type: TypeMultiSelect, Open: true, Options: []Option{{Value: "a", Label: "A"}}},
		},
	}
	if diff := cmp.Diff(want, m); diff != "" {
		t.Errorf("manifest mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{nil, ""},
		{"x", "x"},
		{true, "true"},
		{42, "42"},
		{float64(7), "7"},
		{2.5, "2.5"},
		{uint8(3), "3"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatValue(tt.in), "FormatValue(%#v)", tt.in)
	}
}
