package addonprefs

import "fmt"

// Control is the type-specific part of a descriptor. The set of
// implementations is closed; switch over them with a type switch.
type Control interface {
	control()
}

// BoolControl is a checkbox backed by a boolean preference.
type BoolControl struct{}

// BoolIntControl is a checkbox that stores one of two integers.
type BoolIntControl struct {
	On  any
	Off any
}

// IntegerControl is a numeric field.
type IntegerControl struct{}

// StringControl is a text field.
type StringControl struct{}

// ColorControl is a color picker storing a string.
type ColorControl struct{}

// PathControl is a file or directory picker storing the full path.
type PathControl struct {
	Directory bool
}

// ButtonControl is a push button that broadcasts a command event.
type ButtonControl struct {
	Label string
}

// MenuListControl is a dropdown.
type MenuListControl struct {
	Options []Option
}

// TagsControl is a tag-style multi-select backed by a JSON array.
type TagsControl struct {
	Options []Option
	Open    bool
}

// RadioControl is a radio group.
type RadioControl struct {
	Options []Option
}

func (BoolControl) control()     {}
func (BoolIntControl) control()  {}
func (IntegerControl) control()  {}
func (StringControl) control()   {}
func (ColorControl) control()    {}
func (PathControl) control()     {}
func (ButtonControl) control()   {}
func (MenuListControl) control() {}
func (TagsControl) control()     {}
func (RadioControl) control()    {}

// Control returns the variant for d's type, or nil when the type is unknown.
func (d Descriptor) Control() Control {
	switch d.Type {
	case TypeBool:
		return BoolControl{}
	case TypeBoolInt:
		return BoolIntControl{On: d.On, Off: d.Off}
	case TypeInteger:
		return IntegerControl{}
	case TypeString:
		return StringControl{}
	case TypeColor:
		return ColorControl{}
	case TypeFile:
		return PathControl{}
	case TypeDirectory:
		return PathControl{Directory: true}
	case TypeControl:
		return ButtonControl{Label: d.Label}
	case TypeMenuList:
		return MenuListControl{Options: d.Options}
	case TypeMultiSelect:
		return TagsControl{Options: d.Options, Open: d.Open}
	case TypeRadio:
		return RadioControl{Options: d.Options}
	}
	return nil
}

// OptionKind reports the primitive a menulist or radio value is stored as:
// KindInt when every option value is an integral number, KindString otherwise.
func (d Descriptor) OptionKind() Kind {
	if integralOptions(d.Options) {
		return KindInt
	}
	return KindString
}

// Values returns the integers stored for the checked and unchecked states.
// Unset bounds default to 1 and 0.
func (c BoolIntControl) Values() (on, off int64, err error) {
	if on, err = boolIntBound(c.On, 1); err != nil {
		return 0, 0, fmt.Errorf("boolint on value: %w", err)
	}
	if off, err = boolIntBound(c.Off, 0); err != nil {
		return 0, 0, fmt.Errorf("boolint off value: %w", err)
	}
	return on, off, nil
}

func boolIntBound(v any, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	return toInt(v)
}
