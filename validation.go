// validation.go
package addonprefs

import "strings"

var validTypes = map[Type]bool{
	TypeBool:        true,
	TypeBoolInt:     true,
	TypeInteger:     true,
	TypeString:      true,
	TypeColor:       true,
	TypeFile:        true,
	TypeDirectory:   true,
	TypeControl:     true,
	TypeMenuList:    true,
	TypeMultiSelect: true,
	TypeRadio:       true,
}

func isValidType(t Type) bool {
	return validTypes[t]
}

func hasOptions(t Type) bool {
	return t == TypeMenuList || t == TypeMultiSelect || t == TypeRadio
}

// Validate checks descs for structural errors and stops at the first one.
// The returned error is a *DescriptorError wrapping one of the schema sentinels.
// Default values are not checked against the declared type.
func Validate(descs []Descriptor) error {
	for i, d := range descs {
		if err := validateDescriptor(d); err != nil {
			return &DescriptorError{Index: i, Name: d.Name, Err: err}
		}
	}
	return nil
}

func validateDescriptor(d Descriptor) error {
	if d.Title == "" {
		return ErrMissingTitle
	}
	if strings.TrimSpace(d.Name) == "" {
		return ErrMissingName
	}
	if !isValidType(d.Type) {
		return ErrInvalidType
	}
	if d.Type == TypeControl && d.Label == "" {
		return ErrMissingLabel
	}
	if hasOptions(d.Type) && len(d.Options) == 0 {
		return ErrMissingOptions
	}
	for _, opt := range d.Options {
		if opt.Value == nil || opt.Label == "" {
			return ErrMalformedOption
		}
	}
	return nil
}
