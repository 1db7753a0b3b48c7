// errors.go
package addonprefs

import (
	"errors"
	"fmt"
)

// Schema validation errors. Validate wraps them in a *DescriptorError.
var (
	ErrMissingTitle    = errors.New("preference title is missing")
	ErrMissingName     = errors.New("preference name is missing")
	ErrInvalidType     = errors.New("invalid preference type")
	ErrMissingLabel    = errors.New("control preference label is missing")
	ErrMissingOptions  = errors.New("preference options are missing")
	ErrMalformedOption = errors.New("preference option needs a value and a label")
)

// Store errors.
var (
	ErrInvalidKey         = errors.New("invalid preference key")
	ErrNotFound           = errors.New("preference not found")
	ErrTypeMismatch       = errors.New("preference has a different type")
	ErrStorageUnavailable = errors.New("storage backend unavailable")
	ErrCacheUnavailable   = errors.New("cache backend unavailable")
)

// DescriptorError reports which descriptor failed validation.
type DescriptorError struct {
	Index int
	Name  string
	Err   error
}

func (e *DescriptorError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("preference %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("preference %d (%s): %v", e.Index, e.Name, e.Err)
}

func (e *DescriptorError) Unwrap() error {
	return e.Err
}
