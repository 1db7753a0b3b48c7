package addonprefs

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"reflect"
)

// SeedDefaults writes each descriptor's default value into the default branch
// "<namespace>." of prefs, overwriting whatever default was there.
//
// The primitive follows the value's dynamic type: bools, integral numbers and
// strings map to SetBool, SetInt and SetString; non-nil composite values are
// stored as their JSON encoding. Numbers with a fractional part, nil and any
// other type are skipped.
func SeedDefaults(ctx context.Context, prefs PreferenceService, namespace string, descs []Descriptor) error {
	defaults := prefs.DefaultBranch(namespace + ".")
	for _, d := range descs {
		if err := seedDefault(ctx, defaults, d.Name, d.Value); err != nil {
			return fmt.Errorf("seed default for %s: %w", d.Name, err)
		}
	}
	return nil
}

func seedDefault(ctx context.Context, b PreferenceBranch, name string, value any) error {
	switch v := value.(type) {
	case nil:
		return nil
	case bool:
		return b.SetBool(ctx, name, v)
	case string:
		return b.SetString(ctx, name, v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return b.SetInt(ctx, name, n)
		}
		return nil
	}

	if n, ok := integral(value); ok {
		return b.SetInt(ctx, name, n)
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Bool:
		return b.SetBool(ctx, name, rv.Bool())
	case reflect.String:
		return b.SetString(ctx, name, rv.String())
	case reflect.Float32, reflect.Float64:
		// fractional
		return nil
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil
		}
	case reflect.Array, reflect.Struct:
	default:
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return b.SetString(ctx, name, string(data))
}

// integral reports whether value is a number without a fractional part.
func integral(value any) (int64, bool) {
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := rv.Uint()
		if u > math.MaxInt64 {
			return 0, false
		}
		return int64(u), true
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
			return 0, false
		}
		if f < math.MinInt64 || f >= math.MaxInt64 {
			return 0, false
		}
		return int64(f), true
	}
	return 0, false
}
