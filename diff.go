package gaudit

import (
	"reflect"
)

// Change is the before/after pair of a single attribute.
type Change struct {
	Old any
	New any
}

// Diff splits changes into the prior and new values of each attribute.
// An attribute appears in original only if its old value is non-nil, and in
// modified only if its new value is non-nil. Both maps are always non-nil.
func Diff(changes map[string]Change) (original, modified map[string]any) {
	original = make(map[string]any, len(changes))
	modified = make(map[string]any, len(changes))
	for k, c := range changes {
		if !isNil(c.Old) {
			original[k] = c.Old
		}
		if !isNil(c.New) {
			modified[k] = c.New
		}
	}
	return original, modified
}

// isNil treats typed nil pointers, maps, slices and the like as absent too.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	default:
		return false
	}
}

// snapshotChanges pairs every snapshot value with a nil old value.
func snapshotChanges(attrs map[string]any) map[string]Change {
	out := make(map[string]Change, len(attrs))
	for k, v := range attrs {
		out[k] = Change{New: v}
	}
	return out
}

// except returns changes without the excluded columns.
func except(changes map[string]Change, excluded []string) map[string]Change {
	if len(excluded) == 0 {
		return changes
	}
	skip := make(map[string]struct{}, len(excluded))
	for _, c := range excluded {
		skip[c] = struct{}{}
	}
	out := make(map[string]Change, len(changes))
	for k, c := range changes {
		if _, ok := skip[k]; ok {
			continue
		}
		out[k] = c
	}
	return out
}
