package internal

import "reflect"

// Equal is the default comparator. Comparable values compare with ==,
// slices and maps compare by identity, funcs never compare equal.
func Equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) {
		return false
	}

	switch ta.Kind() {
	case reflect.Slice:
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map:
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	case reflect.Func:
		return false
	}

	if !ta.Comparable() {
		return false
	}
	return looseEqual(a, b)
}

// looseEqual guards against interfaces nested in a comparable type holding
// values that are not.
func looseEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
