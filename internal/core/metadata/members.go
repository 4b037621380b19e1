package metadata

import (
	"fmt"
	"math"

	"github.com/zeusync/scripthost/internal/core/property"
)

// Field declares a plain field of *T. A nil editor keeps the field out of the entity config.
func Field[T any, V any](name string, ref func(*T) *V, editor *EditorProperty) Member {
	return Member{
		Name:   name,
		Kind:   MemberField,
		Value:  valueTypeOf[V](),
		Editor: editor,
		Get: func(target any) any {
			t, ok := target.(*T)
			if !ok {
				return nil
			}
			return *ref(t)
		},
		Set: func(target any, value any) error {
			t, ok := target.(*T)
			if !ok {
				return fmt.Errorf("%w: %s wants %T, got %T", ErrTargetType, name, (*T)(nil), target)
			}
			v, err := coerce[V](value)
			if err != nil {
				return fmt.Errorf("field %s: %w", name, err)
			}
			*ref(t) = v
			return nil
		},
	}
}

// Property declares a member of *T with custom accessors. The setter may reject values.
func Property[T any, V any](name string, get func(*T) V, set func(*T, V) error, editor *EditorProperty) Member {
	return Member{
		Name:   name,
		Kind:   MemberProperty,
		Value:  valueTypeOf[V](),
		Editor: editor,
		Get: func(target any) any {
			t, ok := target.(*T)
			if !ok {
				return nil
			}
			return get(t)
		},
		Set: func(target any, value any) error {
			t, ok := target.(*T)
			if !ok {
				return fmt.Errorf("%w: %s wants %T, got %T", ErrTargetType, name, (*T)(nil), target)
			}
			if set == nil {
				return fmt.Errorf("%w: %s", ErrReadOnly, name)
			}
			v, err := coerce[V](value)
			if err != nil {
				return fmt.Errorf("property %s: %w", name, err)
			}
			return set(t, v)
		},
	}
}

func valueTypeOf[V any]() ValueType {
	var zero V
	switch any(zero).(type) {
	case string:
		return ValueString
	case int, int8, int16, int32, int64, uint8, uint16, uint32:
		return ValueInt
	case float32:
		return ValueFloat32
	case float64:
		return ValueFloat64
	case bool:
		return ValueBool
	case property.Vec3:
		return ValueVec3
	default:
		return ValueOther
	}
}

// coerce narrows a converter value (int, float64, ...) to the member's Go type.
func coerce[V any](value any) (V, error) {
	var zero V
	if v, ok := value.(V); ok {
		return v, nil
	}

	var out any
	switch any(zero).(type) {
	case int:
		if i, ok := integer(value); ok {
			out = int(i)
		}
	case int8:
		if i, ok := integer(value); ok && i >= math.MinInt8 && i <= math.MaxInt8 {
			out = int8(i)
		}
	case int16:
		if i, ok := integer(value); ok && i >= math.MinInt16 && i <= math.MaxInt16 {
			out = int16(i)
		}
	case int32:
		if i, ok := integer(value); ok && i >= math.MinInt32 && i <= math.MaxInt32 {
			out = int32(i)
		}
	case int64:
		if i, ok := integer(value); ok {
			out = i
		}
	case uint8:
		if i, ok := integer(value); ok && i >= 0 && i <= math.MaxUint8 {
			out = uint8(i)
		}
	case uint16:
		if i, ok := integer(value); ok && i >= 0 && i <= math.MaxUint16 {
			out = uint16(i)
		}
	case uint32:
		if i, ok := integer(value); ok && i >= 0 && i <= math.MaxUint32 {
			out = uint32(i)
		}
	case float32:
		if f, ok := float(value); ok {
			out = float32(f)
		}
	case float64:
		if f, ok := float(value); ok {
			out = f
		}
	}
	if out == nil {
		return zero, fmt.Errorf("%w: cannot assign %T to %T", ErrValueType, value, zero)
	}
	return out.(V), nil
}

func integer(value any) (int64, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case float64:
		if v == math.Trunc(v) {
			return int64(v), true
		}
	case float32:
		if float64(v) == math.Trunc(float64(v)) {
			return int64(v), true
		}
	}
	return 0, false
}

func float(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	}
	if i, ok := integer(value); ok {
		return float64(i), true
	}
	return 0, false
}
