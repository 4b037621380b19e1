package property

import (
	"fmt"
	"strconv"
	"strings"
)

// vectorSeparator separates the x,y,z (or r,g,b) components of Vec3 and Color text.
const vectorSeparator = ","

// Parse converts the wire text of a property into its in-memory value.
//
// The canonical value types are string (String and reference kinds), int, float64,
// bool and Vec3 (Vec3 and Color). Empty text is a value only for KindString; for any
// other kind Parse reports ok == false and the caller must skip the assignment.
func Parse(kind Kind, text string) (value any, ok bool, err error) {
	if text == "" {
		if kind == KindString {
			return "", true, nil
		}
		return nil, false, nil
	}

	switch {
	case kind == KindString || kind.IsReference():
		return text, true, nil
	case kind == KindInt:
		i, err := strconv.Atoi(strings.TrimSpace(text))
		if err != nil {
			return nil, false, conversionError(kind, text, err)
		}
		return i, true, nil
	case kind == KindFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return nil, false, conversionError(kind, text, err)
		}
		return f, true, nil
	case kind == KindBool:
		b, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(text)))
		if err != nil {
			return nil, false, conversionError(kind, text, err)
		}
		return b, true, nil
	case kind.IsVector():
		v, err := parseVec3(text)
		if err != nil {
			return nil, false, conversionError(kind, text, err)
		}
		return v, true, nil
	default:
		return nil, false, fmt.Errorf("%w: cannot parse kind %s", ErrConversion, kind)
	}
}

// Format renders a value as property wire text. It is the inverse of Parse.
func Format(kind Kind, value any) (string, error) {
	switch {
	case kind == KindString || kind.IsReference():
		s, ok := value.(string)
		if !ok {
			return "", formatError(kind, value)
		}
		return s, nil
	case kind == KindInt:
		i, ok := toInt64(value)
		if !ok {
			return "", formatError(kind, value)
		}
		return strconv.FormatInt(i, 10), nil
	case kind == KindFloat:
		if f32, ok := value.(float32); ok {
			return strconv.FormatFloat(float64(f32), 'g', -1, 32), nil
		}
		f, ok := toFloat64(value)
		if !ok {
			return "", formatError(kind, value)
		}
		return formatFloat(f), nil
	case kind == KindBool:
		b, ok := value.(bool)
		if !ok {
			return "", formatError(kind, value)
		}
		if b {
			return "1", nil
		}
		return "0", nil
	case kind.IsVector():
		v, ok := value.(Vec3)
		if !ok {
			return "", formatError(kind, value)
		}
		return formatFloat(v[0]) + vectorSeparator + formatFloat(v[1]) + vectorSeparator + formatFloat(v[2]), nil
	default:
		return "", formatError(kind, value)
	}
}

func parseVec3(text string) (Vec3, error) {
	parts := strings.Split(text, vectorSeparator)
	if len(parts) != 3 {
		return Vec3{}, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	var v Vec3
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Vec3{}, err
		}
		v[i] = f
	}
	return v, nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func toInt64(value any) (int64, bool) {
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
	default:
		return 0, false
	}
}

func toFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	default:
		if i, ok := toInt64(value); ok {
			return float64(i), true
		}
		return 0, false
	}
}

func conversionError(kind Kind, text string, cause error) error {
	return fmt.Errorf("%w: %s from %q: %v", ErrConversion, kind, text, cause)
}

func formatError(kind Kind, value any) error {
	return fmt.Errorf("%w: cannot format %T as %s", ErrConversion, value, kind)
}
