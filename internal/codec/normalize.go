package codec

import "fmt"

// Normalize canonicalizes a dynamically decoded value. msgpack's wire tags
// already identify booleans, integers, floats, strings, and binary
// unambiguously, but the decoder picks the narrowest Go integer width and
// may produce map[any]any for nested maps. Normalization makes dynamic
// parameter maps comparable and round-trippable: every integer becomes
// int64, float32 becomes float64, and maps become map[string]any.
func Normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int8:
		return int64(x)
	case int16:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint8:
		return int64(x)
	case uint16:
		return int64(x)
	case uint32:
		return int64(x)
	case uint64:
		return int64(x)
	case float32:
		return float64(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = Normalize(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = Normalize(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[fmt.Sprint(k)] = Normalize(item)
		}
		return out
	default:
		return v
	}
}

// DecodeValue decodes one dynamic msgpack value and normalizes it.
func DecodeValue(data []byte) (any, error) {
	var v any
	if err := Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return Normalize(v), nil
}

// DecodeValueMap decodes a dynamic string-keyed parameter map, normalizing
// every value.
func DecodeValueMap(raw map[string][]byte) (map[string]any, error) {
	out := make(map[string]any, len(raw))
	for k, b := range raw {
		v, err := DecodeValue(b)
		if err != nil {
			return nil, fmt.Errorf("decode param %q: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}
