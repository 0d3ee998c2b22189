package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// RawMessage is a still-encoded msgpack value.
type RawMessage = msgpack.RawMessage

// Marshal encodes v as msgpack. All wire values in viewlink go through
// here so codec options live in one place.
func Marshal(v any) ([]byte, error) {
	return msgpack.Marshal(v)
}

// Unmarshal decodes msgpack data into v, skipping unknown map keys.
func Unmarshal(data []byte, v any) error {
	return msgpack.Unmarshal(data, v)
}

// UnmarshalStrict decodes msgpack data into v and fails on map keys that
// the target struct does not declare. Used when a partial property map is
// folded into a typed props struct, so a typo'd field is an error rather
// than silently dropped.
func UnmarshalStrict(data []byte, v any) error {
	dec := msgpack.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields(true)
	return dec.Decode(v)
}

// MustRaw encodes v and returns the raw msgpack bytes. Intended for
// building test fixtures and static payloads where the value is known to
// encode.
func MustRaw(v any) msgpack.RawMessage {
	b, err := msgpack.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
