package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"viewlink/internal/codec"
)

// Closed set of message kinds. An envelope carrying anything else is
// ErrUnknownKind, a distinct outcome that must never alias to quit.
const (
	KindRender               = "render"
	KindPatch                = "patch"
	KindNotify               = "notify"
	KindNotification         = "notification"
	KindNotificationResponse = "notificationResponse"
	KindClipboard            = "clipboard"
	KindClipboardResponse    = "clipboardResponse"
	KindFileDialog           = "fileDialog"
	KindFileDialogResponse   = "fileDialogResponse"
	KindUserDefaults         = "userDefaults"
	KindUserDefaultsResponse = "userDefaultsResponse"
	KindService              = "service"
	KindServiceResponse      = "serviceResponse"
	KindAction               = "action"
	KindEvent                = "event"
	KindSettingsRender       = "settingsRender"
	KindSettingsOpen         = "settingsOpen"
	KindSettingsClose        = "settingsClose"
	KindQuit                 = "quit"
)

var (
	ErrUnknownKind = errors.New("unknown message kind")
	ErrBadPayload  = errors.New("malformed payload")
)

// Envelope is the outer wire wrapper: a type discriminant plus the
// kind-specific payload, still encoded.
type Envelope struct {
	Type    string             `msgpack:"type"`
	Payload msgpack.RawMessage `msgpack:"payload,omitempty"`
}

// Message is a decoded envelope. Payload holds a pointer to the typed
// payload struct for the kind, or nil for kinds without one (quit,
// settingsOpen, settingsClose).
type Message struct {
	Type    string
	Payload any
}

type payloadValidator interface {
	validate() error
}

// Decode turns one framed payload into a typed Message. The payload is
// decoded by a single dispatch on the type discriminant; a missing
// required field fails the whole message, never part of it.
func Decode(frame []byte) (*Message, error) {
	var env Envelope
	if err := codec.Unmarshal(frame, &env); err != nil {
		return nil, fmt.Errorf("%w: envelope: %v", ErrBadPayload, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrBadPayload)
	}
	payload, err := decodePayload(env.Type, env.Payload)
	if err != nil {
		return nil, err
	}
	return &Message{Type: env.Type, Payload: payload}, nil
}

// Encode builds the payload bytes for one message; framing them onto the
// stream is the wire package's job.
func Encode(typ string, payload any) ([]byte, error) {
	env := Envelope{Type: typ}
	if payload != nil {
		raw, err := codec.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", typ, err)
		}
		env.Payload = raw
	}
	return codec.Marshal(env)
}

func decodePayload(typ string, raw msgpack.RawMessage) (any, error) {
	target, ok := newPayload(typ)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownKind, typ)
	}
	if target == nil {
		return nil, nil
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s requires a payload", ErrBadPayload, typ)
	}
	if err := codec.Unmarshal(raw, target); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, typ, err)
	}
	if v, ok := target.(payloadValidator); ok {
		if err := v.validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrBadPayload, typ, err)
		}
	}
	return target, nil
}

// newPayload returns a fresh payload target for the kind, nil for kinds
// with no payload, and ok=false for kinds outside the closed set.
func newPayload(typ string) (any, bool) {
	switch typ {
	case KindRender, KindSettingsRender:
		return &RenderPayload{}, true
	case KindPatch:
		return &PatchPayload{}, true
	case KindNotify:
		return &NotifyPayload{}, true
	case KindNotification:
		return &NotificationPayload{}, true
	case KindNotificationResponse:
		return &NotificationResponsePayload{}, true
	case KindClipboard:
		return &ClipboardPayload{}, true
	case KindClipboardResponse:
		return &ClipboardResponsePayload{}, true
	case KindFileDialog:
		return &FileDialogPayload{}, true
	case KindFileDialogResponse:
		return &FileDialogResponsePayload{}, true
	case KindUserDefaults:
		return &UserDefaultsPayload{}, true
	case KindUserDefaultsResponse:
		return &UserDefaultsResponsePayload{}, true
	case KindService:
		return &ServicePayload{}, true
	case KindServiceResponse:
		return &ServiceResponsePayload{}, true
	case KindAction:
		return &ActionPayload{}, true
	case KindEvent:
		return &EventPayload{}, true
	case KindSettingsOpen, KindSettingsClose, KindQuit:
		return nil, true
	default:
		return nil, false
	}
}
