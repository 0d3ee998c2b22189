package protocol

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"viewlink/internal/codec"
	"viewlink/internal/view"
)

func TestDecode_RoundTripsRepresentativeKinds(t *testing.T) {
	step := 0.5
	icon := "busy"
	cases := []struct {
		name    string
		typ     string
		payload any
	}{
		{
			name: "render",
			typ:  KindRender,
			payload: &RenderPayload{Root: &view.Node{
				ID:    "root",
				Kind:  view.KindSlider,
				Props: &view.SliderProps{Value: 3, Min: 0, Max: 10, Step: &step},
			}},
		},
		{
			name: "patch with chrome",
			typ:  KindPatch,
			payload: &PatchPayload{
				Patches: []view.Patch{
					{Op: view.OpProps, ID: "t1", Props: codec.MustRaw(map[string]any{"content": "1"})},
					{Op: view.OpRemove, ID: "t2"},
				},
				StatusIcon: &icon,
			},
		},
		{
			name:    "notify",
			typ:     KindNotify,
			payload: &NotifyPayload{Title: "done", Body: "export finished"},
		},
		{
			name: "notification schedule",
			typ:  KindNotification,
			payload: &NotificationPayload{
				Op:        NotificationSchedule,
				ID:        "reminder-1",
				Title:     "stand up",
				TriggerAt: i64(1700000000000),
				Actions:   []NotificationAction{{ID: "snooze", Title: "Snooze"}},
			},
		},
		{
			name:    "clipboard read",
			typ:     KindClipboard,
			payload: &ClipboardPayload{Op: ClipboardRead, RequestID: "q9"},
		},
		{
			name: "fileDialog pick",
			typ:  KindFileDialog,
			payload: &FileDialogPayload{
				Op:            FileDialogPickFiles,
				RequestID:     "q1",
				AllowedTypes:  []string{"png", "jpg"},
				AllowMultiple: true,
			},
		},
		{
			name:    "fileDialog cancelled response",
			typ:     KindFileDialogResponse,
			payload: &FileDialogResponsePayload{RequestID: "q1", Cancelled: true},
		},
		{
			name: "userDefaults set",
			typ:  KindUserDefaults,
			payload: &UserDefaultsPayload{
				Op:    DefaultsSet,
				Key:   "volume",
				Value: codec.MustRaw(0.8),
			},
		},
		{
			name: "service call",
			typ:  KindService,
			payload: &ServicePayload{
				Service:   "battery",
				Method:    "level",
				RequestID: "q2",
				Args:      map[string]codec.RawMessage{"unit": codec.MustRaw("percent")},
			},
		},
		{
			name:    "action",
			typ:     KindAction,
			payload: &ActionPayload{NodeID: "web1", Name: "reload"},
		},
		{
			name:    "event",
			typ:     KindEvent,
			payload: &EventPayload{NodeID: "inc", Event: "tap"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			frame, err := Encode(tc.typ, tc.payload)
			if err != nil {
				t.Fatalf("encode: %v", err)
			}
			msg, err := Decode(frame)
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if msg.Type != tc.typ {
				t.Fatalf("type: %q", msg.Type)
			}
			if diff := cmp.Diff(tc.payload, msg.Payload); diff != "" {
				t.Fatalf("payload mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDecode_EmptyPayloadKinds(t *testing.T) {
	for _, typ := range []string{KindQuit, KindSettingsOpen, KindSettingsClose} {
		frame, err := Encode(typ, nil)
		if err != nil {
			t.Fatalf("%s encode: %v", typ, err)
		}
		msg, err := Decode(frame)
		if err != nil {
			t.Fatalf("%s decode: %v", typ, err)
		}
		if msg.Payload != nil {
			t.Fatalf("%s: expected nil payload, got %#v", typ, msg.Payload)
		}
	}
}

func TestDecode_UnknownKindIsDistinctFromQuit(t *testing.T) {
	frame, err := Encode("teleport", nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := Decode(frame)
	if !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v (msg %+v)", err, msg)
	}
	if errors.Is(err, ErrBadPayload) {
		t.Fatal("unknown kind must not collapse into the decode-error class")
	}
}

func TestDecode_MissingRequiredFieldFailsWholeMessage(t *testing.T) {
	// fileDialog without a requestId can never be correlated.
	frame, err := Encode(KindFileDialog, map[string]any{"op": FileDialogSave})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(frame); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestDecode_RenderWithoutRootFails(t *testing.T) {
	frame, err := Encode(KindRender, map[string]any{})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if _, err := Decode(frame); !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestDecode_BoundaryValues(t *testing.T) {
	longID := make([]byte, 4096)
	for i := range longID {
		longID[i] = 'x'
	}
	payload := &EventPayload{NodeID: string(longID), Event: "tap"}
	frame, err := Encode(KindEvent, payload)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	msg, err := Decode(frame)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := msg.Payload.(*EventPayload).NodeID; got != string(longID) {
		t.Fatalf("long id mangled, len %d", len(got))
	}
}

func i64(v int64) *int64 { return &v }
