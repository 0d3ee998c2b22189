package protocol

import (
	"errors"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"viewlink/internal/view"
)

// RenderPayload carries a whole tree; it supersedes any live tree. The
// same shape serves settingsRender for the secondary tabbed window.
type RenderPayload struct {
	Root *view.Node `msgpack:"root"`
}

func (p *RenderPayload) validate() error {
	if p.Root == nil {
		return errors.New("root is required")
	}
	return nil
}

// PatchPayload carries an ordered list of tree mutations plus optional
// chrome updates that are not part of the tree.
type PatchPayload struct {
	Patches      []view.Patch `msgpack:"patches,omitempty"`
	StatusIcon   *string      `msgpack:"statusIcon,omitempty"`
	WindowWidth  *float64     `msgpack:"windowWidth,omitempty"`
	WindowHeight *float64     `msgpack:"windowHeight,omitempty"`
}

// NotifyPayload is the simple fire-and-forget notification.
type NotifyPayload struct {
	Title string `msgpack:"title"`
	Body  string `msgpack:"body,omitempty"`
}

func (p *NotifyPayload) validate() error {
	if p.Title == "" {
		return errors.New("title is required")
	}
	return nil
}

// Notification op values.
const (
	NotificationPush     = "push"
	NotificationSchedule = "schedule"
	NotificationCancel   = "cancel"
	NotificationQuery    = "query"
)

// NotificationPayload is the full-featured notification surface:
// immediate push, scheduled delivery, cancellation, and a correlated
// query of pending schedules.
type NotificationPayload struct {
	Op        string               `msgpack:"op"`
	ID        string               `msgpack:"id,omitempty"`
	Title     string               `msgpack:"title,omitempty"`
	Body      string               `msgpack:"body,omitempty"`
	TriggerAt *int64               `msgpack:"triggerAt,omitempty"` // unix milliseconds
	Repeat    *int64               `msgpack:"repeatMs,omitempty"`
	Actions   []NotificationAction `msgpack:"actions,omitempty"`
	RequestID string               `msgpack:"requestId,omitempty"`
}

type NotificationAction struct {
	ID    string `msgpack:"id"`
	Title string `msgpack:"title"`
}

func (p *NotificationPayload) validate() error {
	switch p.Op {
	case NotificationPush:
		if p.Title == "" {
			return errors.New("push requires title")
		}
	case NotificationSchedule:
		if p.ID == "" || p.Title == "" {
			return errors.New("schedule requires id and title")
		}
		if p.TriggerAt == nil {
			return errors.New("schedule requires triggerAt")
		}
	case NotificationCancel:
		if p.ID == "" {
			return errors.New("cancel requires id")
		}
	case NotificationQuery:
		if p.RequestID == "" {
			return errors.New("query requires requestId")
		}
	default:
		return fmt.Errorf("unknown notification op %q", p.Op)
	}
	return nil
}

type NotificationResponsePayload struct {
	RequestID string   `msgpack:"requestId"`
	Pending   []string `msgpack:"pending,omitempty"`
}

func (p *NotificationResponsePayload) validate() error {
	return requireRequestID(p.RequestID)
}

// Clipboard op values.
const (
	ClipboardRead  = "read"
	ClipboardWrite = "write"
)

type ClipboardPayload struct {
	Op        string `msgpack:"op"`
	Text      string `msgpack:"text,omitempty"`
	RequestID string `msgpack:"requestId,omitempty"`
}

func (p *ClipboardPayload) validate() error {
	switch p.Op {
	case ClipboardRead:
		return requireRequestID(p.RequestID)
	case ClipboardWrite:
		return nil
	default:
		return fmt.Errorf("unknown clipboard op %q", p.Op)
	}
}

type ClipboardResponsePayload struct {
	RequestID string `msgpack:"requestId"`
	Text      string `msgpack:"text,omitempty"`
	Error     string `msgpack:"error,omitempty"`
}

func (p *ClipboardResponsePayload) validate() error {
	return requireRequestID(p.RequestID)
}

// FileDialog op values.
const (
	FileDialogPickFiles     = "pickFiles"
	FileDialogPickDirectory = "pickDirectory"
	FileDialogSave          = "save"
)

type FileDialogPayload struct {
	Op            string   `msgpack:"op"`
	RequestID     string   `msgpack:"requestId"`
	Title         string   `msgpack:"title,omitempty"`
	DefaultName   string   `msgpack:"defaultName,omitempty"`
	AllowedTypes  []string `msgpack:"allowedTypes,omitempty"`
	AllowMultiple bool     `msgpack:"allowMultiple,omitempty"`
}

func (p *FileDialogPayload) validate() error {
	switch p.Op {
	case FileDialogPickFiles, FileDialogPickDirectory, FileDialogSave:
	default:
		return fmt.Errorf("unknown fileDialog op %q", p.Op)
	}
	return requireRequestID(p.RequestID)
}

type FileDialogResponsePayload struct {
	RequestID string   `msgpack:"requestId"`
	Cancelled bool     `msgpack:"cancelled,omitempty"`
	Paths     []string `msgpack:"paths,omitempty"`
}

func (p *FileDialogResponsePayload) validate() error {
	return requireRequestID(p.RequestID)
}

// UserDefaults op values.
const (
	DefaultsGet         = "get"
	DefaultsSet         = "set"
	DefaultsRemove      = "remove"
	DefaultsClear       = "clear"
	DefaultsContainsKey = "containsKey"
	DefaultsGetKeys     = "getKeys"
)

type UserDefaultsPayload struct {
	Op        string             `msgpack:"op"`
	RequestID string             `msgpack:"requestId,omitempty"`
	Key       string             `msgpack:"key,omitempty"`
	Value     msgpack.RawMessage `msgpack:"value,omitempty"`
}

func (p *UserDefaultsPayload) validate() error {
	switch p.Op {
	case DefaultsGet, DefaultsContainsKey:
		if p.Key == "" {
			return errors.New("key is required")
		}
		return requireRequestID(p.RequestID)
	case DefaultsGetKeys:
		return requireRequestID(p.RequestID)
	case DefaultsSet:
		if p.Key == "" {
			return errors.New("key is required")
		}
		if len(p.Value) == 0 {
			return errors.New("set requires a value")
		}
		return nil
	case DefaultsRemove:
		if p.Key == "" {
			return errors.New("key is required")
		}
		return nil
	case DefaultsClear:
		return nil
	default:
		return fmt.Errorf("unknown userDefaults op %q", p.Op)
	}
}

type UserDefaultsResponsePayload struct {
	RequestID string             `msgpack:"requestId"`
	Value     msgpack.RawMessage `msgpack:"value,omitempty"`
	Present   bool               `msgpack:"present,omitempty"`
	Keys      []string           `msgpack:"keys,omitempty"`
	Error     string             `msgpack:"error,omitempty"`
}

func (p *UserDefaultsResponsePayload) validate() error {
	return requireRequestID(p.RequestID)
}

// ServicePayload is the generic correlated request to a named OS-service
// handler.
type ServicePayload struct {
	Service   string                        `msgpack:"service"`
	Method    string                        `msgpack:"method"`
	RequestID string                        `msgpack:"requestId"`
	Args      map[string]msgpack.RawMessage `msgpack:"args,omitempty"`
}

func (p *ServicePayload) validate() error {
	if p.Service == "" || p.Method == "" {
		return errors.New("service and method are required")
	}
	return requireRequestID(p.RequestID)
}

type ServiceResponsePayload struct {
	RequestID string             `msgpack:"requestId"`
	OK        bool               `msgpack:"ok"`
	Error     string             `msgpack:"error,omitempty"`
	Result    msgpack.RawMessage `msgpack:"result,omitempty"`
}

func (p *ServiceResponsePayload) validate() error {
	return requireRequestID(p.RequestID)
}

// ActionPayload is an imperative command targeted at a node, e.g. telling
// a web view to reload or navigate.
type ActionPayload struct {
	NodeID string                        `msgpack:"nodeId"`
	Name   string                        `msgpack:"name"`
	Args   map[string]msgpack.RawMessage `msgpack:"args,omitempty"`
}

func (p *ActionPayload) validate() error {
	if p.NodeID == "" || p.Name == "" {
		return errors.New("nodeId and name are required")
	}
	return nil
}

// EventPayload travels render → control: one UI interaction, uncorrelated
// and unacknowledged.
type EventPayload struct {
	NodeID string `msgpack:"nodeId"`
	Event  string `msgpack:"event"`
}

func (p *EventPayload) validate() error {
	if p.NodeID == "" || p.Event == "" {
		return errors.New("nodeId and event are required")
	}
	return nil
}

func requireRequestID(id string) error {
	if id == "" {
		return errors.New("requestId is required")
	}
	return nil
}
