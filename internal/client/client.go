// Package client is the control-process side of the channel: it ships
// trees and patches to the rendering process, issues correlated
// side-calls, and surfaces UI events.
package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"viewlink/internal/call"
	"viewlink/internal/codec"
	"viewlink/internal/protocol"
	"viewlink/internal/view"
	"viewlink/internal/wire"
)

var ErrClosed = errors.New("client closed")

// EventFunc receives one UI interaction. Events are at-most-once: a
// disconnect can drop them, so handlers must be idempotent or re-query
// state rather than count on delivery.
type EventFunc func(nodeID, event string)

type DialogOptions struct {
	Title         string
	DefaultName   string
	AllowedTypes  []string
	AllowMultiple bool
}

type Client struct {
	conn     net.Conn
	logger   *slog.Logger
	corr     *call.Correlator
	maxFrame uint32

	outbound  chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu      sync.RWMutex
	onEvent EventFunc
}

// Dial connects to the rendering process's unix socket.
func Dial(ctx context.Context, socketPath string, logger *slog.Logger) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	c := &Client{
		conn:     conn,
		logger:   logger,
		corr:     call.NewCorrelator(),
		maxFrame: wire.DefaultMaxFrameSize,
		outbound: make(chan []byte, 256),
		closed:   make(chan struct{}),
	}
	go c.writeLoop()
	go c.readLoop()
	return c, nil
}

// OnEvent installs the interaction event callback.
func (c *Client) OnEvent(fn EventFunc) {
	c.mu.Lock()
	c.onEvent = fn
	c.mu.Unlock()
}

// Close tears the connection down and resolves every outstanding
// side-call with a cancellation.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		close(c.closed)
		_ = c.conn.Close()
		c.corr.CancelAll(fmt.Errorf("%w: %w", call.ErrCancelled, ErrClosed))
	})
	return nil
}

func (c *Client) send(typ string, payload any) error {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		return err
	}
	select {
	case <-c.closed:
		return ErrClosed
	case c.outbound <- frame:
		return nil
	}
}

func (c *Client) writeLoop() {
	for {
		select {
		case <-c.closed:
			return
		case frame := <-c.outbound:
			if err := wire.WriteFrame(c.conn, frame); err != nil {
				c.logger.Warn("write failed, closing", "error", err)
				_ = c.Close()
				return
			}
		}
	}
}

func (c *Client) readLoop() {
	defer func() { _ = c.Close() }()
	for {
		payload, err := wire.ReadFrame(c.conn, c.maxFrame)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				c.logger.Warn("read failed", "error", err)
			}
			return
		}
		msg, err := protocol.Decode(payload)
		if err != nil {
			c.logger.Warn("dropping undecodable message", "error", err)
			continue
		}
		c.route(msg)
	}
}

func (c *Client) route(msg *protocol.Message) {
	switch p := msg.Payload.(type) {
	case *protocol.EventPayload:
		c.mu.RLock()
		fn := c.onEvent
		c.mu.RUnlock()
		if fn != nil {
			fn(p.NodeID, p.Event)
		}
	case *protocol.FileDialogResponsePayload:
		c.complete(p.RequestID, p)
	case *protocol.UserDefaultsResponsePayload:
		c.complete(p.RequestID, p)
	case *protocol.ServiceResponsePayload:
		c.complete(p.RequestID, p)
	case *protocol.ClipboardResponsePayload:
		c.complete(p.RequestID, p)
	case *protocol.NotificationResponsePayload:
		c.complete(p.RequestID, p)
	default:
		c.logger.Warn("dropping message flowing the wrong way", "type", msg.Type)
	}
}

func (c *Client) complete(requestID string, payload any) {
	if err := c.corr.Complete(requestID, payload, nil); err != nil {
		c.logger.Warn("uncorrelatable response", "requestId", requestID, "error", err)
	}
}

// roundTrip issues one correlated side-call and waits for its response.
func (c *Client) roundTrip(ctx context.Context, typ string, build func(requestID string) any) (any, error) {
	id := c.corr.Issue()
	if err := c.send(typ, build(id)); err != nil {
		_ = c.corr.Complete(id, nil, err)
	}
	return c.corr.Await(ctx, id)
}

// --- tree updates ---

func (c *Client) Render(root *view.Node) error {
	return c.send(protocol.KindRender, &protocol.RenderPayload{Root: root})
}

func (c *Client) RenderSettings(root *view.Node) error {
	return c.send(protocol.KindSettingsRender, &protocol.RenderPayload{Root: root})
}

func (c *Client) Patch(patches ...view.Patch) error {
	return c.send(protocol.KindPatch, &protocol.PatchPayload{Patches: patches})
}

func (c *Client) SetStatusIcon(name string) error {
	return c.send(protocol.KindPatch, &protocol.PatchPayload{StatusIcon: &name})
}

func (c *Client) SetWindowSize(width, height float64) error {
	return c.send(protocol.KindPatch, &protocol.PatchPayload{
		WindowWidth:  &width,
		WindowHeight: &height,
	})
}

func (c *Client) OpenSettings() error  { return c.send(protocol.KindSettingsOpen, nil) }
func (c *Client) CloseSettings() error { return c.send(protocol.KindSettingsClose, nil) }

// Quit asks the rendering process to end the session. The connection
// closes from the far side; Close is still the caller's cleanup.
func (c *Client) Quit() error {
	return c.send(protocol.KindQuit, nil)
}

// --- notifications ---

func (c *Client) Notify(title, body string) error {
	return c.send(protocol.KindNotify, &protocol.NotifyPayload{Title: title, Body: body})
}

func (c *Client) PushNotification(title, body string, actions ...protocol.NotificationAction) error {
	return c.send(protocol.KindNotification, &protocol.NotificationPayload{
		Op:      protocol.NotificationPush,
		Title:   title,
		Body:    body,
		Actions: actions,
	})
}

func (c *Client) ScheduleNotification(id, title, body string, at time.Time, repeat time.Duration) error {
	trigger := at.UnixMilli()
	p := &protocol.NotificationPayload{
		Op:        protocol.NotificationSchedule,
		ID:        id,
		Title:     title,
		Body:      body,
		TriggerAt: &trigger,
	}
	if repeat > 0 {
		ms := repeat.Milliseconds()
		p.Repeat = &ms
	}
	return c.send(protocol.KindNotification, p)
}

func (c *Client) CancelNotification(id string) error {
	return c.send(protocol.KindNotification, &protocol.NotificationPayload{
		Op: protocol.NotificationCancel,
		ID: id,
	})
}

func (c *Client) PendingNotifications(ctx context.Context) ([]string, error) {
	res, err := c.roundTrip(ctx, protocol.KindNotification, func(id string) any {
		return &protocol.NotificationPayload{Op: protocol.NotificationQuery, RequestID: id}
	})
	if err != nil {
		return nil, err
	}
	return res.(*protocol.NotificationResponsePayload).Pending, nil
}

// --- clipboard ---

func (c *Client) ClipboardWrite(text string) error {
	return c.send(protocol.KindClipboard, &protocol.ClipboardPayload{
		Op:   protocol.ClipboardWrite,
		Text: text,
	})
}

func (c *Client) ClipboardRead(ctx context.Context) (string, error) {
	res, err := c.roundTrip(ctx, protocol.KindClipboard, func(id string) any {
		return &protocol.ClipboardPayload{Op: protocol.ClipboardRead, RequestID: id}
	})
	if err != nil {
		return "", err
	}
	resp := res.(*protocol.ClipboardResponsePayload)
	if resp.Error != "" {
		return "", errors.New(resp.Error)
	}
	return resp.Text, nil
}

// --- file dialogs ---

// PickFiles returns the chosen paths, or cancelled=true when the user
// dismissed the dialog. Cancellation is an outcome, not an error.
func (c *Client) PickFiles(ctx context.Context, opts DialogOptions) (paths []string, cancelled bool, err error) {
	return c.fileDialog(ctx, protocol.FileDialogPickFiles, opts)
}

func (c *Client) PickDirectory(ctx context.Context, title string) (path string, cancelled bool, err error) {
	paths, cancelled, err := c.fileDialog(ctx, protocol.FileDialogPickDirectory, DialogOptions{Title: title})
	if err != nil || cancelled {
		return "", cancelled, err
	}
	return paths[0], false, nil
}

func (c *Client) SaveFile(ctx context.Context, title, defaultName string) (path string, cancelled bool, err error) {
	paths, cancelled, err := c.fileDialog(ctx, protocol.FileDialogSave, DialogOptions{
		Title:       title,
		DefaultName: defaultName,
	})
	if err != nil || cancelled {
		return "", cancelled, err
	}
	return paths[0], false, nil
}

func (c *Client) fileDialog(ctx context.Context, op string, opts DialogOptions) ([]string, bool, error) {
	res, err := c.roundTrip(ctx, protocol.KindFileDialog, func(id string) any {
		return &protocol.FileDialogPayload{
			Op:            op,
			RequestID:     id,
			Title:         opts.Title,
			DefaultName:   opts.DefaultName,
			AllowedTypes:  opts.AllowedTypes,
			AllowMultiple: opts.AllowMultiple,
		}
	})
	if err != nil {
		return nil, false, err
	}
	resp := res.(*protocol.FileDialogResponsePayload)
	if resp.Cancelled || len(resp.Paths) == 0 {
		return nil, true, nil
	}
	return resp.Paths, false, nil
}

// --- user defaults ---

func (c *Client) DefaultsSet(key string, value any) error {
	blob, err := codec.Marshal(codec.Normalize(value))
	if err != nil {
		return err
	}
	return c.send(protocol.KindUserDefaults, &protocol.UserDefaultsPayload{
		Op:    protocol.DefaultsSet,
		Key:   key,
		Value: blob,
	})
}

func (c *Client) DefaultsGet(ctx context.Context, key string) (any, bool, error) {
	res, err := c.defaultsCall(ctx, func(id string) *protocol.UserDefaultsPayload {
		return &protocol.UserDefaultsPayload{Op: protocol.DefaultsGet, Key: key, RequestID: id}
	})
	if err != nil {
		return nil, false, err
	}
	if !res.Present {
		return nil, false, nil
	}
	v, err := codec.DecodeValue(res.Value)
	if err != nil {
		return nil, false, err
	}
	return v, true, nil
}

func (c *Client) DefaultsRemove(key string) error {
	return c.send(protocol.KindUserDefaults, &protocol.UserDefaultsPayload{
		Op:  protocol.DefaultsRemove,
		Key: key,
	})
}

func (c *Client) DefaultsClear() error {
	return c.send(protocol.KindUserDefaults, &protocol.UserDefaultsPayload{
		Op: protocol.DefaultsClear,
	})
}

func (c *Client) DefaultsContainsKey(ctx context.Context, key string) (bool, error) {
	res, err := c.defaultsCall(ctx, func(id string) *protocol.UserDefaultsPayload {
		return &protocol.UserDefaultsPayload{Op: protocol.DefaultsContainsKey, Key: key, RequestID: id}
	})
	if err != nil {
		return false, err
	}
	return res.Present, nil
}

func (c *Client) DefaultsKeys(ctx context.Context) ([]string, error) {
	res, err := c.defaultsCall(ctx, func(id string) *protocol.UserDefaultsPayload {
		return &protocol.UserDefaultsPayload{Op: protocol.DefaultsGetKeys, RequestID: id}
	})
	if err != nil {
		return nil, err
	}
	return res.Keys, nil
}

func (c *Client) defaultsCall(ctx context.Context, build func(requestID string) *protocol.UserDefaultsPayload) (*protocol.UserDefaultsResponsePayload, error) {
	res, err := c.roundTrip(ctx, protocol.KindUserDefaults, func(id string) any {
		return build(id)
	})
	if err != nil {
		return nil, err
	}
	resp := res.(*protocol.UserDefaultsResponsePayload)
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	return resp, nil
}

// --- services and actions ---

// CallService invokes a named OS-service handler on the rendering side
// and returns the normalized result. A handler failure comes back as an
// error, never as a hang.
func (c *Client) CallService(ctx context.Context, service, method string, args map[string]any) (any, error) {
	encoded, err := encodeArgs(args)
	if err != nil {
		return nil, err
	}
	res, err := c.roundTrip(ctx, protocol.KindService, func(id string) any {
		return &protocol.ServicePayload{
			Service:   service,
			Method:    method,
			RequestID: id,
			Args:      encoded,
		}
	})
	if err != nil {
		return nil, err
	}
	resp := res.(*protocol.ServiceResponsePayload)
	if !resp.OK {
		return nil, fmt.Errorf("service %s.%s: %s", service, method, resp.Error)
	}
	if len(resp.Result) == 0 {
		return nil, nil
	}
	return codec.DecodeValue(resp.Result)
}

func (c *Client) SendAction(nodeID, name string, args map[string]any) error {
	encoded, err := encodeArgs(args)
	if err != nil {
		return err
	}
	return c.send(protocol.KindAction, &protocol.ActionPayload{
		NodeID: nodeID,
		Name:   name,
		Args:   encoded,
	})
}

func encodeArgs(args map[string]any) (map[string]codec.RawMessage, error) {
	if len(args) == 0 {
		return nil, nil
	}
	out := make(map[string]codec.RawMessage, len(args))
	for k, v := range args {
		blob, err := codec.Marshal(codec.Normalize(v))
		if err != nil {
			return nil, fmt.Errorf("encode arg %q: %w", k, err)
		}
		out[k] = blob
	}
	return out, nil
}
