// Package dispatch routes decoded messages to the tree, the host, and
// the side-call backends. Tree mutation is synchronous; side-calls run
// on their own goroutine so a slow dialog never blocks the read loop.
package dispatch

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"viewlink/internal/codec"
	"viewlink/internal/defaultsdb"
	"viewlink/internal/host"
	"viewlink/internal/protocol"
	"viewlink/internal/session"
	"viewlink/internal/view"
)

type Config struct {
	Logger    *slog.Logger
	Host      host.Host
	Clipboard host.Clipboard
	Dialogs   host.FileDialogs
	Notifier  host.Notifier
	Services  *host.Registry
	Defaults  *defaultsdb.Store
}

type Dispatcher struct {
	logger    *slog.Logger
	host      host.Host
	clipboard host.Clipboard
	dialogs   host.FileDialogs
	notifier  host.Notifier
	services  *host.Registry
	defaults  *defaultsdb.Store

	mu       sync.Mutex
	tree     *view.Tree
	settings *view.Tree
}

func New(cfg Config) *Dispatcher {
	return &Dispatcher{
		logger:    cfg.Logger,
		host:      cfg.Host,
		clipboard: cfg.Clipboard,
		dialogs:   cfg.Dialogs,
		notifier:  cfg.Notifier,
		services:  cfg.Services,
		defaults:  cfg.Defaults,
	}
}

// Tree returns the live tree, nil before the first render.
func (d *Dispatcher) Tree() *view.Tree {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree
}

// SettingsTree returns the settings window tree, nil until rendered.
func (d *Dispatcher) SettingsTree() *view.Tree {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.settings
}

func (d *Dispatcher) HandleMessage(ctx context.Context, msg *protocol.Message, peer session.Peer) {
	switch msg.Type {
	case protocol.KindRender:
		d.handleRender(msg.Payload.(*protocol.RenderPayload))
	case protocol.KindSettingsRender:
		d.handleSettingsRender(msg.Payload.(*protocol.RenderPayload))
	case protocol.KindPatch:
		d.handlePatch(msg.Payload.(*protocol.PatchPayload))
	case protocol.KindNotify:
		p := msg.Payload.(*protocol.NotifyPayload)
		go d.pushNotification(p.Title, p.Body)
	case protocol.KindNotification:
		d.handleNotification(msg.Payload.(*protocol.NotificationPayload), peer)
	case protocol.KindClipboard:
		d.handleClipboard(msg.Payload.(*protocol.ClipboardPayload), peer)
	case protocol.KindFileDialog:
		go d.handleFileDialog(msg.Payload.(*protocol.FileDialogPayload), peer)
	case protocol.KindUserDefaults:
		d.handleDefaults(msg.Payload.(*protocol.UserDefaultsPayload), peer)
	case protocol.KindService:
		go d.handleService(ctx, msg.Payload.(*protocol.ServicePayload), peer)
	case protocol.KindAction:
		d.handleAction(msg.Payload.(*protocol.ActionPayload))
	case protocol.KindSettingsOpen:
		d.host.SettingsVisible(true)
	case protocol.KindSettingsClose:
		d.host.SettingsVisible(false)
	case protocol.KindQuit:
		d.host.Quit()
		peer.Close()
	default:
		// Response and event kinds travel the other direction.
		d.logger.Warn("dropping message flowing the wrong way", "type", msg.Type)
	}
}

// SessionClosed discards the live trees; the next session starts from a
// fresh render.
func (d *Dispatcher) SessionClosed() {
	d.mu.Lock()
	d.tree = nil
	d.settings = nil
	d.mu.Unlock()
	d.logger.Info("session closed, live tree discarded")
}

func (d *Dispatcher) handleRender(p *protocol.RenderPayload) {
	tree, err := view.NewTree(p.Root)
	if err != nil {
		d.logger.Error("rejecting render", "error", err)
		return
	}
	d.mu.Lock()
	d.tree = tree
	d.mu.Unlock()
	d.host.TreeUpdated(tree)
}

func (d *Dispatcher) handleSettingsRender(p *protocol.RenderPayload) {
	tree, err := view.NewTree(p.Root)
	if err != nil {
		d.logger.Error("rejecting settings render", "error", err)
		return
	}
	d.mu.Lock()
	d.settings = tree
	d.mu.Unlock()
	d.host.SettingsUpdated(tree)
}

func (d *Dispatcher) handlePatch(p *protocol.PatchPayload) {
	if len(p.Patches) > 0 {
		d.mu.Lock()
		tree := d.tree
		d.mu.Unlock()
		if tree == nil {
			d.logger.Error("patch before render, dropping batch")
		} else if err := tree.Apply(p.Patches); err != nil {
			// The batch aborted at the failing patch; the tree holds
			// the applied prefix and the host keeps showing it.
			d.logger.Error("patch batch aborted", "error", err)
			d.host.TreeUpdated(tree)
		} else {
			d.host.TreeUpdated(tree)
		}
	}

	if p.StatusIcon != nil {
		d.host.SetStatusIcon(*p.StatusIcon)
	}
	if p.WindowWidth != nil && p.WindowHeight != nil {
		d.host.SetWindowSize(*p.WindowWidth, *p.WindowHeight)
	}
}

func (d *Dispatcher) pushNotification(title, body string) {
	if err := d.notifier.Push(title, body); err != nil {
		d.logger.Warn("notification failed", "error", err)
	}
}

func (d *Dispatcher) handleNotification(p *protocol.NotificationPayload, peer session.Peer) {
	switch p.Op {
	case protocol.NotificationPush:
		go d.pushNotification(p.Title, p.Body)
	case protocol.NotificationSchedule:
		var repeat time.Duration
		if p.Repeat != nil {
			repeat = time.Duration(*p.Repeat) * time.Millisecond
		}
		if err := d.notifier.Schedule(p.ID, p.Title, p.Body, time.UnixMilli(*p.TriggerAt), repeat); err != nil {
			d.logger.Warn("schedule failed", "id", p.ID, "error", err)
		}
	case protocol.NotificationCancel:
		d.notifier.Cancel(p.ID)
	case protocol.NotificationQuery:
		go func() {
			resp := &protocol.NotificationResponsePayload{
				RequestID: p.RequestID,
				Pending:   d.notifier.Pending(),
			}
			d.send(peer, protocol.KindNotificationResponse, resp)
		}()
	}
}

func (d *Dispatcher) handleClipboard(p *protocol.ClipboardPayload, peer session.Peer) {
	switch p.Op {
	case protocol.ClipboardWrite:
		go func() {
			if err := d.clipboard.Write(p.Text); err != nil {
				d.logger.Warn("clipboard write failed", "error", err)
			}
		}()
	case protocol.ClipboardRead:
		go func() {
			resp := &protocol.ClipboardResponsePayload{RequestID: p.RequestID}
			text, err := d.clipboard.Read()
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.Text = text
			}
			d.send(peer, protocol.KindClipboardResponse, resp)
		}()
	}
}

func (d *Dispatcher) handleFileDialog(p *protocol.FileDialogPayload, peer session.Peer) {
	opts := host.DialogOptions{
		Title:         p.Title,
		DefaultName:   p.DefaultName,
		AllowedTypes:  p.AllowedTypes,
		AllowMultiple: p.AllowMultiple,
	}
	var (
		res host.DialogResult
		err error
	)
	switch p.Op {
	case protocol.FileDialogPickFiles:
		res, err = d.dialogs.PickFiles(opts)
	case protocol.FileDialogPickDirectory:
		res, err = d.dialogs.PickDirectory(opts)
	case protocol.FileDialogSave:
		res, err = d.dialogs.Save(opts)
	}
	resp := &protocol.FileDialogResponsePayload{RequestID: p.RequestID}
	if err != nil {
		// The control side models dialog failure as cancellation.
		d.logger.Warn("file dialog failed", "op", p.Op, "error", err)
		resp.Cancelled = true
	} else {
		resp.Cancelled = res.Cancelled
		resp.Paths = res.Paths
	}
	d.send(peer, protocol.KindFileDialogResponse, resp)
}

func (d *Dispatcher) handleDefaults(p *protocol.UserDefaultsPayload, peer session.Peer) {
	switch p.Op {
	case protocol.DefaultsSet:
		go func() {
			if err := d.defaults.SetRaw(p.Key, p.Value); err != nil {
				d.logger.Warn("defaults set failed", "key", p.Key, "error", err)
			}
		}()
	case protocol.DefaultsRemove:
		go func() {
			if err := d.defaults.Remove(p.Key); err != nil {
				d.logger.Warn("defaults remove failed", "key", p.Key, "error", err)
			}
		}()
	case protocol.DefaultsClear:
		go func() {
			if err := d.defaults.Clear(); err != nil {
				d.logger.Warn("defaults clear failed", "error", err)
			}
		}()
	case protocol.DefaultsGet:
		go func() {
			resp := &protocol.UserDefaultsResponsePayload{RequestID: p.RequestID}
			blob, present, err := d.defaults.GetRaw(p.Key)
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.Present = present
				resp.Value = blob
			}
			d.send(peer, protocol.KindUserDefaultsResponse, resp)
		}()
	case protocol.DefaultsContainsKey:
		go func() {
			resp := &protocol.UserDefaultsResponsePayload{RequestID: p.RequestID}
			present, err := d.defaults.ContainsKey(p.Key)
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.Present = present
			}
			d.send(peer, protocol.KindUserDefaultsResponse, resp)
		}()
	case protocol.DefaultsGetKeys:
		go func() {
			resp := &protocol.UserDefaultsResponsePayload{RequestID: p.RequestID}
			keys, err := d.defaults.Keys()
			if err != nil {
				resp.Error = err.Error()
			} else {
				resp.Keys = keys
			}
			d.send(peer, protocol.KindUserDefaultsResponse, resp)
		}()
	}
}

func (d *Dispatcher) handleService(ctx context.Context, p *protocol.ServicePayload, peer session.Peer) {
	resp := &protocol.ServiceResponsePayload{RequestID: p.RequestID}
	args, err := decodeArgs(p.Args)
	if err == nil {
		var result any
		result, err = d.services.Call(ctx, p.Service, p.Method, args)
		if err == nil {
			var blob []byte
			blob, err = codec.Marshal(codec.Normalize(result))
			if err == nil {
				resp.OK = true
				resp.Result = blob
			}
		}
	}
	if err != nil {
		resp.Error = err.Error()
	}
	d.send(peer, protocol.KindServiceResponse, resp)
}

func (d *Dispatcher) handleAction(p *protocol.ActionPayload) {
	args, err := decodeArgs(p.Args)
	if err != nil {
		d.logger.Warn("undecodable action args", "node", p.NodeID, "error", err)
		return
	}
	if err := d.host.Action(p.NodeID, p.Name, args); err != nil {
		d.logger.Warn("action failed", "node", p.NodeID, "name", p.Name, "error", err)
	}
}

func (d *Dispatcher) send(peer session.Peer, typ string, payload any) {
	if err := peer.Send(typ, payload); err != nil {
		d.logger.Warn("response dropped", "type", typ, "error", err)
	}
}

func decodeArgs(raw map[string]codec.RawMessage) (map[string]any, error) {
	if len(raw) == 0 {
		return map[string]any{}, nil
	}
	byteMap := make(map[string][]byte, len(raw))
	for k, v := range raw {
		byteMap[k] = v
	}
	return codec.DecodeValueMap(byteMap)
}
