package host

import (
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sort"
	"sync"
	"time"
)

// Notifier covers both the simple notify message and the full-featured
// notification surface: immediate push, scheduled delivery, cancel, and
// query of pending schedules.
type Notifier interface {
	Push(title, body string) error
	Schedule(id, title, body string, at time.Time, repeat time.Duration) error
	Cancel(id string)
	Pending() []string
}

// SystemNotifier delivers via the platform's notification tool and keeps
// schedules in an in-process timer table. Schedules do not survive a
// restart; the control process re-schedules on reconnect.
type SystemNotifier struct {
	mu     sync.Mutex
	timers map[string]*time.Timer

	// deliver is swappable for tests.
	deliver func(title, body string) error
}

func NewSystemNotifier() *SystemNotifier {
	return &SystemNotifier{
		timers:  map[string]*time.Timer{},
		deliver: deliverSystem,
	}
}

// NewLogNotifier keeps the timer table but delivers to the log. Used
// when the config file selects the "log" backend or disables
// notifications entirely.
func NewLogNotifier(logger *slog.Logger) *SystemNotifier {
	return &SystemNotifier{
		timers: map[string]*time.Timer{},
		deliver: func(title, body string) error {
			logger.Info("notification", "title", title, "body", body)
			return nil
		},
	}
}

func (n *SystemNotifier) Push(title, body string) error {
	return n.deliver(title, body)
}

func (n *SystemNotifier) Schedule(id, title, body string, at time.Time, repeat time.Duration) error {
	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if old, ok := n.timers[id]; ok {
		old.Stop()
	}
	var fire func()
	fire = func() {
		_ = n.deliver(title, body)
		n.mu.Lock()
		defer n.mu.Unlock()
		if repeat > 0 {
			if _, ok := n.timers[id]; ok {
				n.timers[id] = time.AfterFunc(repeat, fire)
			}
		} else {
			delete(n.timers, id)
		}
	}
	n.timers[id] = time.AfterFunc(delay, fire)
	return nil
}

func (n *SystemNotifier) Cancel(id string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if t, ok := n.timers[id]; ok {
		t.Stop()
		delete(n.timers, id)
	}
}

func (n *SystemNotifier) Pending() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.timers))
	for id := range n.timers {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Stop cancels every schedule. Called on shutdown.
func (n *SystemNotifier) Stop() {
	n.mu.Lock()
	defer n.mu.Unlock()
	for id, t := range n.timers {
		t.Stop()
		delete(n.timers, id)
	}
}

func deliverSystem(title, body string) error {
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf(`display notification %q with title %q`, body, title)
		return exec.Command("osascript", "-e", script).Run()
	case "linux":
		return exec.Command("notify-send", title, body).Run()
	default:
		return errors.New("notifications unsupported on this platform")
	}
}
