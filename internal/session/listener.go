package session

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync"
)

var ErrNoSession = errors.New("no active session")

// Listener accepts connections on a unix socket path. Exactly one
// session is active at a time; a new connection replaces the previous
// one, which is torn down exactly as on disconnect. Replace-not-reject
// lets a restarted control process always reconnect.
type Listener struct {
	path     string
	handler  Handler
	logger   *slog.Logger
	maxFrame uint32

	mu      sync.Mutex
	current *Session
}

func NewListener(path string, handler Handler, logger *slog.Logger, maxFrame uint32) *Listener {
	return &Listener{
		path:     path,
		handler:  handler,
		logger:   logger,
		maxFrame: maxFrame,
	}
}

// Serve listens until ctx is done. The socket file is created fresh and
// removed on exit.
func (l *Listener) Serve(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return err
	}
	// A stale socket file from a crashed process blocks the bind.
	_ = os.Remove(l.path)

	ln, err := net.Listen("unix", l.path)
	if err != nil {
		return err
	}
	defer func() {
		_ = ln.Close()
		_ = os.Remove(l.path)
	}()
	l.logger.Info("listening", "socket", l.path)

	go func() {
		<-ctx.Done()
		_ = ln.Close()
		l.mu.Lock()
		current := l.current
		l.mu.Unlock()
		if current != nil {
			current.Close()
		}
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		l.startSession(ctx, conn)
	}
}

func (l *Listener) startSession(ctx context.Context, conn net.Conn) {
	s := newSession(conn, l.handler, l.logger, l.maxFrame, nil)
	s.onClose = func() {
		l.mu.Lock()
		if l.current == s {
			l.current = nil
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	previous := l.current
	l.current = s
	l.mu.Unlock()

	if previous != nil {
		l.logger.Info("replacing active session", "old", previous.ID(), "new", s.ID())
		previous.Close()
	}

	l.logger.Info("session started", "session", s.ID())
	go s.run(ctx)
}

// Current returns the active session, if any.
func (l *Listener) Current() (*Session, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.current, l.current != nil
}

// Emit forwards a UI event through the active session. Events are
// fire-and-forget: with no session alive the event is simply lost, which
// the control side must already tolerate.
func (l *Listener) Emit(nodeID, event string) error {
	s, ok := l.Current()
	if !ok {
		return ErrNoSession
	}
	return s.Emit(nodeID, event)
}
