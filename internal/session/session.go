// Package session owns the accepted connection: one read loop, one
// serialized writer, and teardown that never leaves a waiter or a stale
// tree behind.
package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"viewlink/internal/protocol"
	"viewlink/internal/wire"
)

var ErrSessionClosed = errors.New("session closed")

const outboundQueueSize = 256

// Peer is the surface handlers get for talking back over the channel.
type Peer interface {
	// Send serializes one message through the session's single writer.
	Send(typ string, payload any) error
	// Emit sends a fire-and-forget UI event upstream.
	Emit(nodeID, event string) error
	Close()
}

// Handler consumes decoded messages. HandleMessage runs on the read
// loop, so long-running work must be dispatched to its own goroutine and
// respond via peer.Send when it finishes.
type Handler interface {
	HandleMessage(ctx context.Context, msg *protocol.Message, peer Peer)
	// SessionClosed fires exactly once per session, after the read loop
	// stopped. The live tree is discarded here.
	SessionClosed()
}

// Session is one accepted connection from accept to disconnect/quit.
type Session struct {
	id       string
	conn     net.Conn
	logger   *slog.Logger
	handler  Handler
	maxFrame uint32

	outbound  chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	onClose   func()

	cancel context.CancelFunc
}

func newSession(conn net.Conn, handler Handler, logger *slog.Logger, maxFrame uint32, onClose func()) *Session {
	if maxFrame == 0 {
		maxFrame = wire.DefaultMaxFrameSize
	}
	id := uuid.NewString()
	return &Session{
		id:       id,
		conn:     conn,
		logger:   logger.With("session", id),
		handler:  handler,
		maxFrame: maxFrame,
		outbound: make(chan []byte, outboundQueueSize),
		closed:   make(chan struct{}),
		onClose:  onClose,
	}
}

func (s *Session) ID() string { return s.id }

// Send encodes and enqueues one message. All writes funnel through the
// session's writer goroutine; concurrent unsynchronized writes would
// interleave frames and corrupt the stream.
func (s *Session) Send(typ string, payload any) error {
	frame, err := protocol.Encode(typ, payload)
	if err != nil {
		return err
	}
	select {
	case <-s.closed:
		return ErrSessionClosed
	case s.outbound <- frame:
		return nil
	}
}

func (s *Session) Emit(nodeID, event string) error {
	return s.Send(protocol.KindEvent, &protocol.EventPayload{NodeID: nodeID, Event: event})
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		close(s.closed)
		_ = s.conn.Close()
		if s.cancel != nil {
			s.cancel()
		}
		if s.onClose != nil {
			s.onClose()
		}
		s.handler.SessionClosed()
	})
}

// run drives the writer and the read loop; it returns when the session
// is torn down.
func (s *Session) run(parent context.Context) {
	ctx, cancel := context.WithCancel(parent)
	s.cancel = cancel
	defer s.Close()

	go s.writeLoop()
	s.readLoop(ctx)
}

func (s *Session) writeLoop() {
	for {
		select {
		case <-s.closed:
			return
		case frame := <-s.outbound:
			if err := wire.WriteFrame(s.conn, frame); err != nil {
				s.logger.Warn("write failed, closing session", "error", err)
				s.Close()
				return
			}
		}
	}
}

func (s *Session) readLoop(ctx context.Context) {
	for {
		payload, err := wire.ReadFrame(s.conn, s.maxFrame)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				s.logger.Info("peer disconnected")
			case errors.Is(err, wire.ErrFrameTooLarge):
				// A bad length prefix desynchronizes the whole
				// stream; only teardown is safe.
				s.logger.Error("fatal frame error", "error", err)
			default:
				s.logger.Warn("read failed", "error", err)
			}
			return
		}

		msg, err := protocol.Decode(payload)
		if err != nil {
			// A single malformed message must not take down the
			// session: framing is still intact, so later messages
			// decode fine.
			switch {
			case errors.Is(err, protocol.ErrUnknownKind):
				s.logger.Warn("dropping message of unknown kind", "error", err)
			default:
				s.logger.Warn("dropping undecodable message", "error", err)
			}
			continue
		}

		s.handler.HandleMessage(ctx, msg, s)

		select {
		case <-s.closed:
			return
		default:
		}
	}
}
