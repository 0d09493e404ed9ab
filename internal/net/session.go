package net

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/intent"
	"github.com/tilewars/server/internal/world"
)

// Session is one client connection. Network I/O runs in dedicated
// goroutines; game state is touched only from the game loop.
type Session struct {
	ID       uint64
	ClientID world.ClientID
	Name     string
	Flag     string
	IP       string

	conn *websocket.Conn

	InQueue  chan intent.Intent // game loop reads decoded intents here
	OutQueue chan []byte        // writer goroutine reads frames here

	outBuf [][]byte // buffered frames, flushed by OutputSystem (game loop only)

	closeCh   chan struct{}
	closeOnce sync.Once
	closed    atomic.Bool

	readTimeout  time.Duration
	writeTimeout time.Duration
	onClose      func(uint64)

	log *zap.Logger
}

func newSession(conn *websocket.Conn, id uint64, hello ClientFrame, cfg sessionConfig, log *zap.Logger) *Session {
	return &Session{
		ID:           id,
		ClientID:     hello.ClientID,
		Name:         hello.Name,
		Flag:         hello.Flag,
		IP:           conn.RemoteAddr().String(),
		conn:         conn,
		InQueue:      make(chan intent.Intent, cfg.inSize),
		OutQueue:     make(chan []byte, cfg.outSize),
		closeCh:      make(chan struct{}),
		readTimeout:  cfg.readTimeout,
		writeTimeout: cfg.writeTimeout,
		onClose:      cfg.onClose,
		log:          log.With(zap.Uint64("session", id), zap.String("client", string(hello.ClientID))),
	}
}

func (s *Session) start() {
	go s.readLoop()
	go s.writeLoop()
}

// Send buffers a frame. It is not written until FlushOutput runs.
// Called only from the game loop goroutine.
func (s *Session) Send(frame []byte) {
	if s.closed.Load() {
		return
	}
	s.outBuf = append(s.outBuf, frame)
}

// FlushOutput drains the output buffer to OutQueue for the writer
// goroutine. A client whose queue is full is disconnected.
func (s *Session) FlushOutput() {
	for _, frame := range s.outBuf {
		select {
		case s.OutQueue <- frame:
		default:
			s.log.Warn("output queue full, dropping slow client")
			s.Close()
			s.outBuf = s.outBuf[:0]
			return
		}
	}
	s.outBuf = s.outBuf[:0]
}

func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		close(s.closeCh)
		_ = s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		s.conn.Close()
		if s.onClose != nil {
			s.onClose(s.ID)
		}
	})
}

func (s *Session) IsClosed() bool {
	return s.closed.Load()
}

// readLoop decodes intent frames and queues them for the game loop.
// Intents signed with another client's ID are refused.
func (s *Session) readLoop() {
	defer s.Close()

	for {
		if s.readTimeout > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(s.readTimeout))
		}
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				s.log.Debug("read error", zap.Error(err))
			}
			return
		}
		f, err := decodeClientFrame(raw)
		if err != nil || f.Type != FrameIntent {
			s.reply(errorFrame("expected intent frame"))
			continue
		}
		in, err := intent.Decode(f.Intent)
		if err != nil {
			s.log.Debug("bad intent", zap.Error(err))
			s.reply(errorFrame(err.Error()))
			continue
		}
		if in.Client() != s.ClientID {
			s.log.Warn("intent for another client", zap.String("claimed", string(in.Client())))
			s.reply(errorFrame("clientID mismatch"))
			continue
		}

		select {
		case s.InQueue <- in:
		case <-s.closeCh:
			return
		}
	}
}

// reply queues a frame straight to the writer, bypassing the tick buffer.
func (s *Session) reply(frame []byte) {
	select {
	case s.OutQueue <- frame:
	default:
	}
}

func (s *Session) writeLoop() {
	defer s.Close()

	for {
		select {
		case frame := <-s.OutQueue:
			if s.writeTimeout > 0 {
				_ = s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout))
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				if !s.closed.Load() {
					s.log.Debug("write error", zap.Error(err))
				}
				return
			}
		case <-s.closeCh:
			return
		}
	}
}
