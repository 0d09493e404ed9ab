package net

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/tilewars/server/internal/config"
)

const handshakeTimeout = 5 * time.Second

type sessionConfig struct {
	inSize, outSize           int
	readTimeout, writeTimeout time.Duration
	onClose                   func(uint64)
}

// Server upgrades HTTP requests to websocket sessions. New and dead
// sessions reach the game loop through channels.
type Server struct {
	cfg      config.NetworkConfig
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
	newConns chan *Session
	deadCh   chan uint64
	http     *http.Server
	listener net.Listener
	log      *zap.Logger
}

func NewServer(cfg config.NetworkConfig, log *zap.Logger) *Server {
	s := &Server{
		cfg: cfg,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		newConns: make(chan *Session, 64),
		deadCh:   make(chan uint64, 64),
		log:      log,
	}
	mux := http.NewServeMux()
	mux.Handle("/ws", s)
	s.http = &http.Server{Handler: mux, ReadHeaderTimeout: handshakeTimeout}
	return s
}

// Listen binds the configured address. Serve must follow.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.cfg.BindAddress)
	if err != nil {
		return err
	}
	s.listener = ln
	return nil
}

// Serve runs the HTTP server until Shutdown.
func (s *Server) Serve() error {
	if err := s.http.Serve(s.listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// ServeHTTP performs the join handshake and hands the session to the game
// loop.
func (s *Server) ServeHTTP(rw http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(rw, r, nil)
	if err != nil {
		s.log.Debug("upgrade failed", zap.Error(err))
		return
	}
	if s.cfg.MaxMessageBytes > 0 {
		conn.SetReadLimit(s.cfg.MaxMessageBytes)
	}

	hello, ok := s.handshake(conn)
	if !ok {
		conn.Close()
		return
	}

	id := s.nextID.Add(1)
	sess := newSession(conn, id, hello, sessionConfig{
		inSize:       s.cfg.InQueueSize,
		outSize:      s.cfg.OutQueueSize,
		readTimeout:  s.cfg.ReadTimeout,
		writeTimeout: s.cfg.WriteTimeout,
		onClose:      s.NotifyDead,
	}, s.log)

	joined, _ := json.Marshal(ServerFrame{Type: FrameJoined, ClientID: hello.ClientID})
	sess.reply(joined)
	sess.start()
	s.log.Info("client connected", zap.Uint64("session", id), zap.String("client", string(hello.ClientID)), zap.String("ip", sess.IP))

	select {
	case s.newConns <- sess:
	default:
		s.log.Warn("session queue full, refusing client")
		sess.Close()
	}
}

func (s *Server) handshake(conn *websocket.Conn) (ClientFrame, bool) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return ClientFrame{}, false
	}
	f, err := decodeClientFrame(raw)
	if err != nil || f.Type != FrameJoin || f.ClientID == "" {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "expected join"), time.Now().Add(time.Second))
		return ClientFrame{}, false
	}
	if f.Name == "" {
		f.Name = string(f.ClientID)
	}
	_ = conn.SetReadDeadline(time.Time{})
	return f, true
}

// NewSessions returns the channel of newly joined sessions.
func (s *Server) NewSessions() <-chan *Session {
	return s.newConns
}

// NotifyDead reports a closed session to the game loop.
func (s *Server) NotifyDead(sessionID uint64) {
	select {
	case s.deadCh <- sessionID:
	default:
	}
}

func (s *Server) DeadSessions() <-chan uint64 {
	return s.deadCh
}
