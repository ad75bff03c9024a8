package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"energy_routing/protocol"

	"github.com/panjf2000/ants/v2"
	log "github.com/sirupsen/logrus"
	"github.com/xtaci/smux"
)

// RouteHandler answers decoded requests. Compute never returns nil.
type RouteHandler interface {
	Compute(ctx context.Context, req *protocol.RouteRequest) *protocol.RouteResponse
	Status(ctx context.Context) *protocol.StatusResponse
}

type TCPServerConfig struct {
	MaxBodyBytes int
	// ReadTimeout bounds how long a stream may take to deliver its request
	ReadTimeout time.Duration
	Smux        *smux.Config
}

// errorBody is the payload of a FrameError
type errorBody struct {
	Code    protocol.ErrorCode `json:"error_code"`
	Message string             `json:"error"`
}

// TCPServer serves route requests over smux. Every stream carries exactly one
// request frame followed by one response frame.
type TCPServer struct {
	handler  RouteHandler
	pool     *ants.Pool
	cfg      TCPServerConfig
	sessions *SessionPool

	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	listeners map[net.Listener]struct{}
	closed    bool
	wg        sync.WaitGroup
}

// NewTCPServer builds a server. Stream handlers run on pool; a nil pool runs
// each stream on its own goroutine.
func NewTCPServer(handler RouteHandler, pool *ants.Pool, cfg TCPServerConfig) *TCPServer {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if cfg.Smux == nil {
		cfg.Smux = DefaultSmuxConfig()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TCPServer{
		handler:   handler,
		pool:      pool,
		cfg:       cfg,
		sessions:  NewSessionPool(cfg.Smux, nil),
		ctx:       ctx,
		cancel:    cancel,
		listeners: make(map[net.Listener]struct{}),
	}
}

func (s *TCPServer) ListenAndServe(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	log.Infof("ListenAndServe: route server listening on %s", ln.Addr())
	return s.Serve(ln)
}

// Serve accepts connections until ln fails or the server is closed. It
// returns nil after Close.
func (s *TCPServer) Serve(ln net.Listener) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		ln.Close()
		return nil
	}
	s.listeners[ln] = struct{}{}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.listeners, ln)
		s.mu.Unlock()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if s.isClosed() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.ServeConn(conn)
		}()
	}
}

// ServeConn runs a smux server session on conn until the peer goes away
func (s *TCPServer) ServeConn(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	session, err := smux.Server(conn, s.cfg.Smux)
	if err != nil {
		log.Errorf("ServeConn: smux server for %s failed: %v", remoteAddr, err)
		conn.Close()
		return
	}
	s.sessions.Add(remoteAddr, session)
	defer s.sessions.Remove(remoteAddr, session)
	if s.isClosed() {
		return
	}
	log.Debugf("ServeConn: session opened, remoteAddr=%s", remoteAddr)

	for {
		stream, err := session.AcceptStream()
		if err != nil {
			if !session.IsClosed() {
				log.Debugf("ServeConn: accept stream from %s: %v", remoteAddr, err)
			}
			return
		}
		s.dispatch(stream)
	}
}

func (s *TCPServer) dispatch(stream *smux.Stream) {
	if s.pool == nil {
		go s.handleStream(stream)
		return
	}
	if err := s.pool.Submit(func() { s.handleStream(stream) }); err != nil {
		log.Warnf("dispatch: pool rejected stream %d: %v", stream.ID(), err)
		_ = writeError(stream, protocol.CodeInternal, fmt.Sprintf("server busy: %v", err))
		stream.Close()
	}
}

func (s *TCPServer) handleStream(stream *smux.Stream) {
	defer stream.Close()

	if s.cfg.ReadTimeout > 0 {
		_ = stream.SetReadDeadline(time.Now().Add(s.cfg.ReadTimeout))
	}
	frame, err := ReadFrame(stream, s.cfg.MaxBodyBytes)
	if err != nil {
		switch {
		case errors.Is(err, ErrFrameTooLarge), errors.Is(err, ErrBadHeader), errors.Is(err, ErrBadVersion):
			log.Warnf("handleStream: stream %d: %v", stream.ID(), err)
			_ = writeError(stream, protocol.CodeInvalidArgument, err.Error())
		default:
			log.Debugf("handleStream: stream %d read failed: %v", stream.ID(), err)
		}
		return
	}
	_ = stream.SetReadDeadline(time.Time{})

	switch frame.FrameType {
	case FrameRouteRequest:
		var req protocol.RouteRequest
		if err := frame.DecodeJSON(&req); err != nil {
			_ = writeError(stream, protocol.CodeInvalidArgument, err.Error())
			return
		}
		resp := s.handler.Compute(s.ctx, &req)
		err = WriteJSON(stream, FrameRouteResponse, resp)
	case FrameStatusRequest:
		err = WriteJSON(stream, FrameStatusResponse, s.handler.Status(s.ctx))
	default:
		err = writeError(stream, protocol.CodeInvalidArgument, fmt.Sprintf("unexpected frame type %d", frame.FrameType))
	}
	if err != nil {
		log.Warnf("handleStream: stream %d write failed: %v", stream.ID(), err)
	}
}

func writeError(stream *smux.Stream, code protocol.ErrorCode, msg string) error {
	return WriteJSON(stream, FrameError, errorBody{Code: code, Message: msg})
}

func (s *TCPServer) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// Close stops all listeners, cancels running requests and tears down sessions
func (s *TCPServer) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	var errs []error
	for ln := range s.listeners {
		if err := ln.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	s.cancel()
	s.sessions.CloseAll()
	s.wg.Wait()
	log.Infof("Close: route server stopped")
	return errors.Join(errs...)
}
