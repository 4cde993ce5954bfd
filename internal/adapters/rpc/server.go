package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

const (
	// readTimeout bounds how long a connection may dribble its request in
	readTimeout = 30 * time.Second

	// writeChunkSize keeps individual socket writes small; large replies
	// (log tails, big listings) go out in pieces
	writeChunkSize = 4096

	// maxRequestBytes caps a single request frame
	maxRequestBytes = 1 << 20
)

// Server speaks JSON-RPC 2.0 over a unix stream socket. Each connection
// carries exactly one request and one reply: the server reads until EOF or
// a complete JSON document, writes the reply, closes its write side, and
// never waits for the client to hang up.
type Server struct {
	socketPath string
	listener   net.Listener
	runtime    *ContainerRuntime
	version    string
	log        zerolog.Logger

	methods map[string]methodHandler

	shutdown chan os.Signal
	done     chan struct{}
}

type methodHandler func(ctx context.Context, params json.RawMessage) (interface{}, error)

// NewServer binds the unix socket, unlinking any stale socket file left by
// a previous daemon, and restricts it to the owning user.
func NewServer(socketPath string, runtime *ContainerRuntime, version string, log zerolog.Logger) (*Server, error) {
	if err := os.Remove(socketPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("remove stale socket %s: %w", socketPath, err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("bind unix socket %s: %w", socketPath, err)
	}
	if err := os.Chmod(socketPath, 0600); err != nil {
		listener.Close()
		return nil, fmt.Errorf("restrict socket permissions: %w", err)
	}

	s := &Server{
		socketPath: socketPath,
		listener:   listener,
		runtime:    runtime,
		version:    version,
		log:        log,
		shutdown:   make(chan os.Signal, 1),
		done:       make(chan struct{}),
	}
	s.methods = map[string]methodHandler{
		"container.create":  s.containerCreate,
		"container.start":   s.containerStart,
		"container.stop":    s.containerStop,
		"container.remove":  s.containerRemove,
		"container.list":    s.containerList,
		"container.inspect": s.containerInspect,
		"daemon.health":     s.daemonHealth,
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	return s, nil
}

// Run serves until a shutdown signal arrives, then stops accepting, drains
// containers with their grace period, and unlinks the socket.
func (s *Server) Run(ctx context.Context) error {
	s.log.Info().Str("socket", s.socketPath).Msg("daemon listening")

	errChan := make(chan error, 1)
	go func() {
		errChan <- s.serve(ctx)
	}()

	select {
	case sig := <-s.shutdown:
		s.log.Info().Str("signal", sig.String()).Msg("shutdown signal received")
	case <-ctx.Done():
	case err := <-errChan:
		if err != nil {
			s.Close()
			return err
		}
	}

	s.Close()
	s.runtime.Shutdown()
	return nil
}

// serve accepts connections until the listener is closed
func (s *Server) serve(ctx context.Context) error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("accept: %w", err)
		}
		go s.handleConn(ctx, conn)
	}
}

// Close stops accepting and unlinks the socket file. Safe to call more
// than once.
func (s *Server) Close() {
	select {
	case <-s.done:
		return
	default:
		close(s.done)
	}
	s.listener.Close()
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		s.log.Warn().Err(err).Msg("failed to unlink socket")
	}
}

// handleConn runs the one-request one-reply exchange
func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	raw, err := readFrame(conn)
	if err != nil {
		s.writeReply(conn, newError(nil, codeParseError, "parse error"))
		return
	}

	s.writeReply(conn, s.dispatch(ctx, raw))
}

// readFrame reads until the peer closes its write side or the buffer holds
// a complete JSON document
func readFrame(conn net.Conn) ([]byte, error) {
	conn.SetReadDeadline(time.Now().Add(readTimeout))

	var buf bytes.Buffer
	tmp := make([]byte, 4096)
	for {
		n, err := conn.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])
			if buf.Len() > maxRequestBytes {
				return nil, fmt.Errorf("request exceeds %d bytes", maxRequestBytes)
			}
			if json.Valid(bytes.TrimSpace(buf.Bytes())) {
				return buf.Bytes(), nil
			}
		}
		if err != nil {
			if buf.Len() > 0 {
				return buf.Bytes(), nil
			}
			return nil, err
		}
	}
}

// writeReply marshals the response and writes it in chunks, then closes the
// write side so the client's read loop sees EOF. The connection is closed
// by the caller without waiting for the client.
func (s *Server) writeReply(conn net.Conn, reply *response) {
	payload, err := json.Marshal(reply)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to marshal reply")
		payload = []byte(`{"jsonrpc":"2.0","error":{"code":-32603,"message":"internal error"},"id":null}`)
	}

	for len(payload) > 0 {
		chunk := payload
		if len(chunk) > writeChunkSize {
			chunk = chunk[:writeChunkSize]
		}
		n, err := conn.Write(chunk)
		if err != nil {
			s.log.Debug().Err(err).Msg("client went away mid-reply")
			return
		}
		payload = payload[n:]
	}

	if uc, ok := conn.(*net.UnixConn); ok {
		uc.CloseWrite()
	}
}

// dispatch validates the envelope and routes to the method handler
func (s *Server) dispatch(ctx context.Context, raw []byte) *response {
	var req request
	if err := json.Unmarshal(raw, &req); err != nil {
		return newError(nil, codeParseError, "parse error")
	}
	if req.JSONRPC != jsonrpcVersion || req.Method == "" {
		return newError(req.ID, codeInvalidRequest, "invalid request")
	}

	handler, ok := s.methods[req.Method]
	if !ok {
		return newError(req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		s.log.Debug().Str("method", req.Method).Err(err).Msg("request failed")
		return errorReply(req.ID, err)
	}
	return newResult(req.ID, result)
}
