// Package server implements the TCP front end: an accept loop handing
// each connection to a worker pool, and a per-connection request loop
// that keeps serving requests off that connection until the client hangs
// up or a transport error ends it.
package server

import (
	"errors"
	"io"
	"net"

	"github.com/jptalukdar/kvs/internal/engine"
	"github.com/jptalukdar/kvs/internal/kvserr"
	"github.com/jptalukdar/kvs/internal/logger"
	"github.com/jptalukdar/kvs/internal/pool"
	"github.com/jptalukdar/kvs/internal/wire"
)

// Server accepts connections and dispatches them onto a pool, each
// connection running against the same engine handle.
type Server struct {
	addr   string
	engine engine.Engine
	pool   pool.Pool
}

// New returns a server that will listen on addr, serving requests
// against eng via p.
func New(addr string, eng engine.Engine, p pool.Pool) *Server {
	return &Server{addr: addr, engine: eng, pool: p}
}

// Serve listens on s.addr and blocks accepting connections until Accept
// returns any error, including the one caused by closing the listener.
func (s *Server) Serve() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return kvserr.Io("listen", err)
	}
	return s.ServeListener(listener)
}

// ServeListener accepts connections off an already-bound listener,
// taking ownership of it. Tests use this to bind an ephemeral port.
func (s *Server) ServeListener(listener net.Listener) error {
	defer listener.Close()

	logger.Info("server: listening on %s (engine %q)", listener.Addr(), s.engine.Name())

	for {
		conn, err := listener.Accept()
		if err != nil {
			return kvserr.Io("accept", err)
		}

		if tc, ok := conn.(*net.TCPConn); ok {
			tc.SetReadBuffer(64 * 1024)
			tc.SetWriteBuffer(64 * 1024)
		}

		s.pool.Spawn(func() {
			s.handleConnection(conn)
		})
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer conn.Close()

	dec := wire.NewDecoder(conn)
	for {
		req, err := dec.DecodeRequest()
		if err != nil {
			if !errors.Is(err, io.EOF) {
				logger.Error("server: decode request from %s: %v", conn.RemoteAddr(), err)
			}
			return
		}

		resp := s.dispatch(req)

		buf, err := wire.EncodeResponse(resp)
		if err != nil {
			logger.Error("server: encode response for %s: %v", conn.RemoteAddr(), err)
			return
		}
		if _, err := conn.Write(buf); err != nil {
			logger.Error("server: write response to %s: %v", conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) dispatch(req wire.Request) wire.Response {
	switch req.Kind {
	case wire.RequestGet:
		value, ok, err := s.engine.Get(req.Key)
		if err != nil {
			return wire.ErrorResponse(err.Error())
		}
		if !ok {
			return wire.EmptyResponse()
		}
		return wire.ValueResponse(value)

	case wire.RequestSet:
		if err := s.engine.Set(req.Key, req.Value); err != nil {
			return wire.ErrorResponse(err.Error())
		}
		return wire.EmptyResponse()

	case wire.RequestRemove:
		if err := s.engine.Remove(req.Key); err != nil {
			return wire.ErrorResponse(err.Error())
		}
		return wire.EmptyResponse()

	default:
		return wire.ErrorResponse("unknown request")
	}
}
