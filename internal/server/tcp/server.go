package tcp

import (
	"errors"
	"net"
	"sync/atomic"
	"time"

	"github.com/indigo-web/simplehttp/metrics"
	"github.com/rs/zerolog"
)

// ErrShutdown is returned by Start after the server was stopped.
var ErrShutdown = errors.New("server is shutting down")

const (
	minAcceptBackoff = 5 * time.Millisecond
	maxAcceptBackoff = time.Second
)

type onConnection func(net.Conn)

// Server accepts connections one by one and passes each to onConn right in the
// accepting goroutine. The next connection isn't accepted until onConn returns.
type Server struct {
	sock     net.Listener
	onConn   onConnection
	log      zerolog.Logger
	metrics  metrics.ServerMetrics
	shutdown atomic.Bool
	// sleep is replaceable in tests
	sleep func(time.Duration)
}

func NewServer(sock net.Listener, onConn onConnection, log zerolog.Logger, m metrics.ServerMetrics) *Server {
	return &Server{
		sock:    sock,
		onConn:  onConn,
		log:     log,
		metrics: metrics.OrNoop(m),
		sleep:   time.Sleep,
	}
}

// Start runs the accept loop. It returns ErrShutdown once Stop was called; a
// failed Accept otherwise is logged and retried after a short delay.
func (s *Server) Start() error {
	var backoff time.Duration

	for {
		conn, err := s.sock.Accept()
		if err != nil {
			if s.shutdown.Load() {
				return ErrShutdown
			}

			if errors.Is(err, net.ErrClosed) {
				return err
			}

			backoff = nextBackoff(backoff)
			s.metrics.AcceptFailed()
			s.log.Error().Err(err).Dur("retry_in", backoff).Msg("failed to accept connection")
			s.sleep(backoff)
			continue
		}

		backoff = 0
		s.metrics.ConnectionAccepted()
		s.log.Debug().Stringer("remote", conn.RemoteAddr()).Msg("accepted connection")
		s.onConn(conn)
	}
}

// Stop closes the listener. A connection being served at the moment is served
// to the end, after which Start returns.
func (s *Server) Stop() error {
	s.shutdown.Store(true)

	return s.sock.Close()
}

func nextBackoff(current time.Duration) time.Duration {
	if current == 0 {
		return minAcceptBackoff
	}

	return min(current*2, maxAcceptBackoff)
}
