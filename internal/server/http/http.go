package http

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/simplehttp/handler"
	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/status"
	"github.com/indigo-web/simplehttp/internal/transport"
	"github.com/indigo-web/simplehttp/internal/transport/http1"
	"github.com/indigo-web/simplehttp/metrics"
	"github.com/rs/zerolog"
)

const connIDLength = 8

// Dispatcher serves exactly one request per connection. It isn't safe for
// concurrent use: the read buffer is shared between all the connections it
// serves.
type Dispatcher struct {
	handler    handler.Handler
	parser     transport.Parser
	serializer transport.Serializer
	buff       []byte
	log        zerolog.Logger
	metrics    metrics.ServerMetrics
}

func NewDispatcher(
	h handler.Handler, maxRequestSize int, log zerolog.Logger, m metrics.ServerMetrics,
) *Dispatcher {
	return &Dispatcher{
		handler:    h,
		parser:     http1.NewParser(maxRequestSize),
		serializer: http1.NewSerializer(make([]byte, 0, maxRequestSize)),
		// one byte more than allowed, so an oversized request is distinguishable
		// from one filling the limit exactly
		buff:    make([]byte, maxRequestSize+1),
		log:     log,
		metrics: metrics.OrNoop(m),
	}
}

// session is everything collected about a connection while it's being served.
type session struct {
	conn     net.Conn
	log      zerolog.Logger
	start    time.Time
	data     []byte
	request  *http.Request
	parseErr http.ParseError
	response *http.Response
	outcome  string
}

// Serve reads a single request, responds to it and closes the connection. It
// never returns before the connection is closed.
func (d *Dispatcher) Serve(conn net.Conn) {
	sess := &session{
		conn: conn,
		log: d.log.With().
			Str("conn", uniuri.NewLen(connIDLength)).
			Stringer("remote", remote(conn)).
			Logger(),
		start: time.Now(),
	}

	for st := reading; st != closed; {
		switch st {
		case reading:
			st = d.read(sess)
		case decoding:
			st = d.decode(sess)
		case dispatching:
			st = d.dispatch(sess)
		case errorDispatching:
			st = d.dispatchError(sess)
		case responding:
			st = d.respond(sess)
		default:
			panic("BUG: unexpected dispatcher state: " + st.String())
		}
	}

	d.close(sess)
}

func (d *Dispatcher) read(sess *session) state {
	n, err := sess.conn.Read(d.buff)
	d.metrics.BytesTransferred(metrics.DirectionIn, n)

	if err != nil && !errors.Is(err, io.EOF) {
		sess.log.Error().Err(err).Msg("failed to read request")
		sess.outcome = metrics.OutcomeReadError
		return closed
	}

	if n == 0 {
		sess.log.Debug().Msg("connection closed before sending anything")
		sess.outcome = metrics.OutcomeEmpty
		return closed
	}

	sess.data = d.buff[:n]
	sess.log.Info().
		Int("size", n).
		Bytes("request", sess.data).
		Msg("received request")

	return decoding
}

func (d *Dispatcher) decode(sess *session) state {
	request, err := d.parser.Parse(sess.data)
	if err != nil {
		if !errors.As(err, &sess.parseErr) {
			// parsers never return anything else
			sess.parseErr = http.NewParseError(http.InvalidRequest, "")
		}

		sess.log.Warn().Err(err).Msg("bad request")

		return errorDispatching
	}

	sess.request = request

	return dispatching
}

func (d *Dispatcher) dispatch(sess *session) state {
	sess.log.Debug().
		Stringer("method", sess.request.Method).
		Str("path", sess.request.Path).
		Msg("dispatching request")

	sess.response = notNil(d.handler.HandleRequest(sess.request))
	sess.outcome = metrics.OutcomeOK

	return responding
}

func (d *Dispatcher) dispatchError(sess *session) state {
	var response *http.Response

	if h, ok := d.handler.(handler.BadRequestHandler); ok {
		response = h.HandleBadRequest(sess.parseErr)
	} else {
		response = handler.BadRequest(sess.parseErr)
	}

	sess.response = notNil(response)
	sess.outcome = metrics.OutcomeBadRequest

	return responding
}

func (d *Dispatcher) respond(sess *session) state {
	code := sess.response.Reveal().Code
	if !status.Known(code) {
		sess.log.Warn().Uint16("code", uint16(code)).Msg("response status code has no reason phrase")
	}

	data := d.serializer.Serialize(sess.response)

	n, err := sess.conn.Write(data)
	d.metrics.BytesTransferred(metrics.DirectionOut, n)
	if err != nil {
		sess.log.Error().Err(err).Uint16("code", uint16(code)).Msg("failed to write response")
		sess.outcome = metrics.OutcomeWriteError
		return closed
	}

	sess.log.Info().
		Uint16("code", uint16(code)).
		Int("size", n).
		Msg("sent response")

	return closed
}

func (d *Dispatcher) close(sess *session) {
	if err := sess.conn.Close(); err != nil {
		sess.log.Debug().Err(err).Msg("failed to close connection")
	}

	d.metrics.RequestServed(sess.outcome, time.Since(sess.start))
}

func notNil(response *http.Response) *http.Response {
	if response != nil {
		return response
	}

	return http.NewResponse()
}

func remote(conn net.Conn) net.Addr {
	if addr := conn.RemoteAddr(); addr != nil {
		return addr
	}

	return unknownAddr{}
}

type unknownAddr struct{}

func (unknownAddr) Network() string { return "unknown" }
func (unknownAddr) String() string  { return "unknown" }
