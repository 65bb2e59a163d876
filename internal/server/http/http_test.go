package http

import (
	"bytes"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/indigo-web/simplehttp/handler"
	"github.com/indigo-web/simplehttp/http"
	"github.com/indigo-web/simplehttp/http/method"
	"github.com/indigo-web/simplehttp/http/status"
	"github.com/indigo-web/simplehttp/internal/httptest"
	"github.com/indigo-web/simplehttp/internal/server/tcp/dummy"
	"github.com/indigo-web/simplehttp/metrics"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

const maxRequestSize = 1024

type recorder struct {
	mu       sync.Mutex
	outcomes []string
	in, out  int
}

func (*recorder) ConnectionAccepted() {}
func (*recorder) AcceptFailed()       {}

func (r *recorder) RequestServed(outcome string, _ time.Duration) {
	r.mu.Lock()
	r.outcomes = append(r.outcomes, outcome)
	r.mu.Unlock()
}

func (r *recorder) BytesTransferred(direction string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if direction == metrics.DirectionIn {
		r.in += n
	} else {
		r.out += n
	}
}

type overriding struct {
	handler.Handler
	response *http.Response
	got      []http.ParseError
}

func (o *overriding) HandleBadRequest(err http.ParseError) *http.Response {
	o.got = append(o.got, err)
	return o.response
}

func newDispatcher(t *testing.T, h handler.Handler, limit int) (*Dispatcher, *recorder, *bytes.Buffer) {
	t.Helper()
	rec := new(recorder)
	logs := new(bytes.Buffer)

	return NewDispatcher(h, limit, zerolog.New(logs).Level(zerolog.DebugLevel), rec), rec, logs
}

func serve(t *testing.T, d *Dispatcher, raw string) (*dummy.Conn, httptest.Response) {
	t.Helper()
	conn := dummy.NewConn([]byte(raw))
	d.Serve(conn)
	require.True(t, conn.Closed)
	require.Equal(t, 1, conn.Reads)

	response, err := httptest.ParseResponse(conn.Written.String())
	require.NoError(t, err)

	return conn, response
}

func echoPath() (handler.Handler, *[]*http.Request) {
	var requests []*http.Request
	h := handler.Func("public", func(request *http.Request) *http.Response {
		requests = append(requests, request)
		return http.NewResponse().String(request.Path)
	})

	return h, &requests
}

func TestDispatcher(t *testing.T) {
	t.Run("GET index", func(t *testing.T) {
		h, requests := echoPath()
		d, rec, _ := newDispatcher(t, h, maxRequestSize)
		_, response := serve(t, d, "GET /index.html HTTP/1.1\r\nHost: localhost\r\n\r\n")

		require.Len(t, *requests, 1)
		request := (*requests)[0]
		require.Equal(t, method.GET, request.Method)
		require.Equal(t, "/index.html", request.Path)
		require.Equal(t, "HTTP/1.1", request.Proto)
		require.Equal(t, map[string]string{"Host": "localhost"}, request.Headers)

		require.Equal(t, 200, response.Code)
		require.Equal(t, "OK", response.Status)
		require.Equal(t, "/index.html", response.Body)
		require.Equal(t, []string{metrics.OutcomeOK}, rec.outcomes)
	})

	t.Run("unknown method gets the default bad request", func(t *testing.T) {
		h, requests := echoPath()
		d, rec, logs := newDispatcher(t, h, maxRequestSize)
		_, response := serve(t, d, "FOO /x BAR\r\n\r\n")

		require.Empty(t, *requests)
		require.Equal(t, 400, response.Code)
		require.Equal(t, "Bad Request", response.Status)
		require.Equal(t, http.NewParseError(http.InvalidMethod, "FOO").Error(), response.Body)
		require.Equal(t, []string{metrics.OutcomeBadRequest}, rec.outcomes)
		require.Contains(t, logs.String(), `"level":"warn"`)
	})

	t.Run("every malformed request gets a response", func(t *testing.T) {
		for _, raw := range []string{
			"GET /\r\n\r\n",
			"GET / HTTP/1.1\r\nBroken\r\n\r\n",
			"POST / HTTP/1.1\r\nContent-Length: x\r\n\r\n",
			"POST / HTTP/1.1\r\nContent-Length: 100\r\n\r\nshort",
			"GET / HTTP/1.1\r\n",
			"\x00\x01\x02",
		} {
			h, requests := echoPath()
			d, _, _ := newDispatcher(t, h, maxRequestSize)
			_, response := serve(t, d, raw)
			require.Empty(t, *requests, raw)
			require.Equal(t, 400, response.Code, raw)
			require.NotEmpty(t, response.Body, raw)
		}
	})

	t.Run("bad request override", func(t *testing.T) {
		h, requests := echoPath()
		o := &overriding{
			Handler:  h,
			response: http.NewResponse().Code(status.Teapot).String("nope"),
		}
		d, _, _ := newDispatcher(t, o, maxRequestSize)
		_, response := serve(t, d, "GET / HTTX/1.1\r\n\r\n")

		require.Empty(t, *requests)
		require.Len(t, o.got, 1)
		require.Equal(t, http.InvalidProtocol, o.got[0].Kind)
		require.Equal(t, 418, response.Code)
		require.Equal(t, "nope", response.Body)
	})

	t.Run("nil responses", func(t *testing.T) {
		h := handler.Func("", func(*http.Request) *http.Response {
			return nil
		})
		d, _, _ := newDispatcher(t, h, maxRequestSize)
		_, response := serve(t, d, "GET / HTTP/1.1\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Empty(t, response.Body)

		d, _, _ = newDispatcher(t, &overriding{Handler: h}, maxRequestSize)
		_, response = serve(t, d, "GET /\r\n\r\n")
		require.Equal(t, 200, response.Code)
		require.Empty(t, response.Body)
	})

	t.Run("too large", func(t *testing.T) {
		const limit = 32
		h, requests := echoPath()
		d, _, _ := newDispatcher(t, h, limit)

		_, response := serve(t, d, "GET /"+strings.Repeat("a", limit)+" HTTP/1.1\r\n\r\n")
		require.Empty(t, *requests)
		require.Equal(t, 400, response.Code)
		require.Equal(t, http.NewParseError(http.RequestTooLarge, "").Error(), response.Body)

		exact := "GET /" + strings.Repeat("a", limit-len("GET / HTTP/1.1\r\n\r\n")) + " HTTP/1.1\r\n\r\n"
		require.Len(t, exact, limit)
		_, response = serve(t, d, exact)
		require.Equal(t, 200, response.Code)
		require.Len(t, *requests, 1)
	})

	t.Run("buffer is reused between connections", func(t *testing.T) {
		h, requests := echoPath()
		d, _, _ := newDispatcher(t, h, maxRequestSize)

		_, first := serve(t, d, "POST /first HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello")
		_, second := serve(t, d, "GET /2 HTTP/1.1\r\n\r\n")
		require.Equal(t, "/first", first.Body)
		require.Equal(t, "/2", second.Body)
		require.Len(t, *requests, 2)
		require.Equal(t, "hello", string((*requests)[0].Body))
		require.Nil(t, (*requests)[1].Body)
	})
}

func TestDispatcherConnectionFailures(t *testing.T) {
	t.Run("nothing sent", func(t *testing.T) {
		h, requests := echoPath()
		d, rec, logs := newDispatcher(t, h, maxRequestSize)
		conn := dummy.NewNopConn()
		d.Serve(conn)

		require.True(t, conn.Closed)
		require.Zero(t, conn.Written.Len())
		require.Empty(t, *requests)
		require.Equal(t, []string{metrics.OutcomeEmpty}, rec.outcomes)
		require.Contains(t, logs.String(), `"level":"debug"`)
	})

	t.Run("read error", func(t *testing.T) {
		h, requests := echoPath()
		d, rec, logs := newDispatcher(t, h, maxRequestSize)
		conn := dummy.NewConn([]byte("GET / HTTP/1.1\r\n\r\n")).WithReadErr(errors.New("connection reset"))
		d.Serve(conn)

		require.True(t, conn.Closed)
		require.Zero(t, conn.Written.Len())
		require.Empty(t, *requests)
		require.Equal(t, []string{metrics.OutcomeReadError}, rec.outcomes)
		require.Contains(t, logs.String(), "connection reset")
		require.Contains(t, logs.String(), `"level":"error"`)
	})

	t.Run("write error", func(t *testing.T) {
		h, requests := echoPath()
		d, rec, logs := newDispatcher(t, h, maxRequestSize)
		conn := dummy.NewConn([]byte("GET / HTTP/1.1\r\n\r\n")).WithWriteErr(errors.New("broken pipe"))
		d.Serve(conn)

		require.True(t, conn.Closed)
		require.Len(t, *requests, 1)
		require.Equal(t, []string{metrics.OutcomeWriteError}, rec.outcomes)
		require.Contains(t, logs.String(), "broken pipe")
	})
}

func TestDispatcherLogs(t *testing.T) {
	h, _ := echoPath()
	d, rec, logs := newDispatcher(t, h, maxRequestSize)
	raw := "GET /logged HTTP/1.1\r\n\r\n"
	_, response := serve(t, d, raw)

	require.Equal(t, 200, response.Code)
	require.Equal(t, len(raw), rec.in)
	require.Greater(t, rec.out, len("HTTP/1.1 200 OK\r\n"))

	out := logs.String()
	require.Contains(t, out, `"conn":"`)
	require.Contains(t, out, `"remote":"127.0.0.1:50000"`)
	require.Contains(t, out, "received request")
	require.Contains(t, out, "/logged")
	require.Contains(t, out, "sent response")
	require.NotContains(t, out, `"level":"warn"`)
}

func TestDispatcherUnregisteredCode(t *testing.T) {
	h := handler.Func("", func(*http.Request) *http.Response {
		return http.NewResponse().Code(599).String("custom")
	})
	d, rec, logs := newDispatcher(t, h, maxRequestSize)
	_, response := serve(t, d, "GET / HTTP/1.1\r\n\r\n")

	require.Equal(t, 599, response.Code)
	require.Empty(t, response.Status)
	require.Equal(t, "custom", response.Body)
	require.Equal(t, []string{metrics.OutcomeOK}, rec.outcomes)
	require.Contains(t, logs.String(), `"level":"warn"`)
	require.Contains(t, logs.String(), `"code":599`)
}

func TestStates(t *testing.T) {
	require.Equal(t, "errorDispatching", errorDispatching.String())
	require.Equal(t, "unknown", state(200).String())
}

func BenchmarkDispatcher(b *testing.B) {
	raw := []byte("GET / HTTP/1.1\r\nHost: localhost\r\n\r\n")
	h := handler.Func("", func(request *http.Request) *http.Response {
		return http.NewResponse().String("Hello, world!")
	})
	d := NewDispatcher(h, maxRequestSize, zerolog.Nop(), nil)
	b.SetBytes(int64(len(raw)))
	b.ReportAllocs()
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		d.Serve(dummy.NewConn(raw))
	}
}
