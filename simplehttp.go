package simplehttp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/indigo-web/simplehttp/config"
	"github.com/indigo-web/simplehttp/handler"
	"github.com/indigo-web/simplehttp/internal/address"
	httpserver "github.com/indigo-web/simplehttp/internal/server/http"
	"github.com/indigo-web/simplehttp/internal/server/tcp"
	"github.com/indigo-web/simplehttp/internal/sockopt"
	"github.com/indigo-web/simplehttp/metrics"
	"github.com/rs/zerolog"
)

// ErrShutdown is returned by Serve after Stop was called.
var ErrShutdown = tcp.ErrShutdown

// App serves a single handler on a single address. Connections are served
// strictly one after another: the next one isn't accepted until the previous is
// responded to and closed.
type App struct {
	addr    string
	cfg     *config.Config
	log     zerolog.Logger
	metrics metrics.ServerMetrics
	hooks   hooks

	mu      sync.Mutex
	sock    net.Listener
	server  *tcp.Server
	stopped bool
}

// New returns a new App instance. Addr is host:port; an empty host listens on
// all interfaces.
func New(addr string) *App {
	return &App{
		addr:    addr,
		cfg:     config.Default(),
		log:     zerolog.Nop(),
		metrics: metrics.NewNoop(),
	}
}

// Tune replaces the default config. Zero-valued fields are filled with defaults,
// the passed config itself stays untouched. Server.Addr is ignored, as the
// address is set by New.
func (a *App) Tune(cfg *config.Config) *App {
	if cfg == nil {
		a.cfg = config.Default()
		return a
	}

	tuned := *cfg
	config.ApplyDefaults(&tuned)
	a.cfg = &tuned

	return a
}

// Logger sets the logger. By default, nothing is logged.
func (a *App) Logger(log zerolog.Logger) *App {
	a.log = log
	return a
}

func (a *App) Metrics(m metrics.ServerMetrics) *App {
	a.metrics = metrics.OrNoop(m)
	return a
}

// NotifyOnStart calls the callback as soon as the listener is bound.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback after the accept loop is finished.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Serve binds the address and serves the handler until Stop is called, in which
// case ErrShutdown is returned. Failing to bind is logged here and returned, so
// callers shouldn't log it once more.
func (a *App) Serve(h handler.Handler) error {
	if h == nil {
		return errors.New("simplehttp: nil handler")
	}

	if a.cfg.NET.MaxRequestSize <= 0 {
		return fmt.Errorf("simplehttp: max request size must be positive, got %d", a.cfg.NET.MaxRequestSize)
	}

	a.log.Info().Str("public", h.PublicPath()).Msg("handler public path")

	sock, err := sockopt.Listen(context.Background(), a.addr, a.cfg.NET.ReuseAddr)
	if err != nil {
		a.log.Error().Err(err).Str("addr", a.addr).Msg("failed to bind")
		return fmt.Errorf("simplehttp: listen %s: %w", a.addr, err)
	}

	dispatcher := httpserver.NewDispatcher(h, a.cfg.NET.MaxRequestSize, a.log, a.metrics)
	server := tcp.NewServer(sock, dispatcher.Serve, a.log, a.metrics)

	a.mu.Lock()
	if a.stopped {
		a.mu.Unlock()
		_ = sock.Close()
		return ErrShutdown
	}
	a.sock, a.server = sock, server
	a.mu.Unlock()

	a.log.Info().
		Str("addr", address.Normalize(a.addr)).
		Stringer("bound", sock.Addr()).
		Int("max_request_size", a.cfg.NET.MaxRequestSize).
		Msg("listening")

	callIfNotNil(a.hooks.OnStart)
	err = server.Start()
	callIfNotNil(a.hooks.OnStop)

	return err
}

// Addr returns the address the listener is bound to, or nil if the app isn't
// serving yet.
func (a *App) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.sock == nil {
		return nil
	}

	return a.sock.Addr()
}

// Stop closes the listener. The connection being served at the moment is
// finished first, so the call doesn't wait for Serve to return. Repeated calls
// do nothing.
func (a *App) Stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return nil
	}

	a.stopped = true
	if a.server == nil {
		return nil
	}

	a.log.Info().Msg("stopping")

	return a.server.Stop()
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
