package dummy

import (
	"net"
	"sync"
)

// Accepted is a single result of Listener.Accept.
type Accepted struct {
	Conn net.Conn
	Err  error
}

// Listener hands out the scripted results in order. When they're exhausted,
// Accept blocks until the listener is closed and then returns net.ErrClosed.
type Listener struct {
	results chan Accepted
	done    chan struct{}
	once    sync.Once
}

func NewListener(results ...Accepted) *Listener {
	ch := make(chan Accepted, len(results))
	for _, result := range results {
		ch <- result
	}

	return &Listener{
		results: ch,
		done:    make(chan struct{}),
	}
}

func (l *Listener) Accept() (net.Conn, error) {
	select {
	case <-l.done:
		return nil, net.ErrClosed
	default:
	}

	select {
	case result := <-l.results:
		return result.Conn, result.Err
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *Listener) Close() error {
	l.once.Do(func() {
		close(l.done)
	})

	return nil
}

func (*Listener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}
