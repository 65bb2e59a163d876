package tcp

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/indigo-web/simplehttp/internal/server/tcp/dummy"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestTCP(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := NewServer(listener, func(conn net.Conn) {
		_ = conn.Close()
	}, zerolog.Nop(), nil)
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	require.NoError(t, server.Stop())
	require.ErrorIs(t, <-errCh, ErrShutdown)
}

func TestAcceptErrors(t *testing.T) {
	conn := dummy.NewNopConn()
	listener := dummy.NewListener(
		dummy.Accepted{Err: errors.New("too many open files")},
		dummy.Accepted{Err: errors.New("too many open files")},
		dummy.Accepted{Err: errors.New("too many open files")},
		dummy.Accepted{Conn: conn},
		dummy.Accepted{Err: errors.New("software caused connection abort")},
	)

	served := make(chan net.Conn, 1)
	logs := new(bytes.Buffer)
	server := NewServer(listener, func(conn net.Conn) {
		served <- conn
	}, zerolog.New(logs), nil)

	var (
		mu     sync.Mutex
		sleeps []time.Duration
	)
	server.sleep = func(d time.Duration) {
		mu.Lock()
		sleeps = append(sleeps, d)
		mu.Unlock()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	require.Same(t, conn, <-served)
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(sleeps) == 4
	}, time.Second, time.Millisecond)

	require.NoError(t, server.Stop())
	require.ErrorIs(t, <-errCh, ErrShutdown)

	// the backoff is reset after a successful accept
	require.Equal(t, []time.Duration{
		5 * time.Millisecond, 10 * time.Millisecond, 20 * time.Millisecond, 5 * time.Millisecond,
	}, sleeps)
	require.Contains(t, logs.String(), "too many open files")
	require.Contains(t, logs.String(), "software caused connection abort")
}

func TestClosedListener(t *testing.T) {
	listener := dummy.NewListener()
	require.NoError(t, listener.Close())

	server := NewServer(listener, func(net.Conn) {}, zerolog.Nop(), nil)
	require.ErrorIs(t, server.Start(), net.ErrClosed)
}

func TestBackoff(t *testing.T) {
	var (
		backoff time.Duration
		got     []time.Duration
	)

	for i := 0; i < 10; i++ {
		backoff = nextBackoff(backoff)
		got = append(got, backoff)
	}

	require.Equal(t, minAcceptBackoff, got[0])
	require.Equal(t, 80*time.Millisecond, got[4])
	require.Equal(t, maxAcceptBackoff, got[len(got)-1])

	for i := 1; i < len(got); i++ {
		require.GreaterOrEqual(t, got[i], got[i-1])
		require.LessOrEqual(t, got[i], maxAcceptBackoff)
	}
}

func TestSequentialAccept(t *testing.T) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	var (
		mu      sync.Mutex
		order   []string
		release = make(chan struct{})
	)

	server := NewServer(listener, func(conn net.Conn) {
		buff := make([]byte, 16)
		n, _ := conn.Read(buff)

		mu.Lock()
		order = append(order, string(buff[:n]))
		mu.Unlock()

		if string(buff[:n]) == "first" {
			<-release
		}

		_ = conn.Close()
	}, zerolog.Nop(), nil)

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	served := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(order)
	}

	first, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	_, err = first.Write([]byte("first"))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return served() == 1 }, time.Second, time.Millisecond)

	// the handshake completes in the kernel, but the connection must not be
	// served while the first one is in progress
	second, err := net.Dial("tcp", listener.Addr().String())
	require.NoError(t, err)
	_, err = second.Write([]byte("second"))
	require.NoError(t, err)
	require.Never(t, func() bool { return served() > 1 }, 100*time.Millisecond, 5*time.Millisecond)

	close(release)
	require.Eventually(t, func() bool { return served() == 2 }, time.Second, time.Millisecond)
	mu.Lock()
	require.Equal(t, []string{"first", "second"}, order)
	mu.Unlock()

	_ = first.Close()
	_ = second.Close()
	require.NoError(t, server.Stop())
	require.ErrorIs(t, <-errCh, ErrShutdown)
}
