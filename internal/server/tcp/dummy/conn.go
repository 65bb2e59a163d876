// Package dummy provides in-memory connections and listeners for tests.
package dummy

import (
	"bytes"
	"io"
	"net"
	"time"
)

// Conn is a net.Conn which returns its data on the first read and io.EOF after.
// Everything written into it is collected.
type Conn struct {
	data    []byte
	read    bool
	readErr error

	Written  bytes.Buffer
	WriteErr error

	Closed bool
	Reads  int
}

func NewConn(data []byte) *Conn {
	return &Conn{data: data}
}

// NewNopConn returns a connection which has nothing to read.
func NewNopConn() *Conn {
	return NewConn(nil)
}

// WithReadErr makes every read fail with err.
func (c *Conn) WithReadErr(err error) *Conn {
	c.readErr = err
	return c
}

// WithWriteErr makes every write fail with err.
func (c *Conn) WithWriteErr(err error) *Conn {
	c.WriteErr = err
	return c
}

func (c *Conn) Read(b []byte) (n int, err error) {
	c.Reads++

	if c.readErr != nil {
		return 0, c.readErr
	}

	if c.read || len(c.data) == 0 {
		return 0, io.EOF
	}

	c.read = true

	return copy(b, c.data), nil
}

func (c *Conn) Write(b []byte) (n int, err error) {
	if c.WriteErr != nil {
		return 0, c.WriteErr
	}

	return c.Written.Write(b)
}

func (c *Conn) Close() error {
	c.Closed = true
	return nil
}

func (*Conn) LocalAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 8080}
}

func (*Conn) RemoteAddr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 50000}
}

func (*Conn) SetDeadline(time.Time) error {
	return nil
}

func (*Conn) SetReadDeadline(time.Time) error {
	return nil
}

func (*Conn) SetWriteDeadline(time.Time) error {
	return nil
}
