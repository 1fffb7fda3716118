// Package transport carries the newline-delimited JSON protocol over TCP:
// a line-oriented connection wrapper, a per-player outbox, and the acceptor
// that dispatches inbound connections to a session handler.
package transport

import (
	"bufio"
	"bytes"
	"net"
	"sync"
	"time"

	"github.com/openarcade/tugofwar/internal/protocol"
)

// Conn wraps a TCP connection with line-based JSON message framing.
// Reads are single-goroutine; writes are safe for concurrent use.
type Conn struct {
	raw    net.Conn
	reader *bufio.Reader
	mu     sync.Mutex

	readTimeout  time.Duration
	writeTimeout time.Duration
}

// NewConn wraps a raw TCP connection with message framing.
//
// Precondition: raw must be a valid, open network connection.
// Postcondition: Returns a Conn ready for reading and writing.
func NewConn(raw net.Conn, readTimeout, writeTimeout time.Duration) *Conn {
	return &Conn{
		raw:          raw,
		reader:       bufio.NewReaderSize(raw, 4096),
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// ReadLine reads one line of input without the trailing newline. A \r
// before the newline is stripped so clients may terminate lines either way.
// When the Conn has a read timeout, an idle connection surfaces a net.Error
// with Timeout() true.
//
// Postcondition: Returns the next line of input, or an error (including io.EOF).
func (c *Conn) ReadLine() ([]byte, error) {
	if c.readTimeout > 0 {
		_ = c.raw.SetReadDeadline(time.Now().Add(c.readTimeout))
	}

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		return nil, err
	}
	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}

// WriteMessage encodes msg and writes it as one line.
//
// Postcondition: The encoded message plus newline is written to the connection.
func (c *Conn) WriteMessage(msg protocol.Outbound) error {
	data, err := protocol.Encode(msg)
	if err != nil {
		return err
	}
	return c.Write(data)
}

// Write sends raw bytes to the client.
func (c *Conn) Write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.writeTimeout > 0 {
		_ = c.raw.SetWriteDeadline(time.Now().Add(c.writeTimeout))
	}
	_, err := c.raw.Write(data)
	return err
}

// Close closes the underlying TCP connection.
//
// Postcondition: The connection is closed and no longer usable.
func (c *Conn) Close() error {
	return c.raw.Close()
}

// RemoteAddr returns the remote network address of the client.
func (c *Conn) RemoteAddr() net.Addr {
	return c.raw.RemoteAddr()
}

// IsTimeout reports whether err is a network timeout, i.e. an idle read
// deadline rather than a broken connection.
func IsTimeout(err error) bool {
	nerr, ok := err.(net.Error)
	return ok && nerr.Timeout()
}
