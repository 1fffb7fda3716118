// Package testutil provides helpers for integration tests, primarily a
// line-JSON test client for talking to the game and lobby servers.
package testutil

import (
	"bufio"
	"encoding/json"
	"net"
	"testing"
	"time"
)

// Client is a line-JSON test client for integration testing.
type Client struct {
	conn   net.Conn
	reader *bufio.Reader
	t      *testing.T
}

// NewClient dials the given address and returns a test client.
//
// Precondition: addr must be a valid "host:port" string with a listening server.
// Postcondition: Returns a connected Client or fails the test.
func NewClient(t *testing.T, addr string) *Client {
	t.Helper()
	start := time.Now()

	conn, err := net.DialTimeout("tcp", addr, 5*time.Second)
	if err != nil {
		t.Fatalf("connecting to %s: %v [%s]", addr, err, time.Since(start))
	}

	t.Cleanup(func() {
		conn.Close()
	})

	client := &Client{
		conn:   conn,
		reader: bufio.NewReader(conn),
		t:      t,
	}

	t.Logf("test client connected to %s [%s]", addr, time.Since(start))
	return client
}

// Send marshals msg and writes it as one line.
//
// Postcondition: The JSON encoding of msg plus newline is written.
func (c *Client) Send(msg any) {
	c.t.Helper()
	data, err := json.Marshal(msg)
	if err != nil {
		c.t.Fatalf("encoding %v: %v", msg, err)
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write(append(data, '\n')); err != nil {
		c.t.Fatalf("sending %s: %v", data, err)
	}
}

// SendCommand sends a bare {"command": name} message.
func (c *Client) SendCommand(name string) {
	c.t.Helper()
	c.Send(map[string]string{"command": name})
}

// SendRaw writes the given text followed by a newline, bypassing JSON
// encoding. Useful for malformed-input tests.
func (c *Client) SendRaw(text string) {
	c.t.Helper()
	_ = c.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	if _, err := c.conn.Write([]byte(text + "\n")); err != nil {
		c.t.Fatalf("sending %q: %v", text, err)
	}
}

// ReadMessage reads the next line and decodes it into a generic map.
//
// Postcondition: Returns the decoded message, or fails on timeout or bad JSON.
func (c *Client) ReadMessage(timeout time.Duration) map[string]any {
	c.t.Helper()
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

	line, err := c.reader.ReadBytes('\n')
	if err != nil {
		c.t.Fatalf("reading message: %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(line, &msg); err != nil {
		c.t.Fatalf("decoding %q: %v", line, err)
	}
	return msg
}

// ReadUntilCommand reads messages until one with the given command arrives,
// returning it. Messages of other kinds are discarded.
//
// Postcondition: Returns the first matching message, or fails on timeout.
func (c *Client) ReadUntilCommand(command string, timeout time.Duration) map[string]any {
	c.t.Helper()
	deadline := time.Now().Add(timeout)
	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			c.t.Fatalf("no %s message within %s", command, timeout)
		}
		msg := c.ReadMessage(remaining)
		if msg["command"] == command {
			return msg
		}
	}
}

// Close closes the client connection.
func (c *Client) Close() {
	c.conn.Close()
}
