package main

import (
	"bufio"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/gorilla/websocket"
)

// maxFrame bounds a single request. Lines are short; this only stops a
// misbehaving client from growing the buffer without limit.
const maxFrame = 64 * 1024

// frameConn carries one JSON document per frame.
type frameConn interface {
	ReadFrame() ([]byte, error)
	WriteFrame(data []byte) error
	Close() error
}

// lineConn frames JSON documents as newline-terminated lines.
type lineConn struct {
	conn    net.Conn
	scanner *bufio.Scanner
}

func newLineConn(conn net.Conn) *lineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 4096), maxFrame)
	return &lineConn{conn: conn, scanner: scanner}
}

func (c *lineConn) ReadFrame() ([]byte, error) {
	if !c.scanner.Scan() {
		if err := c.scanner.Err(); err != nil {
			return nil, err
		}
		return nil, io.EOF
	}
	return c.scanner.Bytes(), nil
}

func (c *lineConn) WriteFrame(data []byte) error {
	_, err := c.conn.Write(append(data, '\n'))
	return err
}

func (c *lineConn) Close() error { return c.conn.Close() }

// wsConn frames JSON documents as WebSocket text messages.
type wsConn struct {
	conn *websocket.Conn
}

func (c *wsConn) ReadFrame() ([]byte, error) {
	_, data, err := c.conn.ReadMessage()
	if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		return nil, io.EOF
	}
	return data, err
}

func (c *wsConn) WriteFrame(data []byte) error {
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *wsConn) Close() error { return c.conn.Close() }

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
}

// ServeHTTP upgrades the request to a WebSocket and runs a session on it
// with the same protocol as the Unix socket.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}
	conn.SetReadLimit(maxFrame)
	slog.Debug("websocket connected", "remote", r.RemoteAddr)
	s.handleConn(&wsConn{conn: conn})
}
