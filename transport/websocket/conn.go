package websocket

import (
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
)

const (
	readLimit    = 4096
	closeTimeout = time.Second
)

// Conn carries the line protocol over websocket text messages. Each server
// line is one message; a client message may hold several lines.
type Conn struct {
	ws           *websocket.Conn
	writeTimeout time.Duration

	pending []string

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewConn(ws *websocket.Conn, writeTimeout time.Duration) *Conn {
	ws.SetReadLimit(readLimit)

	return &Conn{
		ws:           ws,
		writeTimeout: writeTimeout,
	}
}

func (that *Conn) ReadLine() (string, error) {
	for len(that.pending) == 0 {
		messageType, payload, err := that.ws.ReadMessage()
		if err != nil {
			return "", fmt.Errorf("failed to read message: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		if !utf8.Valid(payload) {
			return "", fmt.Errorf("failed to decode message: %w", apperror.ErrInvalidEncoding)
		}

		text := strings.ReplaceAll(string(payload), "\r\n", "\n")
		that.pending = strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	}

	line := that.pending[0]
	that.pending = that.pending[1:]

	return line, nil
}

func (that *Conn) Send(line string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if that.writeTimeout > 0 {
		if err := that.ws.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if err := that.ws.WriteMessage(websocket.TextMessage, []byte(line)); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

// Close - sends a close frame when possible, then drops the connection.
func (that *Conn) Close() error {
	that.closeOnce.Do(func() {
		msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
		_ = that.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(closeTimeout))

		that.closeErr = that.ws.Close()
	})

	return that.closeErr
}

func (that *Conn) RemoteAddr() string {
	return that.ws.RemoteAddr().String()
}
