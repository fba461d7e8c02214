package tcp

import (
	"bufio"
	"fmt"
	"io"
	"net"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
)

// MaxLineSize bounds a single client line.
const MaxLineSize = 4096

// LineConn frames a stream connection as newline-terminated text lines.
type LineConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration

	writeMu   sync.Mutex
	closeOnce sync.Once
	closeErr  error
}

func NewLineConn(conn net.Conn, writeTimeout time.Duration) *LineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 512), MaxLineSize)

	return &LineConn{
		conn:         conn,
		scanner:      scanner,
		writeTimeout: writeTimeout,
	}
}

// ReadLine - returns the next line without its terminator. A trailing
// carriage return is dropped as well. A line that is not valid UTF-8 is a
// read failure, the same as a broken stream.
func (that *LineConn) ReadLine() (string, error) {
	if !that.scanner.Scan() {
		if err := that.scanner.Err(); err != nil {
			return "", fmt.Errorf("failed to read line: %w", err)
		}

		return "", io.EOF
	}

	line := strings.TrimSuffix(that.scanner.Text(), "\r")
	if !utf8.ValidString(line) {
		return "", fmt.Errorf("failed to decode line: %w", apperror.ErrInvalidEncoding)
	}

	return line, nil
}

// Send - writes one line. A slow peer fails the write once the write timeout passes.
func (that *LineConn) Send(line string) error {
	that.writeMu.Lock()
	defer that.writeMu.Unlock()

	if that.writeTimeout > 0 {
		if err := that.conn.SetWriteDeadline(time.Now().Add(that.writeTimeout)); err != nil {
			return fmt.Errorf("failed to set write deadline: %w", err)
		}
	}

	if _, err := io.WriteString(that.conn, line+"\n"); err != nil {
		return fmt.Errorf("failed to write line: %w", err)
	}

	return nil
}

func (that *LineConn) Close() error {
	that.closeOnce.Do(func() {
		that.closeErr = that.conn.Close()
	})

	return that.closeErr
}

func (that *LineConn) RemoteAddr() string {
	return that.conn.RemoteAddr().String()
}
