package tcp

import (
	"bufio"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/denyconquer-backend/internal/apperror"
)

func TestLineConn_ReadLine(t *testing.T) {
	t.Run("Splits lines and drops carriage returns", func(t *testing.T) {
		// Given: a peer writing two lines, one with CRLF
		client, server := net.Pipe()
		conn := NewLineConn(server, 0)
		defer conn.Close()

		go func() {
			_, _ = io.WriteString(client, "CONNECT|Alice\r\nLOCK_REQUEST|0|1\n")
			_ = client.Close()
		}()

		// When: both lines are read
		first, err := conn.ReadLine()
		require.NoError(t, err)
		second, err := conn.ReadLine()
		require.NoError(t, err)

		// Then: the terminators are stripped and the end of stream is EOF
		assert.Equal(t, "CONNECT|Alice", first)
		assert.Equal(t, "LOCK_REQUEST|0|1", second)

		_, err = conn.ReadLine()
		require.ErrorIs(t, err, io.EOF)
	})

	t.Run("Rejects lines that are not UTF-8", func(t *testing.T) {
		// Given: a peer writing a line with stray bytes
		client, server := net.Pipe()
		conn := NewLineConn(server, 0)
		defer conn.Close()

		go func() {
			_, _ = io.WriteString(client, "CONNECT|\xff\xfeBob\n")
		}()

		// When: it is read
		line, err := conn.ReadLine()

		// Then: the read fails with a decode error
		require.ErrorIs(t, err, apperror.ErrInvalidEncoding)
		assert.Empty(t, line)
		_ = client.Close()
	})

	t.Run("Rejects oversized lines", func(t *testing.T) {
		client, server := net.Pipe()
		conn := NewLineConn(server, 0)
		defer conn.Close()

		go func() {
			_, _ = io.WriteString(client, strings.Repeat("x", MaxLineSize+10)+"\n")
		}()

		_, err := conn.ReadLine()

		require.ErrorIs(t, err, bufio.ErrTooLong)
		_ = client.Close()
	})
}

func TestLineConn_Send(t *testing.T) {
	t.Run("Appends a newline", func(t *testing.T) {
		client, server := net.Pipe()
		conn := NewLineConn(server, time.Second)
		defer conn.Close()

		received := make(chan string, 1)
		go func() {
			line, _ := bufio.NewReader(client).ReadString('\n')
			received <- line
		}()

		require.NoError(t, conn.Send("LOCK_GRANTED|0|0"))
		assert.Equal(t, "LOCK_GRANTED|0|0\n", <-received)
	})

	t.Run("Times out on a peer that never reads", func(t *testing.T) {
		client, server := net.Pipe()
		defer client.Close()
		conn := NewLineConn(server, 20*time.Millisecond)
		defer conn.Close()

		err := conn.Send("UPDATE_BOARD|[[0]]")

		require.Error(t, err)
		var netErr net.Error
		require.ErrorAs(t, err, &netErr)
		assert.True(t, netErr.Timeout())
	})
}

func TestLineConn_Close(t *testing.T) {
	_, server := net.Pipe()
	conn := NewLineConn(server, 0)

	require.NoError(t, conn.Close())
	require.NoError(t, conn.Close())

	_, err := conn.ReadLine()
	require.Error(t, err)
}
