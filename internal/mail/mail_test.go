package mail

import (
	"bufio"
	"bytes"
	"context"
	"log/slog"
	"net"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPasswordResetMessage(t *testing.T) {
	msg := PasswordResetMessage("ada@example.com", "Ada", "https://books.example.com/password-reset/tok", time.Hour)

	assert.Equal(t, "ada@example.com", msg.To)
	assert.Equal(t, "Reset your BookBuddy password", msg.Subject)
	assert.Contains(t, msg.Text, "Hi Ada,")
	assert.Contains(t, msg.Text, "https://books.example.com/password-reset/tok")
	assert.Contains(t, msg.Text, "expires in 1 hour")
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "30 minutes", humanDuration(30*time.Minute))
	assert.Equal(t, "90 minutes", humanDuration(90*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "30s", humanDuration(30*time.Second))
}

func TestLogSender(t *testing.T) {
	var buf bytes.Buffer
	sender := NewLogSender(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, sender.Send(context.Background(), Message{To: "ada@example.com", Subject: "Hello", Text: "link"}))
	assert.Contains(t, buf.String(), `"to":"ada@example.com"`)
	assert.Contains(t, buf.String(), `"body":"link"`)
}

func TestNewSMTPSender_Validates(t *testing.T) {
	_, err := NewSMTPSender(SMTPConfig{From: "a@example.com"})
	assert.Error(t, err)

	_, err = NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "not an address"})
	assert.Error(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, 587, s.cfg.Port)
}

func TestSMTPSender_BuildMessage(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", From: "no-reply@books.example.com", FromName: "BookBuddy"})
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	raw := string(s.buildMessage(Message{To: "ada@example.com", Subject: "Hi", Text: "line one\nline two"}))

	assert.Contains(t, raw, "From: \"BookBuddy\" <no-reply@books.example.com>\r\n")
	assert.Contains(t, raw, "To: ada@example.com\r\n")
	assert.Contains(t, raw, "Date: Fri, 01 Mar 2024 12:00:00 +0000\r\n")
	assert.Regexp(t, `Message-ID: <[0-9a-f-]{36}@books\.example\.com>\r\n`, raw)
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nline one\r\nline two"))
}

// fakeSMTPServer accepts one plain SMTP session and records the DATA payload.
func fakeSMTPServer(t *testing.T) (addr string, received <-chan string) {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { _ = ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		r := bufio.NewReader(conn)
		write := func(s string) { _, _ = conn.Write([]byte(s + "\r\n")) }

		write("220 fake ESMTP")
		var data strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- data.String()
					write("250 queued")
					continue
				}
				data.WriteString(line)
				continue
			}
			cmd := strings.ToUpper(strings.TrimSpace(line))
			switch {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 fake")
			case strings.HasPrefix(cmd, "MAIL FROM"), strings.HasPrefix(cmd, "RCPT TO"):
				write("250 ok")
			case cmd == "DATA":
				inData = true
				write("354 go ahead")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("502 not implemented")
			}
		}
	}()

	return ln.Addr().String(), out
}

func TestSMTPSender_Send(t *testing.T) {
	addr, received := fakeSMTPServer(t)
	host, port, err := net.SplitHostPort(addr)
	require.NoError(t, err)

	portNum, err := strconv.Atoi(port)
	require.NoError(t, err)

	s, err := NewSMTPSender(SMTPConfig{Host: host, Port: portNum, From: "no-reply@books.example.com", Timeout: 5 * time.Second})
	require.NoError(t, err)

	err = s.Send(context.Background(), Message{To: "ada@example.com", Subject: "Reset", Text: "open the link"})
	require.NoError(t, err)

	select {
	case body := <-received:
		assert.Contains(t, body, "Subject: Reset\r\n")
		assert.Contains(t, body, "open the link")
	case <-time.After(5 * time.Second):
		t.Fatal("no message received")
	}
}

func TestSMTPSender_RejectsBadRecipient(t *testing.T) {
	s, err := NewSMTPSender(SMTPConfig{Host: "127.0.0.1", From: "no-reply@books.example.com"})
	require.NoError(t, err)
	assert.Error(t, s.Send(context.Background(), Message{To: "nobody"}))
}
