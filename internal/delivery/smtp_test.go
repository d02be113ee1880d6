package delivery

import (
	"bytes"
	"context"
	"net"
	"net/textproto"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/outreach-cli/internal/config"
	"github.com/sells-group/outreach-cli/internal/resilience"
)

type fakeSMTP struct {
	ln       net.Listener
	rcptCode int
	received chan string
}

// startFakeSMTP accepts one session and records the DATA payload.
func startFakeSMTP(t *testing.T, rcptCode int) *fakeSMTP {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() }) //nolint:errcheck

	f := &fakeSMTP{ln: ln, rcptCode: rcptCode, received: make(chan string, 1)}
	go f.serve()
	return f
}

func (f *fakeSMTP) serve() {
	conn, err := f.ln.Accept()
	if err != nil {
		return
	}
	defer conn.Close() //nolint:errcheck

	tp := textproto.NewConn(conn)
	reply := func(code int, msg string) { _ = tp.PrintfLine("%d %s", code, msg) }
	reply(220, "fake ready")
	for {
		line, err := tp.ReadLine()
		if err != nil {
			return
		}
		cmd := strings.ToUpper(strings.Fields(line + " ")[0])
		switch cmd {
		case "EHLO", "HELO":
			reply(250, "fake")
		case "NOOP", "RSET":
			reply(250, "ok")
		case "MAIL":
			reply(250, "ok")
		case "RCPT":
			if f.rcptCode != 250 {
				reply(f.rcptCode, "mailbox unavailable")
				continue
			}
			reply(250, "ok")
		case "DATA":
			reply(354, "go ahead")
			lines, err := tp.ReadDotLines()
			if err != nil {
				return
			}
			f.received <- strings.Join(lines, "\n")
			reply(250, "queued")
		case "QUIT":
			reply(221, "bye")
			return
		default:
			reply(500, "unknown")
		}
	}
}

func (f *fakeSMTP) config() config.SMTPConfig {
	addr := f.ln.Addr().(*net.TCPAddr)
	return config.SMTPConfig{Host: "127.0.0.1", Port: addr.Port, From: "me@agentic-ai.com"}
}

func newTransport(t *testing.T, cfg config.SMTPConfig) *SMTPTransport {
	t.Helper()
	tr, err := NewSMTPTransport(cfg)
	require.NoError(t, err)
	return tr
}

func TestSMTPTransport_Send(t *testing.T) {
	srv := startFakeSMTP(t, 250)
	tr := newTransport(t, srv.config())

	err := tr.Send(context.Background(), "jane@acme.test", "Growth at Acme", "Hi Jane,\n\nBest,\nAshwin")
	require.NoError(t, err)

	select {
	case msg := <-srv.received:
		assert.Contains(t, msg, "<me@agentic-ai.com>")
		assert.Contains(t, msg, "<jane@acme.test>")
		assert.Contains(t, msg, "Subject: Growth at Acme")
		assert.Contains(t, strings.ToLower(msg), "text/plain")
		assert.Contains(t, msg, "Hi Jane,\n\nBest,\nAshwin")
	case <-time.After(5 * time.Second):
		t.Fatal("message not received")
	}
}

func TestSMTPTransport_RejectedRecipientIsPermanent(t *testing.T) {
	srv := startFakeSMTP(t, 550)
	err := newTransport(t, srv.config()).Send(context.Background(), "nobody@acme.test", "s", "b")
	require.Error(t, err)
	assert.Equal(t, resilience.ErrorTypePermanent, resilience.ClassifyError(err))
}

func TestSMTPTransport_BusyRecipientIsTransient(t *testing.T) {
	srv := startFakeSMTP(t, 451)
	err := newTransport(t, srv.config()).Send(context.Background(), "jane@acme.test", "s", "b")
	require.Error(t, err)
	var te *resilience.TransientError
	assert.ErrorAs(t, err, &te)
	assert.Equal(t, resilience.ErrorTypeTransient, resilience.ClassifyError(err))
}

func TestSMTPTransport_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := ln.Addr().(*net.TCPAddr).Port
	require.NoError(t, ln.Close())

	tr := newTransport(t, config.SMTPConfig{Host: "127.0.0.1", Port: port, From: "me@agentic-ai.com"})
	err = tr.Send(context.Background(), "jane@acme.test", "s", "b")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "delivery: send to jane@acme.test via 127.0.0.1:"+strconv.Itoa(port))
	assert.True(t, resilience.IsTransient(err))
}

func TestSMTPTransport_EmptyRecipient(t *testing.T) {
	tr := newTransport(t, config.SMTPConfig{Host: "127.0.0.1", Port: 1})
	err := tr.Send(context.Background(), " ", "s", "b")
	assert.ErrorContains(t, err, "recipient address is empty")
}

func TestSMTPTransport_InvalidRecipient(t *testing.T) {
	tr := newTransport(t, config.SMTPConfig{Host: "127.0.0.1", Port: 1, From: "me@agentic-ai.com"})
	err := tr.Send(context.Background(), "not an address", "s", "b")
	assert.ErrorContains(t, err, "delivery: invalid recipient")
}

func TestNewSMTPTransport_RequiresHost(t *testing.T) {
	_, err := NewSMTPTransport(config.SMTPConfig{Port: 1025})
	assert.ErrorContains(t, err, "delivery: new smtp client")
}

func TestNewMessage(t *testing.T) {
	now := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	msg, err := newMessage("me@agentic-ai.com", "jane@acme.test", "Café at Acme", "line1\nline2", now)
	require.NoError(t, err)

	var buf bytes.Buffer
	_, err = msg.WriteTo(&buf)
	require.NoError(t, err)
	out := buf.String()

	assert.Contains(t, strings.ToLower(out), "subject: =?utf-8?q?caf=c3=a9")
	assert.NotContains(t, out, "Subject: Café")
	assert.Contains(t, out, "Date: Mon, 02 Mar 2026 10:00:00 +0000")
	assert.Contains(t, out, "line1\r\nline2")
}
