package email

import (
	"context"
	"errors"
	"strings"
	"testing"

	"net/smtp"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clindevdep/RSS/internal/domain"
)

func testDoc() domain.Document {
	return domain.Document{
		Subject: "Daily Digest - 2 articles (2026-08-30 09:00)",
		HTML:    "<html><body><h1>Daily Digest</h1></body></html>",
		Text:    "Daily Digest\n1. First story\n",
	}
}

func TestSendDeliversMultipartMessage(t *testing.T) {
	t.Parallel()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte

	sender := NewSender("smtp.example.org", 587, "digest@example.org", "secret", "", "reader@example.org")
	sender.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	require.NoError(t, sender.Send(context.Background(), testDoc()))
	assert.Equal(t, "smtp.example.org:587", gotAddr)
	assert.Equal(t, "digest@example.org", gotFrom, "from falls back to the username")
	assert.Equal(t, []string{"reader@example.org"}, gotTo)

	msg := string(gotMsg)
	assert.Contains(t, msg, "Subject: Daily Digest - 2 articles (2026-08-30 09:00)\r\n")
	assert.Contains(t, msg, "multipart/alternative")
	assert.Contains(t, msg, "Content-Type: text/plain; charset=utf-8")
	assert.Contains(t, msg, "Content-Type: text/html; charset=utf-8")
	assert.Contains(t, msg, "1. First story")
	assert.Contains(t, msg, "<h1>Daily Digest</h1>")
	assert.True(t, strings.HasSuffix(msg, "--\r\n"), "message must close its MIME boundary")
}

func TestSendPropagatesTransportError(t *testing.T) {
	t.Parallel()

	sender := NewSender("smtp.example.org", 587, "digest@example.org", "secret", "", "reader@example.org")
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	err := sender.Send(context.Background(), testDoc())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSendRejectsMisconfiguration(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		sender *Sender
	}{
		{"no host", NewSender("", 587, "u@example.org", "p", "u@example.org", "r@example.org")},
		{"no recipient", NewSender("smtp.example.org", 587, "u@example.org", "p", "u@example.org", "")},
		{"no from", NewSender("smtp.example.org", 587, "", "p", "", "r@example.org")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			tc.sender.send = func(string, smtp.Auth, string, []string, []byte) error {
				called = true
				return nil
			}
			require.Error(t, tc.sender.Send(context.Background(), testDoc()))
			assert.False(t, called)
		})
	}
}

func TestSendHonorsCancelledContext(t *testing.T) {
	t.Parallel()

	sender := NewSender("smtp.example.org", 587, "u@example.org", "p", "", "r@example.org")
	called := false
	sender.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.Error(t, sender.Send(ctx, testDoc()))
	assert.False(t, called)
}
