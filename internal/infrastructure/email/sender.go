// Package email delivers rendered digests over SMTP.
package email

import (
	"context"
	"fmt"
	"mime/quotedprintable"
	"net/smtp"
	"strings"
	"time"

	"github.com/clindevdep/RSS/internal/domain"
	"github.com/clindevdep/RSS/internal/ports"
)

// Sender delivers a digest as a multipart/alternative message with both
// plain-text and HTML bodies.
type Sender struct {
	host      string
	port      int
	username  string
	password  string
	from      string
	recipient string

	// send is swappable for tests; defaults to smtp.SendMail.
	send func(addr string, auth smtp.Auth, from string, to []string, msg []byte) error
}

var _ ports.Sender = (*Sender)(nil)

// NewSender registers SMTP credentials and the digest recipient.
func NewSender(host string, port int, username, password, from, recipient string) *Sender {
	if from == "" {
		from = username
	}
	return &Sender{
		host:      host,
		port:      port,
		username:  username,
		password:  password,
		from:      from,
		recipient: recipient,
		send:      smtp.SendMail,
	}
}

// Send delivers the document. Only a nil return is a confirmed delivery.
func (s *Sender) Send(ctx context.Context, doc domain.Document) error {
	if s.host == "" || s.recipient == "" || s.from == "" {
		return fmt.Errorf("email sender misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(s.from, s.recipient, doc)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var auth smtp.Auth
	if s.username != "" {
		auth = smtp.PlainAuth("", s.username, s.password, s.host)
	}

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	if err := s.send(addr, auth, s.from, []string{s.recipient}, msg); err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func buildMessage(from, to string, doc domain.Document) ([]byte, error) {
	boundary := fmt.Sprintf("digest-%d", time.Now().UnixNano())

	var b strings.Builder
	header := func(key, value string) {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteString("\r\n")
	}

	header("From", from)
	header("To", to)
	header("Subject", doc.Subject)
	header("MIME-Version", "1.0")
	header("Content-Type", fmt.Sprintf("multipart/alternative; boundary=%q", boundary))
	b.WriteString("\r\n")

	for _, part := range []struct {
		contentType string
		body        string
	}{
		{"text/plain; charset=utf-8", doc.Text},
		{"text/html; charset=utf-8", doc.HTML},
	} {
		b.WriteString("--" + boundary + "\r\n")
		b.WriteString("Content-Type: " + part.contentType + "\r\n")
		b.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")

		qp := quotedprintable.NewWriter(&b)
		if _, err := qp.Write([]byte(part.body)); err != nil {
			return nil, err
		}
		if err := qp.Close(); err != nil {
			return nil, err
		}
		b.WriteString("\r\n")
	}
	b.WriteString("--" + boundary + "--\r\n")

	return []byte(b.String()), nil
}
