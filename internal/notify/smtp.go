package notify

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"mime/multipart"
	"net"
	"net/smtp"
	"net/textproto"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SMTPConfig holds outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
}

// SMTPNotifier sends multipart/alternative mail over SMTP.
type SMTPNotifier struct {
	cfg      SMTPConfig
	sendMail func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
	now      func() time.Time
}

// NewSMTPNotifier creates an SMTP notifier.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, sendMail: smtp.SendMail, now: time.Now}
}

func (n *SMTPNotifier) Send(ctx context.Context, msg Message) (string, error) {
	if msg.To == "" {
		return "", transportErr(msg.To, errors.New("empty recipient"))
	}
	if strings.ContainsAny(msg.To, "\r\n") {
		return "", transportErr(msg.To, errors.New("recipient contains a line break"))
	}
	if err := ctx.Err(); err != nil {
		return "", transportErr(msg.To, err)
	}
	id := fmt.Sprintf("<%s@%s>", uuid.NewString(), n.cfg.Host)
	raw, err := n.build(id, msg)
	if err != nil {
		return "", transportErr(msg.To, err)
	}
	var auth smtp.Auth
	if n.cfg.Username != "" {
		auth = smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
	}
	addr := net.JoinHostPort(n.cfg.Host, fmt.Sprint(n.cfg.Port))
	if err := n.sendMail(addr, auth, n.cfg.From, []string{msg.To}, raw); err != nil {
		return "", transportErr(msg.To, err)
	}
	return id, nil
}

func (n *SMTPNotifier) build(id string, msg Message) ([]byte, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	parts := []struct{ ctype, content string }{
		{"text/plain; charset=UTF-8", msg.Text},
		{"text/html; charset=UTF-8", msg.HTML},
	}
	for _, p := range parts {
		if p.content == "" {
			continue
		}
		w, err := mw.CreatePart(textproto.MIMEHeader{"Content-Type": {p.ctype}})
		if err != nil {
			return nil, err
		}
		if _, err := w.Write([]byte(p.content)); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	from := headerValue(n.cfg.From)
	if n.cfg.FromName != "" {
		from = fmt.Sprintf("%q <%s>", headerValue(n.cfg.FromName), from)
	}
	var out bytes.Buffer
	headers := []string{
		"From: " + from,
		"To: " + headerValue(msg.To),
		"Subject: " + mime.QEncoding.Encode("UTF-8", headerValue(msg.Subject)),
		"Date: " + n.now().Format(time.RFC1123Z),
		"Message-ID: " + id,
		"MIME-Version: 1.0",
		"Content-Type: multipart/alternative; boundary=" + mw.Boundary(),
	}
	out.WriteString(strings.Join(headers, "\r\n"))
	out.WriteString("\r\n\r\n")
	out.Write(body.Bytes())
	return out.Bytes(), nil
}

var headerBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// headerValue folds line breaks so a value cannot start a new header.
func headerValue(v string) string {
	return headerBreaks.Replace(v)
}
