package notifier

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strings"

	"github.com/feldboy/aparmenttool/internal/core/domain"
)

// EmailChannel реализует DeliveryChannelPort через SMTP.
// Получатель - адрес электронной почты.
type EmailChannel struct {
	host     string
	port     int
	username string
	password string
	from     string
}

func NewEmailChannel(host string, port int, username, password, from string) (*EmailChannel, error) {
	if host == "" || from == "" {
		return nil, fmt.Errorf("email channel: SMTP host and sender address are required")
	}
	return &EmailChannel{
		host:     host,
		port:     port,
		username: username,
		password: password,
		from:     from,
	}, nil
}

func (c *EmailChannel) Channel() domain.Channel {
	return domain.ChannelEmail
}

func (c *EmailChannel) Send(ctx context.Context, recipient string, msg domain.OutgoingMessage) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var auth smtp.Auth
	if c.username != "" {
		auth = smtp.PlainAuth("", c.username, c.password, c.host)
	}

	addr := fmt.Sprintf("%s:%d", c.host, c.port)
	payload := buildMIMEMessage(c.from, recipient, msg)

	err := smtp.SendMail(addr, auth, c.from, []string{recipient}, payload)
	observeDelivery(domain.ChannelEmail, err)
	if err != nil {
		return "", &domain.DeliveryError{
			Channel:   domain.ChannelEmail,
			Transient: isSMTPTransient(err),
			Err:       err,
		}
	}

	return "", nil
}

// buildMIMEMessage собирает письмо с HTML-телом.
func buildMIMEMessage(from, to string, msg domain.OutgoingMessage) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Title)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")

	fmt.Fprintf(&b, "<h3>%s</h3>", html.EscapeString(msg.Title))
	fmt.Fprintf(&b, "<pre>%s</pre>", html.EscapeString(msg.Body))
	if msg.URL != "" {
		fmt.Fprintf(&b, "<p><a href=%q>View listing</a></p>", msg.URL)
	}
	if msg.ImageURL != "" {
		fmt.Fprintf(&b, "<p><img src=%q alt=\"listing\" width=\"480\"/></p>", msg.ImageURL)
	}

	return []byte(b.String())
}

// isSMTPTransient распознает сбои, которые имеет смысл ретраить.
// Коды 4xx в SMTP означают временный отказ.
func isSMTPTransient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	text := err.Error()
	return strings.HasPrefix(text, "4") || strings.Contains(text, "connection refused")
}
