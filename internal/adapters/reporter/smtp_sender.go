package reporter

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/emersion/go-smtp"
)

// SMTPSender mails reports to a relay
type SMTPSender struct {
	addr    string
	from    string
	to      []string
	subject string
}

// NewSMTPSender creates a sender that relays through address:port
func NewSMTPSender(address string, port int, from string, to []string, subject string) (*SMTPSender, error) {
	if len(to) == 0 {
		return nil, fmt.Errorf("smtp reporter needs at least one recipient")
	}
	if from == "" {
		return nil, fmt.Errorf("smtp reporter needs a sender address")
	}

	return &SMTPSender{
		addr:    net.JoinHostPort(address, fmt.Sprint(port)),
		from:    from,
		to:      to,
		subject: subject,
	}, nil
}

// Send delivers the payload as an application/json mail body
func (s *SMTPSender) Send(ctx context.Context, id string, payload []byte) error {
	// Get hostname for EHLO
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to connect to mail relay: %w", err)
	}

	// Bound the whole conversation by the delivery deadline
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("failed to set connection deadline: %w", err)
		}
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(s.from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	for _, rcpt := range s.to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s failed: %w", rcpt, err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(s.message(id, payload)); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send report data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	// The report is accepted once DATA closes
	_ = c.Quit()

	return nil
}

// message renders the RFC 5322 message carrying the payload
func (s *SMTPSender) message(id string, payload []byte) []byte {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", s.from)
	fmt.Fprintf(&buf, "To: %s\r\n", strings.Join(s.to, ", "))
	fmt.Fprintf(&buf, "Subject: %s\r\n", s.subject)
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	fmt.Fprintf(&buf, "X-Report-ID: %s\r\n", id)
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: %s\r\n", ContentTypeJSON)
	fmt.Fprintf(&buf, "\r\n")
	buf.Write(payload)
	buf.WriteString("\r\n")
	return buf.Bytes()
}
