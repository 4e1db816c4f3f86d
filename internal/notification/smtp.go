package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Timeout  time.Duration
}

// SMTPTransport sends through an SMTP relay and requires STARTTLS.
type SMTPTransport struct {
	cfg SMTPConfig
}

func NewSMTPTransport(cfg SMTPConfig) *SMTPTransport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &SMTPTransport{cfg: cfg}
}

func (t *SMTPTransport) Send(ctx context.Context, msg Message) (string, error) {
	m, id, err := buildMsg(msg)
	if err != nil {
		return "", err
	}

	opts := []mail.Option{
		mail.WithPort(t.cfg.Port),
		mail.WithTLSPolicy(mail.TLSMandatory),
		mail.WithTimeout(t.cfg.Timeout),
	}
	if t.cfg.User != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(t.cfg.User),
			mail.WithPassword(t.cfg.Password),
		)
	}

	client, err := mail.NewClient(t.cfg.Host, opts...)
	if err != nil {
		return "", fmt.Errorf("failed to create mail client: %w", err)
	}

	sendCtx, cancel := context.WithTimeout(ctx, t.cfg.Timeout)
	defer cancel()
	if err := client.DialAndSendWithContext(sendCtx, m); err != nil {
		return "", fmt.Errorf("failed to send mail: %w", err)
	}
	return id, nil
}

// buildMsg returns the go-mail message and the message id it carries.
func buildMsg(msg Message) (*mail.Msg, string, error) {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, "", fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To); err != nil {
		return nil, "", fmt.Errorf("invalid recipient %q: %w", msg.To, err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextHTML, msg.HTML)

	id := fmt.Sprintf("%s@%s", uuid.NewString(), senderDomain(msg.From))
	m.SetMessageIDWithValue(id)
	m.SetDate()
	return m, "<" + id + ">", nil
}

func senderDomain(from string) string {
	from = strings.TrimSuffix(strings.TrimSpace(from), ">")
	if i := strings.LastIndexByte(from, '@'); i >= 0 && i < len(from)-1 {
		return from[i+1:]
	}
	return "localhost"
}
