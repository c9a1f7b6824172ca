package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mailgun/mailgun-go/v4"
	gomail "github.com/wneessen/go-mail"
	"sigs.k8s.io/controller-runtime/pkg/log"
)

// Message is a fully addressed alert.
type Message struct {
	From    string
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Transport delivers a rendered alert. Implementations must honor ctx.
type Transport interface {
	Name() string
	Send(ctx context.Context, msg Message) error
}

// SMTPOptions configures SMTPTransport.
type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	StartTLS bool
	Timeout  time.Duration
}

// SMTPTransport sends mail through an SMTP relay. Authentication is used
// only when a username is set.
type SMTPTransport struct {
	opts SMTPOptions
}

// NewSMTPTransport creates an SMTP transport.
func NewSMTPTransport(opts SMTPOptions) *SMTPTransport {
	return &SMTPTransport{opts: opts}
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, msg Message) error {
	m, err := buildMsg(msg)
	if err != nil {
		return err
	}

	client, err := gomail.NewClient(t.opts.Host, t.clientOptions()...)
	if err != nil {
		return fmt.Errorf("creating smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return fmt.Errorf("smtp delivery to %s: %w", t.opts.Host, err)
	}
	return nil
}

func (t *SMTPTransport) clientOptions() []gomail.Option {
	opts := []gomail.Option{gomail.WithPort(t.opts.Port)}
	if t.opts.Timeout > 0 {
		opts = append(opts, gomail.WithTimeout(t.opts.Timeout))
	}
	if t.opts.StartTLS {
		opts = append(opts, gomail.WithTLSPolicy(gomail.TLSMandatory))
	} else {
		opts = append(opts, gomail.WithTLSPolicy(gomail.NoTLS))
	}
	if t.opts.Username != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(t.opts.Username),
			gomail.WithPassword(t.opts.Password),
		)
	}
	return opts
}

func buildMsg(msg Message) (*gomail.Msg, error) {
	m := gomail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", msg.From, err)
	}
	if err := m.To(msg.To...); err != nil {
		return nil, fmt.Errorf("invalid recipients: %w", err)
	}
	m.Subject(msg.Subject)
	m.SetBodyString(gomail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		m.AddAlternativeString(gomail.TypeTextHTML, msg.HTML)
	}
	return m, nil
}

// MailgunTransport sends mail through the Mailgun HTTP API.
type MailgunTransport struct {
	client *mailgun.MailgunImpl
}

// NewMailgunTransport creates a Mailgun transport. An empty baseURL keeps the
// SDK default (US region).
func NewMailgunTransport(domain, apiKey, baseURL string) *MailgunTransport {
	client := mailgun.NewMailgun(domain, apiKey)
	if baseURL != "" {
		client.SetAPIBase(baseURL)
	}
	return &MailgunTransport{client: client}
}

func (t *MailgunTransport) Name() string { return "mailgun" }

func (t *MailgunTransport) Send(ctx context.Context, msg Message) error {
	message := t.client.NewMessage(msg.From, msg.Subject, msg.Text, msg.To...)
	if msg.HTML != "" {
		message.SetHtml(msg.HTML)
	}

	_, id, err := t.client.Send(ctx, message)
	if err != nil {
		return fmt.Errorf("mailgun delivery: %w", err)
	}
	log.FromContext(ctx).V(1).Info("mailgun accepted alert", "messageId", id)
	return nil
}

// LogTransport writes alerts to the logger instead of delivering them.
// It is useful for dry runs and hosts without mail access.
type LogTransport struct{}

func (LogTransport) Name() string { return "log" }

func (LogTransport) Send(ctx context.Context, msg Message) error {
	log.FromContext(ctx).Info("alert",
		"subject", msg.Subject,
		"from", msg.From,
		"to", strings.Join(msg.To, ", "),
		"body", msg.Text)
	return nil
}
