// Package alert evaluates a health snapshot against the alert policy and,
// when triggered, renders and delivers a notification.
package alert

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/config"
)

// Policy decides whether and to whom an alert is sent.
type Policy struct {
	Enabled    bool
	Sender     string
	Recipients []string
	AlertOn    []v1alpha1.Severity
}

// Triggers reports whether a snapshot with the given overall severity should alert.
func (p Policy) Triggers(s v1alpha1.Severity) bool {
	return slices.Contains(p.AlertOn, s)
}

// Outcome is the result of one dispatch. Delivery failures are reported
// here and never returned as errors.
type Outcome struct {
	Sent bool `json:"sent"`

	// Failed is set when delivery was attempted and did not succeed.
	Failed bool   `json:"failed,omitempty"`
	Reason string `json:"reason"`
}

// Result classifies the outcome as "sent", "failed" or "suppressed".
func (o Outcome) Result() string {
	switch {
	case o.Sent:
		return "sent"
	case o.Failed:
		return "failed"
	default:
		return "suppressed"
	}
}

// Dispatcher renders and sends alerts according to a Policy.
type Dispatcher struct {
	policy    Policy
	renderer  *Renderer
	transport Transport
}

// NewDispatcher creates a Dispatcher. transport may be nil when the policy is disabled.
func NewDispatcher(policy Policy, transport Transport) (*Dispatcher, error) {
	renderer, err := NewRenderer()
	if err != nil {
		return nil, err
	}
	return &Dispatcher{policy: policy, renderer: renderer, transport: transport}, nil
}

// FromConfig builds a Dispatcher and its transport from the alerts section.
func FromConfig(cfg config.AlertsConfig) (*Dispatcher, error) {
	policy := Policy{
		Enabled:    cfg.Enabled,
		Sender:     cfg.Sender,
		Recipients: slices.Clone(cfg.Recipients),
		AlertOn:    slices.Clone(cfg.AlertOn),
	}

	var transport Transport
	switch cfg.Transport.Type {
	case config.TransportMailgun:
		mg := cfg.Transport.Mailgun
		transport = NewMailgunTransport(mg.Domain, mg.APIKey, mg.BaseURL)
	case config.TransportLog:
		transport = LogTransport{}
	case config.TransportSMTP, "":
		s := cfg.Transport.SMTP
		transport = NewSMTPTransport(SMTPOptions{
			Host:     s.Host,
			Port:     s.Port,
			Username: s.Username,
			Password: s.Password,
			StartTLS: s.StartTLS,
			Timeout:  s.Timeout.Duration,
		})
	default:
		return nil, fmt.Errorf("%w: unknown alert transport %q", config.ErrInvalidConfig, cfg.Transport.Type)
	}

	return NewDispatcher(policy, transport)
}

// Disable turns the policy off for this dispatcher, as --no-email does.
func (d *Dispatcher) Disable() {
	d.policy.Enabled = false
}

// Dispatch evaluates snap and sends an alert when the policy triggers.
func (d *Dispatcher) Dispatch(ctx context.Context, snap *v1alpha1.HealthSnapshot) Outcome {
	logger := log.FromContext(ctx).WithName("alert")

	if !d.policy.Enabled {
		return Outcome{Reason: "alerts disabled"}
	}
	if !d.policy.Triggers(snap.Overall) {
		return Outcome{Reason: fmt.Sprintf("health status %s not in alert levels", snap.Overall)}
	}
	if d.transport == nil {
		return Outcome{Failed: true, Reason: "failed to send alert: no transport configured"}
	}

	content, err := d.renderer.Render(snap)
	if err != nil {
		logger.Error(err, "rendering alert")
		return Outcome{Failed: true, Reason: "failed to send alert: " + err.Error()}
	}

	msg := Message{
		From:    d.policy.Sender,
		To:      d.policy.Recipients,
		Subject: content.Subject,
		Text:    content.Text,
		HTML:    content.HTML,
	}
	if err := d.transport.Send(ctx, msg); err != nil {
		logger.Error(err, "alert delivery failed", "transport", d.transport.Name())
		return Outcome{Failed: true, Reason: "failed to send alert: " + err.Error()}
	}

	recipients := strings.Join(d.policy.Recipients, ", ")
	logger.Info("alert sent", "transport", d.transport.Name(), "severity", snap.Overall.String(), "to", recipients)
	return Outcome{Sent: true, Reason: "alert sent to " + recipients}
}
