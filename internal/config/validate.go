package config

import (
	"errors"
	"fmt"
	"net/mail"

	"github.com/clustergate/hostgate/internal/probe"
)

// Validate checks the configuration and returns every problem found, wrapped
// in ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Thresholds.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("thresholds: %w", err))
	}
	errs = append(errs, c.Connectivity.validate()...)
	errs = append(errs, c.Alerts.validate()...)

	switch c.Report.Format {
	case FormatJSON, FormatYAML:
	default:
		errs = append(errs, fmt.Errorf("report.format %q must be %q or %q", c.Report.Format, FormatJSON, FormatYAML))
	}
	if c.Sampling.TopProcesses < 0 {
		errs = append(errs, errors.New("sampling.top_processes must not be negative"))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}

func (cc ConnectivityConfig) validate() []error {
	var errs []error
	seen := make(map[string]bool, len(cc.Connections))

	for i, conn := range cc.Connections {
		field := fmt.Sprintf("connectivity.connections[%d]", i)
		if conn.Name == "" {
			errs = append(errs, fmt.Errorf("%s: name is required", field))
		} else if seen[conn.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate name %q", field, conn.Name))
		}
		seen[conn.Name] = true

		if conn.Type == "" {
			errs = append(errs, fmt.Errorf("%s: type is required", field))
			continue
		}
		if conn.Port < 0 || conn.Port > 65535 {
			errs = append(errs, fmt.Errorf("%s: port %d out of range", field, conn.Port))
		}

		// Unrecognized types are allowed here; the run reports them as UNKNOWN.
		canonical, known := probe.Canonical(conn.Type)
		if !known {
			continue
		}
		switch canonical {
		case "kubernetes":
		case "mongodb":
			if conn.Host == "" && conn.Options["uri"] == "" {
				errs = append(errs, fmt.Errorf("%s: host or options.uri is required", field))
			}
		case "http", "prometheus":
			if conn.Host == "" && conn.Options["url"] == "" {
				errs = append(errs, fmt.Errorf("%s: host or options.url is required", field))
			}
		case "dns":
			if conn.Host == "" && conn.Options["domain"] == "" {
				errs = append(errs, fmt.Errorf("%s: host or options.domain is required", field))
			}
		case "tcp":
			if conn.Host == "" || conn.Port == 0 {
				errs = append(errs, fmt.Errorf("%s: host and port are required", field))
			}
		default:
			if conn.Host == "" {
				errs = append(errs, fmt.Errorf("%s: host is required", field))
			}
		}
	}
	return errs
}

func (a AlertsConfig) validate() []error {
	if !a.Enabled {
		return nil
	}

	var errs []error
	if _, err := mail.ParseAddress(a.Sender); err != nil {
		errs = append(errs, fmt.Errorf("alerts.sender %q: %w", a.Sender, err))
	}
	if len(a.Recipients) == 0 {
		errs = append(errs, errors.New("alerts.recipients must not be empty"))
	}
	for _, r := range a.Recipients {
		if _, err := mail.ParseAddress(r); err != nil {
			errs = append(errs, fmt.Errorf("alerts.recipients %q: %w", r, err))
		}
	}
	if len(a.AlertOn) == 0 {
		errs = append(errs, errors.New("alerts.alert_on must name at least one severity"))
	}

	switch a.Transport.Type {
	case TransportSMTP:
		if a.Transport.SMTP.Host == "" {
			errs = append(errs, errors.New("alerts.transport.smtp.host is required"))
		}
	case TransportMailgun:
		if a.Transport.Mailgun.Domain == "" || a.Transport.Mailgun.APIKey == "" {
			errs = append(errs, errors.New("alerts.transport.mailgun requires domain and api_key"))
		}
	case TransportLog:
	default:
		errs = append(errs, fmt.Errorf("alerts.transport.type %q must be one of smtp, mailgun, log", a.Transport.Type))
	}
	return errs
}
