// Package config defines the hostgate configuration file and how it is
// loaded, defaulted, overlaid from the environment and validated.
package config

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"

	"github.com/clustergate/hostgate/api/v1alpha1"
)

// Config is the full runtime configuration. It is built once at startup and
// treated as immutable afterwards.
type Config struct {
	Thresholds   v1alpha1.Thresholds `json:"thresholds"`
	Sampling     SamplingConfig      `json:"sampling"`
	Connectivity ConnectivityConfig  `json:"connectivity"`
	Alerts       AlertsConfig        `json:"alerts"`
	Report       ReportConfig        `json:"report"`
	Metrics      MetricsConfig       `json:"metrics"`
	Watch        WatchConfig         `json:"watch"`

	// Source is the file the configuration was read from, empty for built-in defaults.
	Source string `json:"-"`
}

// SamplingConfig tunes host resource sampling.
type SamplingConfig struct {
	CPUInterval  metav1.Duration `json:"cpu_interval"`
	TopProcesses int             `json:"top_processes"`
}

// ConnectivityConfig lists the external services to probe.
type ConnectivityConfig struct {
	CheckEnabled   bool               `json:"check_enabled"`
	MaxConcurrency int                `json:"max_concurrency,omitempty"`
	DefaultTimeout metav1.Duration    `json:"default_timeout"`
	Connections    []ConnectionConfig `json:"connections,omitempty"`
}

// ConnectionConfig is one probed service.
type ConnectionConfig struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Host     string `json:"host,omitempty"`
	Port     int    `json:"port,omitempty"`
	Database string `json:"database,omitempty"`
	User     string `json:"user,omitempty"`
	Password string `json:"password,omitempty"`

	// PasswordEnv names an environment variable holding the password. It wins over Password.
	PasswordEnv string `json:"password_env,omitempty"`

	Timeout metav1.Duration   `json:"timeout,omitempty"`
	Options map[string]string `json:"options,omitempty"`
}

// AlertsConfig is the alert policy.
type AlertsConfig struct {
	Enabled    bool                `json:"enabled"`
	Sender     string              `json:"sender,omitempty"`
	Recipients []string            `json:"recipients,omitempty"`
	AlertOn    []v1alpha1.Severity `json:"alert_on,omitempty"`
	Transport  TransportConfig     `json:"transport"`
}

// Transport kinds.
const (
	TransportSMTP    = "smtp"
	TransportMailgun = "mailgun"
	TransportLog     = "log"
)

// TransportConfig selects and configures the outbound alert transport.
type TransportConfig struct {
	Type    string        `json:"type,omitempty"`
	SMTP    SMTPConfig    `json:"smtp"`
	Mailgun MailgunConfig `json:"mailgun"`
}

// SMTPConfig configures delivery through an SMTP relay.
type SMTPConfig struct {
	Host     string          `json:"host,omitempty"`
	Port     int             `json:"port,omitempty"`
	Username string          `json:"username,omitempty"`
	Password string          `json:"password,omitempty"`
	StartTLS bool            `json:"starttls"`
	Timeout  metav1.Duration `json:"timeout"`
}

// MailgunConfig configures delivery through the Mailgun API.
type MailgunConfig struct {
	Domain  string `json:"domain,omitempty"`
	APIKey  string `json:"api_key,omitempty"`
	BaseURL string `json:"base_url,omitempty"`
}

// Report formats.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// ReportConfig controls where snapshots are persisted.
type ReportConfig struct {
	// Path is the directory reports are written to.
	Path        string `json:"path"`
	KeepHistory bool   `json:"keep_history"`
	Format      string `json:"format"`
}

// MetricsConfig controls Prometheus export after each run.
type MetricsConfig struct {
	TextfilePath   string `json:"textfile_path,omitempty"`
	PushgatewayURL string `json:"pushgateway_url,omitempty"`
	Job            string `json:"job,omitempty"`
}

// WatchConfig controls the long-running watch mode.
type WatchConfig struct {
	Schedule string `json:"schedule"`
	Listen   string `json:"listen"`
}
