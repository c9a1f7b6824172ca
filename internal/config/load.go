package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"sigs.k8s.io/yaml"

	"github.com/clustergate/hostgate/api/v1alpha1"
	"github.com/clustergate/hostgate/internal/probe"
)

// ErrInvalidConfig is returned when the configuration cannot be read, parsed or validated.
var ErrInvalidConfig = errors.New("invalid configuration")

// EnvPrefix prefixes every environment override.
const EnvPrefix = "HOSTGATE_"

const (
	DefaultReportPath   = "."
	DefaultSchedule     = "@every 5m"
	DefaultListen       = ":9110"
	DefaultMetricsJob   = "hostgate"
	DefaultSMTPPort     = 587
	DefaultSMTPTimeout  = 10 * time.Second
	DefaultProbeTimeout = probe.DefaultTimeout
)

// defaultPorts are applied to connections that leave the port unset.
var defaultPorts = map[string]int{
	"postgresql": 5432,
	"mysql":      3306,
	"mongodb":    27017,
	"redis":      6379,
	"prometheus": 9090,
}

// Default returns the built-in configuration used when no file exists.
func Default() *Config {
	return &Config{
		Thresholds: v1alpha1.DefaultThresholds(),
		Sampling: SamplingConfig{
			CPUInterval:  metav1.Duration{Duration: time.Second},
			TopProcesses: 5,
		},
		Connectivity: ConnectivityConfig{
			MaxConcurrency: probe.DefaultMaxConcurrency,
			DefaultTimeout: metav1.Duration{Duration: DefaultProbeTimeout},
		},
		Alerts: AlertsConfig{
			AlertOn: []v1alpha1.Severity{v1alpha1.SeverityWarning, v1alpha1.SeverityCritical},
			Transport: TransportConfig{
				Type: TransportSMTP,
				SMTP: SMTPConfig{
					Port:     DefaultSMTPPort,
					StartTLS: true,
					Timeout:  metav1.Duration{Duration: DefaultSMTPTimeout},
				},
			},
		},
		Report: ReportConfig{
			Path:   DefaultReportPath,
			Format: FormatJSON,
		},
		Metrics: MetricsConfig{Job: DefaultMetricsJob},
		Watch: WatchConfig{
			Schedule: DefaultSchedule,
			Listen:   DefaultListen,
		},
	}
}

// envOverrides are the settings that may come from the environment, usually secrets.
type envOverrides struct {
	SMTPPassword  string `env:"SMTP_PASSWORD"`
	MailgunAPIKey string `env:"MAILGUN_API_KEY"`
	ReportPath    string `env:"REPORT_PATH"`
	AlertsEnabled string `env:"ALERTS_ENABLED"`
}

// Loader reads configuration from a file and the environment.
type Loader struct {
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load reads path with the process environment. See Loader.Load.
func Load(path string) (*Config, error) {
	return Loader{}.Load(path)
}

// LoadEnvFile loads KEY=VALUE pairs from a dotenv file into the process
// environment. Variables that are already set are left alone.
func LoadEnvFile(path string) error {
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// Load reads the YAML or JSON file at path on top of Default, applies the
// environment overlay and validates the result. A missing file yields the
// defaults; an unreadable or malformed file is an ErrInvalidConfig.
func (l Loader) Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("%w: reading %s: %w", ErrInvalidConfig, path, err)
		default:
			if err := yaml.UnmarshalStrict(data, cfg); err != nil {
				return nil, fmt.Errorf("%w: parsing %s: %w", ErrInvalidConfig, path, err)
			}
			cfg.Source = path
		}
	}

	if err := l.applyEnv(cfg); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (l Loader) environ() map[string]string {
	if l.Environ != nil {
		return l.Environ
	}
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			out[k] = v
		}
	}
	return out
}

func (l Loader) applyEnv(cfg *Config) error {
	environ := l.environ()

	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return fmt.Errorf("%w: environment: %w", ErrInvalidConfig, err)
	}

	if o.SMTPPassword != "" {
		cfg.Alerts.Transport.SMTP.Password = o.SMTPPassword
	}
	if o.MailgunAPIKey != "" {
		cfg.Alerts.Transport.Mailgun.APIKey = o.MailgunAPIKey
	}
	if o.ReportPath != "" {
		cfg.Report.Path = o.ReportPath
	}
	if o.AlertsEnabled != "" {
		enabled, err := strconv.ParseBool(o.AlertsEnabled)
		if err != nil {
			return fmt.Errorf("%w: %sALERTS_ENABLED: %w", ErrInvalidConfig, EnvPrefix, err)
		}
		cfg.Alerts.Enabled = enabled
	}

	for i := range cfg.Connectivity.Connections {
		c := &cfg.Connectivity.Connections[i]
		if c.PasswordEnv == "" {
			continue
		}
		v, ok := environ[c.PasswordEnv]
		if !ok {
			return fmt.Errorf("%w: connection %q: environment variable %s is not set", ErrInvalidConfig, c.Name, c.PasswordEnv)
		}
		c.Password = v
	}
	return nil
}

// applyDefaults fills zero values a partial file may have left behind.
func (c *Config) applyDefaults() {
	if c.Sampling.CPUInterval.Duration <= 0 {
		c.Sampling.CPUInterval.Duration = time.Second
	}
	if c.Sampling.TopProcesses <= 0 {
		c.Sampling.TopProcesses = 5
	}
	if c.Connectivity.MaxConcurrency <= 0 {
		c.Connectivity.MaxConcurrency = probe.DefaultMaxConcurrency
	}
	if c.Connectivity.DefaultTimeout.Duration <= 0 {
		c.Connectivity.DefaultTimeout.Duration = DefaultProbeTimeout
	}
	for i := range c.Connectivity.Connections {
		conn := &c.Connectivity.Connections[i]
		if conn.Port == 0 {
			if canonical, ok := probe.Canonical(conn.Type); ok {
				conn.Port = defaultPorts[canonical]
			}
		}
	}
	if c.Alerts.Transport.Type == "" {
		c.Alerts.Transport.Type = TransportSMTP
	}
	if c.Alerts.Transport.SMTP.Port == 0 {
		c.Alerts.Transport.SMTP.Port = DefaultSMTPPort
	}
	if c.Alerts.Transport.SMTP.Timeout.Duration <= 0 {
		c.Alerts.Transport.SMTP.Timeout.Duration = DefaultSMTPTimeout
	}
	if c.Report.Path == "" {
		c.Report.Path = DefaultReportPath
	}
	if c.Report.Format == "" {
		c.Report.Format = FormatJSON
	}
	c.Report.Format = strings.ToLower(c.Report.Format)
	if c.Metrics.Job == "" {
		c.Metrics.Job = DefaultMetricsJob
	}
	if c.Watch.Schedule == "" {
		c.Watch.Schedule = DefaultSchedule
	}
	if c.Watch.Listen == "" {
		c.Watch.Listen = DefaultListen
	}
}

// Targets converts the configured connections into probe targets.
func (c *Config) Targets() []probe.Target {
	targets := make([]probe.Target, 0, len(c.Connectivity.Connections))
	for _, conn := range c.Connectivity.Connections {
		targets = append(targets, probe.Target{
			Name:     conn.Name,
			Type:     conn.Type,
			Host:     conn.Host,
			Port:     conn.Port,
			Database: conn.Database,
			Username: conn.User,
			Password: conn.Password,
			Timeout:  conn.Timeout.Duration,
			Options:  conn.Options,
		})
	}
	return targets
}
