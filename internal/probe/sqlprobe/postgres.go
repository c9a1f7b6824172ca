// Package sqlprobe checks reachability of relational databases.
package sqlprobe

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/clustergate/hostgate/internal/probe"
)

// PostgresType is the canonical service type handled by Postgres.
const PostgresType = "postgresql"

// Postgres opens a single pgx connection, pings it and closes it.
type Postgres struct{}

// NewPostgres creates a Postgres prober.
func NewPostgres() *Postgres { return &Postgres{} }

func (p *Postgres) Type() string { return PostgresType }

func (p *Postgres) Probe(ctx context.Context, t probe.Target) (string, error) {
	cfg, err := pgx.ParseConfig(postgresURL(ctx, t))
	if err != nil {
		return "", fmt.Errorf("parsing connection settings: %w", err)
	}

	conn, err := pgx.ConnectConfig(ctx, cfg)
	if err != nil {
		return "", err
	}
	defer conn.Close(context.WithoutCancel(ctx))

	if err := conn.Ping(ctx); err != nil {
		return "", err
	}

	if v := conn.PgConn().ParameterStatus("server_version"); v != "" {
		return "PostgreSQL " + v, nil
	}
	return "", nil
}

// postgresURL renders the target as a libpq URL. Options map straight onto
// query parameters, so sslmode and application_name pass through untouched.
func postgresURL(ctx context.Context, t probe.Target) string {
	u := url.URL{
		Scheme: "postgres",
		Host:   t.Address(),
		Path:   "/" + t.Database,
	}
	if t.Username != "" {
		if t.Password != "" {
			u.User = url.UserPassword(t.Username, t.Password)
		} else {
			u.User = url.User(t.Username)
		}
	}

	q := url.Values{}
	for k, v := range t.Options {
		q.Set(k, v)
	}
	if q.Get("connect_timeout") == "" {
		if secs := remainingSeconds(ctx); secs > 0 {
			q.Set("connect_timeout", strconv.Itoa(secs))
		}
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// remainingSeconds rounds the time left on ctx up to whole seconds, or 0 without a deadline.
func remainingSeconds(ctx context.Context) int {
	dl, ok := ctx.Deadline()
	if !ok {
		return 0
	}
	left := time.Until(dl)
	if left <= 0 {
		return 1
	}
	return int((left + time.Second - 1) / time.Second)
}
