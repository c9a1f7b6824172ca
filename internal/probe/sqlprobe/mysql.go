package sqlprobe

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/clustergate/hostgate/internal/probe"
)

// MySQLType is the canonical service type handled by MySQL.
const MySQLType = "mysql"

// MySQL pings a MySQL or MariaDB server through database/sql.
type MySQL struct{}

// NewMySQL creates a MySQL prober.
func NewMySQL() *MySQL { return &MySQL{} }

func (m *MySQL) Type() string { return MySQLType }

func (m *MySQL) Probe(ctx context.Context, t probe.Target) (string, error) {
	connector, err := mysql.NewConnector(mysqlConfig(ctx, t))
	if err != nil {
		return "", fmt.Errorf("building connector: %w", err)
	}

	db := sql.OpenDB(connector)
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return "", err
	}

	var version string
	if err := db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version); err == nil {
		return "MySQL " + version, nil
	}
	return "", nil
}

func mysqlConfig(ctx context.Context, t probe.Target) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = t.Address()
	cfg.User = t.Username
	cfg.Passwd = t.Password
	cfg.DBName = t.Database
	if tlsMode := t.Option("tls", ""); tlsMode != "" {
		cfg.TLSConfig = tlsMode
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		cfg.Timeout = left
		cfg.ReadTimeout = left
		cfg.WriteTimeout = left
	}
	return cfg
}
