package sqlprobe

import (
	"context"
	"net"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustergate/hostgate/internal/probe"
)

// closedPort returns a loopback address nothing is listening on.
func closedPort(t *testing.T) (string, int) {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().(*net.TCPAddr)
	require.NoError(t, l.Close())
	return addr.IP.String(), addr.Port
}

func TestTypes(t *testing.T) {
	assert.Equal(t, "postgresql", NewPostgres().Type())
	assert.Equal(t, "mysql", NewMySQL().Type())
}

func TestPostgresURL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2500*time.Millisecond)
	defer cancel()

	raw := postgresURL(ctx, probe.Target{
		Host:     "db.internal",
		Port:     5432,
		Database: "app",
		Username: "monitor",
		Password: "p@ss word",
		Options:  map[string]string{"sslmode": "disable"},
	})

	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "postgres", u.Scheme)
	assert.Equal(t, "db.internal:5432", u.Host)
	assert.Equal(t, "/app", u.Path)
	assert.Equal(t, "monitor", u.User.Username())
	pw, _ := u.User.Password()
	assert.Equal(t, "p@ss word", pw)
	assert.Equal(t, "disable", u.Query().Get("sslmode"))
	assert.Equal(t, "3", u.Query().Get("connect_timeout"))
}

func TestPostgresURL_ExplicitTimeoutWins(t *testing.T) {
	raw := postgresURL(context.Background(), probe.Target{
		Host:    "db",
		Port:    5432,
		Options: map[string]string{"connect_timeout": "9"},
	})
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "9", u.Query().Get("connect_timeout"))
	assert.Nil(t, u.User)
}

func TestMySQLConfig(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	cfg := mysqlConfig(ctx, probe.Target{
		Host:     "mysql.internal",
		Port:     3306,
		Database: "shop",
		Username: "root",
		Password: "secret",
		Options:  map[string]string{"tls": "skip-verify"},
	})

	assert.Equal(t, "tcp", cfg.Net)
	assert.Equal(t, "mysql.internal:3306", cfg.Addr)
	assert.Equal(t, "shop", cfg.DBName)
	assert.Equal(t, "root", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, "skip-verify", cfg.TLSConfig)
	assert.InDelta(t, time.Minute.Seconds(), cfg.Timeout.Seconds(), 1)
}

func TestProbe_ConnectionRefused(t *testing.T) {
	host, port := closedPort(t)
	target := probe.Target{Host: host, Port: port, Username: "u", Password: "p", Database: "d",
		Options: map[string]string{"sslmode": "disable"}}

	for _, p := range []probe.Prober{NewPostgres(), NewMySQL()} {
		t.Run(p.Type(), func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			detail, err := p.Probe(ctx, target)
			assert.Error(t, err)
			assert.Empty(t, detail)
		})
	}
}
