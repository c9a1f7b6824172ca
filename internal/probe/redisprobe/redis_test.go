package redisprobe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clustergate/hostgate/internal/probe"
)

func TestType(t *testing.T) {
	assert.Equal(t, "redis", New().Type())
}

func TestClientOptions(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	opts, err := clientOptions(ctx, probe.Target{Host: "cache", Port: 6379, Database: "3", Password: "pw"})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, "pw", opts.Password)
	assert.Equal(t, -1, opts.MaxRetries)
	assert.Greater(t, opts.DialTimeout, time.Duration(0))
}

func TestClientOptions_InvalidDatabase(t *testing.T) {
	for _, db := range []string{"zero", "-1"} {
		_, err := clientOptions(context.Background(), probe.Target{Host: "cache", Port: 6379, Database: db})
		assert.Error(t, err, db)
	}
}

func TestServerVersion(t *testing.T) {
	info := "# Server\r\nredis_version:7.2.4\r\nredis_git_sha1:00000000\r\n"
	assert.Equal(t, "7.2.4", serverVersion(info))
	assert.Empty(t, serverVersion("# Server\r\n"))
}

func TestProbe_ConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	port := l.Addr().(*net.TCPAddr).Port
	require.NoError(t, l.Close())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err = New().Probe(ctx, probe.Target{Host: "127.0.0.1", Port: port})
	assert.Error(t, err)
}
