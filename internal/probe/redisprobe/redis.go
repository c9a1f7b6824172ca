// Package redisprobe checks reachability of Redis servers.
package redisprobe

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/clustergate/hostgate/internal/probe"
)

// Type is the canonical service type handled by Prober.
const Type = "redis"

// Prober issues a PING on a dedicated single-connection client.
type Prober struct{}

// New creates a Redis prober.
func New() *Prober { return &Prober{} }

func (p *Prober) Type() string { return Type }

func (p *Prober) Probe(ctx context.Context, t probe.Target) (string, error) {
	opts, err := clientOptions(ctx, t)
	if err != nil {
		return "", err
	}

	client := redis.NewClient(opts)
	defer client.Close()

	if err := client.Ping(ctx).Err(); err != nil {
		return "", err
	}

	info, err := client.Info(ctx, "server").Result()
	if err != nil {
		return "", nil
	}
	if v := serverVersion(info); v != "" {
		return "Redis " + v, nil
	}
	return "", nil
}

// clientOptions maps the target onto go-redis options. The database field
// selects the logical DB index.
func clientOptions(ctx context.Context, t probe.Target) (*redis.Options, error) {
	db := 0
	if t.Database != "" {
		n, err := strconv.Atoi(t.Database)
		if err != nil || n < 0 {
			return nil, fmt.Errorf("invalid redis database index %q", t.Database)
		}
		db = n
	}

	opts := &redis.Options{
		Addr:       t.Address(),
		Username:   t.Username,
		Password:   t.Password,
		DB:         db,
		PoolSize:   1,
		MaxRetries: -1,
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		opts.DialTimeout = left
		opts.ReadTimeout = left
		opts.WriteTimeout = left
	}
	return opts, nil
}

// serverVersion extracts redis_version from an INFO server reply.
func serverVersion(info string) string {
	for _, line := range strings.Split(info, "\n") {
		if v, ok := strings.CutPrefix(strings.TrimSpace(line), "redis_version:"); ok {
			return v
		}
	}
	return ""
}
