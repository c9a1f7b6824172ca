// Package mongoprobe checks reachability of MongoDB deployments.
package mongoprobe

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/clustergate/hostgate/internal/probe"
)

// Type is the canonical service type handled by Prober.
const Type = "mongodb"

// Prober connects with the official driver and pings the primary.
type Prober struct{}

// New creates a MongoDB prober.
func New() *Prober { return &Prober{} }

func (p *Prober) Type() string { return Type }

func (p *Prober) Probe(ctx context.Context, t probe.Target) (string, error) {
	client, err := mongo.Connect(ctx, clientOptions(ctx, t))
	if err != nil {
		return "", fmt.Errorf("creating client: %w", err)
	}
	defer func() { _ = client.Disconnect(context.WithoutCancel(ctx)) }()

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return "", err
	}

	var info struct {
		Version string `bson:"version"`
	}
	err = client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&info)
	if err == nil && info.Version != "" {
		return "MongoDB " + info.Version, nil
	}
	return "", nil
}

// clientOptions builds driver options. An explicit "uri" option replaces the
// host and port; credentials from the target are still applied on top.
func clientOptions(ctx context.Context, t probe.Target) *options.ClientOptions {
	uri := t.Option("uri", "mongodb://"+t.Address())
	opts := options.Client().ApplyURI(uri).SetAppName("hostgate")

	if t.Username != "" {
		opts.SetAuth(options.Credential{
			Username:   t.Username,
			Password:   t.Password,
			AuthSource: t.Option("auth_source", authSource(t.Database)),
		})
	}
	if t.Option("direct", "") == "true" {
		opts.SetDirect(true)
	}
	if dl, ok := ctx.Deadline(); ok {
		left := time.Until(dl)
		opts.SetServerSelectionTimeout(left).SetConnectTimeout(left)
	}
	return opts
}

func authSource(database string) string {
	if database == "" {
		return "admin"
	}
	return database
}
