// Package builtin registers the probers compiled into this binary. Each
// driver lives behind a build tag (e.g. -tags nomongodb) so slim builds can
// leave it out; its service type is then reported as SKIPPED.
package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/netprobe"
)

// compiled collects constructors contributed by the tag-gated files.
var compiled []func() probe.Prober

func add(f func() probe.Prober) { compiled = append(compiled, f) }

// RegisterAll registers every compiled-in prober into reg.
func RegisterAll(reg *probe.Registry) {
	reg.Register(netprobe.NewTCP())
	reg.Register(netprobe.NewHTTP())
	reg.Register(netprobe.NewDNS())
	for _, f := range compiled {
		reg.Register(f())
	}
}

// NewRegistry returns a registry populated with every compiled-in prober.
func NewRegistry() *probe.Registry {
	reg := probe.NewRegistry()
	RegisterAll(reg)
	return reg
}
