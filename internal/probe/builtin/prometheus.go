//go:build !noprometheus

package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/promprobe"
)

func init() { add(func() probe.Prober { return promprobe.New() }) }
