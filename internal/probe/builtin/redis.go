//go:build !noredis

package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/redisprobe"
)

func init() { add(func() probe.Prober { return redisprobe.New() }) }
