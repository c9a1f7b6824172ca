//go:build !nomongodb

package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/mongoprobe"
)

func init() { add(func() probe.Prober { return mongoprobe.New() }) }
