//go:build !nokubernetes

package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/kubeprobe"
)

func init() { add(func() probe.Prober { return kubeprobe.New() }) }
