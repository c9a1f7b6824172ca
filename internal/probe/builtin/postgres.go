//go:build !nopostgres

package builtin

import (
	"github.com/clustergate/hostgate/internal/probe"
	"github.com/clustergate/hostgate/internal/probe/sqlprobe"
)

func init() { add(func() probe.Prober { return sqlprobe.NewPostgres() }) }
