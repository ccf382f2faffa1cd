package nexusq

import (
	"context"
	"time"

	"github.com/go-nexus/nexusq/timed"
)

// MonitorLag reports r's Lag to report on every period until ctx is
// cancelled, using the same ticker-driven loop the teacher's timed package
// runs for other periodic background work. It returns ctx.Err() once
// cancelled.
func MonitorLag[T any](ctx context.Context, r *Receiver[T], period time.Duration, report func(lag uint64)) error {
	return timed.Periodic(ctx, period, func() error {
		report(r.Lag())
		return nil
	})
}
