package nexusq

import (
	"errors"

	"github.com/urso/sderr"
)

// errInvariant is the base cause wrapped by invariantViolation; it exists
// so every panic raised this way shares a common sentinel a recover()
// handler could still match on, even though none is expected to run.
var errInvariant = errors.New("nexusq: invariant violation")

// invariantViolation panics with a cause-chained error for the
// provably-impossible states spec §7 calls "release build UB" — Go has no
// such concept to opt into, so these are always-on panics, each wrapped via
// sderr so the panic payload carries a cause chain instead of a bare
// string. Only the channel's own bookkeeping (reader counts, the write-head
// token) can trigger these; callers can never reach them through normal
// misuse of the public API.
func invariantViolation(msg string) {
	panic(sderr.Wrap(errInvariant, msg))
}
