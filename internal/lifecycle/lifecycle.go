// Package lifecycle records whether the process is shutting down.
package lifecycle

import "sync/atomic"

var shuttingDown atomic.Bool

// SetShuttingDown is called once the interrupt signal arrives, before the web server
// and UI loop are stopped. GET /health reports shutting-down while it is set.
func SetShuttingDown(v bool) {
	shuttingDown.Store(v)
}

func IsShuttingDown() bool {
	return shuttingDown.Load()
}
