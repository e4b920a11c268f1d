// Package lifecycle holds shared constants for application start and
// shutdown coordination.
package lifecycle

import "time"

// DefaultTimeout bounds how long a component may take to start or to drain
// during graceful shutdown.
const DefaultTimeout = 10 * time.Second
