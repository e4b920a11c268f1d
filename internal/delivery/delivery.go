// Package delivery defines the contract every transport front end fulfils.
package delivery

import "context"

// Delivery is a serving front end (HTTP API, worker endpoint). Serve blocks
// until the server stops.
type Delivery interface {
	Serve(ctx context.Context) error
}
