package health

import "context"

// Pinger checks that a backend answers.
type Pinger interface {
	Ping(ctx context.Context) error
}
