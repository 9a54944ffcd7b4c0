// Package mail delivers transactional email. Delivery is best-effort: the
// flows that trigger a message never roll back on a send failure.
package mail

import "context"

// Sender delivers a plain-text message to a single recipient.
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}
