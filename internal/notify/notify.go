// Package notify provides the outbound notification channel.
//
// The reminder core only sees the Sender interface — a send-message channel
// with an opaque failure mode. The Telegram implementation lives in
// telegram.go; tests use in-memory fakes.
package notify

import "context"

// Sender delivers one message to one chat. Implementations must be safe for
// concurrent use and should honor ctx cancellation/deadline where the
// underlying transport allows it.
//
// A returned error means this one message was not delivered; the caller
// decides whether and when to retry. The error taxonomy is not interpreted.
type Sender interface {
	Send(ctx context.Context, chatID int64, text string, markdown bool) error
}
