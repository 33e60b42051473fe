// Package mail abstracts transactional email delivery. Delivery is always
// best-effort: callers log failures and the primary operation proceeds.
package mail

import "context"

// Message is a single transactional email.
type Message struct {
	To      string
	Subject string
	HTML    string
}

// Mailer is the email delivery collaborator.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
