package port

import "context"

// Message is a transactional email handed to the delivery collaborator.
type Message struct {
	To       string
	From     string
	FromName string
	Subject  string
	Text     string
	HTML     string
}

// Mailer delivers transactional email. Send returns an error when the
// downstream provider did not accept the message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}
