package mail

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
)

// SendGridMailer delivers email through the SendGrid API.
type SendGridMailer struct {
	key  string
	from *sgmail.Email
}

// NewSendGridMailer constructs a mailer. fromName/fromEmail appear as the
// sender on every message.
func NewSendGridMailer(key, fromName, fromEmail string) *SendGridMailer {
	return &SendGridMailer{key: key, from: sgmail.NewEmail(fromName, fromEmail)}
}

// Send delivers one message.
func (m *SendGridMailer) Send(ctx context.Context, msg Message) error {
	v3 := sgmail.NewSingleEmail(m.from, msg.Subject, sgmail.NewEmail("", msg.To), "", msg.HTML)
	req := sendgrid.GetRequest(m.key, "/v3/mail/send", "https://api.sendgrid.com")
	req.Method = "POST"
	req.Body = sgmail.GetRequestBody(v3)
	resp, err := sendgrid.MakeRequestWithContext(ctx, req)
	if err != nil {
		return fmt.Errorf("mail: sendgrid request: %w", err)
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("mail: sendgrid returned status %d", resp.StatusCode)
	}
	return nil
}
