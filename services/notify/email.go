package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel/codes"
)

type SmtpOptions struct {
	Server       string
	Port         int
	SenderName   string
	EmailAddress string
	Password     string
	Recipients   []string
}

// EmailNotifier is the fallback transport for people who do not
// live in Slack. Same message kinds, plain text bodies.
type EmailNotifier struct {
	opts SmtpOptions
}

func NewEmailNotifier(opts SmtpOptions) *EmailNotifier {
	return &EmailNotifier{opts: opts}
}

func (e *EmailNotifier) send(ctx context.Context, subject, body string) error {
	ctx, span := tracer.Start(ctx, "email.send")
	defer span.End()

	mail := email.NewEmail()
	mail.From = fmt.Sprintf("%s <%s>", e.opts.SenderName, e.opts.EmailAddress)
	mail.To = e.opts.Recipients
	mail.Subject = subject
	mail.Text = []byte(body)

	addr := fmt.Sprintf("%s:%d", e.opts.Server, e.opts.Port)
	err := mail.Send(addr, smtp.PlainAuth("", e.opts.EmailAddress, e.opts.Password, e.opts.Server))
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		err = mail.Send(addr, nil)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return err
	}
	return nil
}

func (e *EmailNotifier) Send(ctx context.Context, text string) error {
	return e.send(ctx, "Opportunity alert", text)
}

func (e *EmailNotifier) SendUrgent(ctx context.Context, alert UrgentAlert) error {
	body := fmt.Sprintf(
		"%s\n\nDate: %s\nEvent: %s\nSeats left: %d\n\nRegister: %s",
		alert.Title,
		alert.Date,
		alert.OpportunityID,
		alert.SeatsRemaining,
		alert.Link,
	)
	return e.send(ctx, fmt.Sprintf("URGENT: %s", alert.Title), body)
}

func (e *EmailNotifier) SendError(ctx context.Context, alert ErrorAlert) error {
	body := fmt.Sprintf("%s\n\n%s", alert.Message, alert.Details)
	return e.send(ctx, fmt.Sprintf("[%s] %s", alert.Service, alert.Message), body)
}
