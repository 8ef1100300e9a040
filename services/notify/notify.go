package notify

import (
	"context"
	"errors"
)

// UrgentAlert is the high-visibility message sent for time-sensitive
// opportunities, it carries a direct action link so the human can claim
// without hunting through the listing page.
type UrgentAlert struct {
	Title          string
	Date           string
	OpportunityID  string
	SeatsRemaining int
	Link           string
}

// ErrorAlert doubles as the audit-trail escalation for claim attempts,
// Service names the upstream ("Home Depot API", "Workshop Registration").
type ErrorAlert struct {
	Service string
	Message string
	Details string
}

type Notifier interface {
	Send(ctx context.Context, text string) error
	SendUrgent(ctx context.Context, alert UrgentAlert) error
	SendError(ctx context.Context, alert ErrorAlert) error
}

// Multi fans a message out to every configured transport. Delivery is
// attempted on all of them even when one fails.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, text string) error {
	var errlist []error
	for _, n := range m {
		if err := n.Send(ctx, text); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func (m Multi) SendUrgent(ctx context.Context, alert UrgentAlert) error {
	var errlist []error
	for _, n := range m {
		if err := n.SendUrgent(ctx, alert); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}

func (m Multi) SendError(ctx context.Context, alert ErrorAlert) error {
	var errlist []error
	for _, n := range m {
		if err := n.SendError(ctx, alert); err != nil {
			errlist = append(errlist, err)
		}
	}
	return errors.Join(errlist...)
}
