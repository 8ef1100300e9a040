// Package notifytest provides an in-memory Notifier for tests.
package notifytest

import (
	"context"
	"sync"

	"seatwatch-backend/services/notify"
)

type Recorder struct {
	mu      sync.Mutex
	Texts   []string
	Urgents []notify.UrgentAlert
	Errors  []notify.ErrorAlert
}

func (r *Recorder) Send(ctx context.Context, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Texts = append(r.Texts, text)
	return nil
}

func (r *Recorder) SendUrgent(ctx context.Context, alert notify.UrgentAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Urgents = append(r.Urgents, alert)
	return nil
}

func (r *Recorder) SendError(ctx context.Context, alert notify.ErrorAlert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Errors = append(r.Errors, alert)
	return nil
}

func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Texts = nil
	r.Urgents = nil
	r.Errors = nil
}
