package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watcher/ledger")

// AlertLedger enforces at-most-one-alert-per-source-per-day. The wire
// format is a flat JSON object: { "<source_id>": "YYYY-MM-DD" }.
type AlertLedger struct {
	store Store
}

func NewAlertLedger(store Store) *AlertLedger {
	return &AlertLedger{store: store}
}

func decodeAlerts(payload []byte) (map[string]string, error) {
	dates := map[string]string{}
	if len(payload) == 0 {
		return dates, nil
	}
	if err := json.Unmarshal(payload, &dates); err != nil {
		return nil, fmt.Errorf("alert ledger is corrupt: %w", err)
	}
	return dates, nil
}

// ShouldAlert reports whether no alert has gone out for the source on the
// given date yet. True when the source has no entry, or its stored date is
// strictly before today. Dates are YYYY-MM-DD so string comparison is
// date comparison.
func (l *AlertLedger) ShouldAlert(ctx context.Context, sourceID, today string) (bool, error) {
	ctx, span := tracer.Start(ctx, "ShouldAlert")
	defer span.End()

	payload, err := l.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load alert ledger")
		return false, err
	}
	dates, err := decodeAlerts(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}

	last, ok := dates[sourceID]
	if !ok {
		return true, nil
	}
	return last < today, nil
}

// RecordAlert stores the alert date for one source, preserving every
// other source's entry.
func (l *AlertLedger) RecordAlert(ctx context.Context, sourceID, date string) error {
	ctx, span := tracer.Start(ctx, "RecordAlert")
	defer span.End()

	err := l.store.Update(ctx, func(old []byte) ([]byte, error) {
		dates, err := decodeAlerts(old)
		if err != nil {
			return nil, err
		}
		dates[sourceID] = date
		return json.Marshal(dates)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to record alert date")
		return err
	}
	return nil
}

// All returns every source's last alert date, used by the status CLI.
func (l *AlertLedger) All(ctx context.Context) (map[string]string, error) {
	payload, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return decodeAlerts(payload)
}
