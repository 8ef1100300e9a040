package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"go.opentelemetry.io/otel/codes"
)

// Record is the persisted outcome of one claim for one opportunity.
// IsRegistered true is terminal, the executor is never invoked again for
// that opportunity. False marks "discovered but not claimed", which a
// later run may retry.
type Record struct {
	VariantCode  string `json:"variant_code"`
	Title        string `json:"title"`
	EventDate    string `json:"event_date"`
	RecordedAt   string `json:"recorded_at"`
	IsRegistered bool   `json:"is_registered"`
}

// RegistrationLedger maps source_id -> opportunity_id -> Record. Wire
// format is the nested JSON object, whole file rewritten per update.
type RegistrationLedger struct {
	store Store
}

func NewRegistrationLedger(store Store) *RegistrationLedger {
	return &RegistrationLedger{store: store}
}

func decodeRegistrations(payload []byte) (map[string]map[string]Record, error) {
	records := map[string]map[string]Record{}
	if len(payload) == 0 {
		return records, nil
	}
	if err := json.Unmarshal(payload, &records); err != nil {
		return nil, fmt.Errorf("registration ledger is corrupt: %w", err)
	}
	return records, nil
}

// IsRegistered reports whether a successful claim has already been
// recorded for the opportunity. A missing entry and a discovered-only
// entry both return false.
func (l *RegistrationLedger) IsRegistered(ctx context.Context, sourceID, opportunityID string) (bool, error) {
	ctx, span := tracer.Start(ctx, "IsRegistered")
	defer span.End()

	payload, err := l.store.Load(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to load registration ledger")
		return false, err
	}
	records, err := decodeRegistrations(payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return false, err
	}
	return records[sourceID][opportunityID].IsRegistered, nil
}

// SaveRecord upserts the record for one opportunity, preserving all
// other entries.
func (l *RegistrationLedger) SaveRecord(ctx context.Context, sourceID, opportunityID string, rec Record) error {
	ctx, span := tracer.Start(ctx, "SaveRecord")
	defer span.End()

	err := l.store.Update(ctx, func(old []byte) ([]byte, error) {
		records, err := decodeRegistrations(old)
		if err != nil {
			return nil, err
		}
		if records[sourceID] == nil {
			records[sourceID] = map[string]Record{}
		}
		records[sourceID][opportunityID] = rec
		return json.Marshal(records)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to save registration record")
		return err
	}
	return nil
}

// All returns the full ledger, used by the status CLI.
func (l *RegistrationLedger) All(ctx context.Context) (map[string]map[string]Record, error) {
	payload, err := l.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	return decodeRegistrations(payload)
}
