// Package watcher is the event evaluation, deduplication, and registration
// decision pipeline. One Run is one poll of one source: fetch, normalize,
// then a strictly sequential pass over every opportunity applying
// filter -> alert dedup gate -> alert -> registration decision ->
// ledger gate -> claim -> ledger write. All cross-run memory lives in the
// two persisted ledgers, so a killed run is always safe to re-invoke.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"seatwatch-backend/lib/timezone"
	"seatwatch-backend/services/notify"
	"seatwatch-backend/services/watcher/ledger"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/watcher")

type Fetcher interface {
	Fetch(ctx context.Context, src Source) ([]Opportunity, error)
}

// ClaimRequest is the single outbound claim the executor performs.
type ClaimRequest struct {
	OpportunityID    string
	VariantCode      string
	Claimant         Claimant
	LocationID       string
	ParticipantCount int
	DryRun           bool
}

// ClaimResult is the explicit outcome of one attempt. Failure detail
// carries the truncated upstream response or the transport error text.
type ClaimResult struct {
	Success bool
	Detail  string
}

type Registrar interface {
	Register(ctx context.Context, req ClaimRequest) ClaimResult
}

// Service carries every collaborator the pipeline touches. Construct one
// per process and pass it around, nothing here is package-global.
type Service struct {
	Fetchers      map[string]Fetcher
	Notifier      notify.Notifier
	Alerts        *ledger.AlertLedger
	Registrations *ledger.RegistrationLedger
	Registrar     Registrar
}

// Run polls one source and walks its opportunities in listing order.
// Fetch-level failures abort the whole source, per-opportunity failures
// abort only that opportunity. A panic anywhere is caught, alerted, and
// returned as an error so the scheduler never dies.
func (s *Service) Run(ctx context.Context, src Source) (err error) {
	ctx, span := tracer.Start(ctx, "Run")
	defer span.End()
	span.SetAttributes(attribute.String("source", src.ID))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("run panicked: %v", r)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			slog.ErrorContext(ctx, "unexpected panic during run",
				"source", src.ID, "panic", r)
			s.sendErrorAlert(ctx, src, "Unexpected error", fmt.Sprint(r))
		}
	}()

	fetcher, ok := s.Fetchers[src.Kind]
	if !ok {
		err := fmt.Errorf("no fetcher registered for source kind %q", src.Kind)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	slog.InfoContext(ctx, "polling source", "source", src.ID, "kind", src.Kind)
	opportunities, err := fetcher.Fetch(ctx, src)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing fetch failed")
		s.reportFetchError(ctx, src, err)
		return err
	}
	slog.InfoContext(ctx, "listing fetched", "source", src.ID, "count", len(opportunities))

	for _, o := range opportunities {
		if perr := s.process(ctx, src, o); perr != nil {
			slog.ErrorContext(ctx, "failed to process opportunity",
				"source", src.ID,
				"opportunity_id", o.OpportunityID,
				"err", perr,
			)
		}
	}
	return nil
}

func (s *Service) process(ctx context.Context, src Source, o Opportunity) error {
	ctx, span := tracer.Start(ctx, "process")
	defer span.End()
	span.SetAttributes(
		attribute.String("opportunity_id", o.OpportunityID),
		attribute.String("variant_code", o.VariantCode),
	)

	slog.InfoContext(ctx, "found opportunity",
		"title", o.Title,
		"variant_code", o.VariantCode,
		"seats_remaining", o.SeatsRemaining,
		"status", o.Status,
	)

	if ok, reason := IsEligible(o, src); !ok {
		slog.InfoContext(ctx, "skipping opportunity", "title", o.Title, "reason", reason)
		return nil
	}

	today := timezone.Today()
	should, err := s.Alerts.ShouldAlert(ctx, src.ID, today)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert ledger read failed")
		return err
	}
	if !should {
		slog.InfoContext(ctx, "alert already sent today", "source", src.ID)
		return nil
	}

	slog.InfoContext(ctx, "sending new alert", "source", src.ID, "title", o.Title)
	link := src.DetailLink(o.VariantCode)
	msg := fmt.Sprintf(
		"*<%s|%s>* starts on *%s* is open for registration: %s",
		src.PageLink, o.Title, o.StartDisplay(), src.PageLink,
	)
	if err := s.Notifier.Send(ctx, msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert delivery failed")
		return err
	}
	if err := s.Notifier.SendUrgent(ctx, notify.UrgentAlert{
		Title:          o.Title,
		Date:           o.StartDisplay(),
		OpportunityID:  o.OpportunityID,
		SeatsRemaining: o.SeatsRemaining,
		Link:           link,
	}); err != nil {
		// the plain alert already went out, do not lose the dedup write
		slog.ErrorContext(ctx, "urgent alert delivery failed", "err", err)
	}
	if err := s.Alerts.RecordAlert(ctx, src.ID, today); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "alert ledger write failed")
		return err
	}

	if src.AutoClaim == nil {
		return nil
	}
	return s.claim(ctx, src, o)
}

func (s *Service) claim(ctx context.Context, src Source, o Opportunity) error {
	ctx, span := tracer.Start(ctx, "claim")
	defer span.End()

	policy := *src.AutoClaim
	ok, reason := ShouldRegister(policy, o.VariantCode, o.StartRaw, o.SeatsTotal, o.SeatsRemaining)
	slog.InfoContext(ctx, "registration decision",
		"variant_code", o.VariantCode,
		"eligible", ok,
		"reason", reason,
	)
	if !ok {
		return nil
	}

	registered, err := s.Registrations.IsRegistered(ctx, src.ID, o.OpportunityID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration ledger read failed")
		return err
	}
	if registered {
		slog.InfoContext(ctx, "already registered, skipping claim",
			"source", src.ID, "opportunity_id", o.OpportunityID)
		return nil
	}

	announcement := fmt.Sprintf(
		"Attempting to register for workshop:\n• Event Code: *%s*\n• Title: *%s*\n• Date: *%s*\n• Seats Left: *%d*",
		o.VariantCode, o.Title, o.StartDisplay(), o.SeatsRemaining,
	)
	if err := s.Notifier.Send(ctx, announcement); err != nil {
		slog.ErrorContext(ctx, "failed to announce claim attempt", "err", err)
	}

	result := s.Registrar.Register(ctx, ClaimRequest{
		OpportunityID:    o.OpportunityID,
		VariantCode:      o.VariantCode,
		Claimant:         policy.Claimant,
		LocationID:       src.LocationID,
		ParticipantCount: policy.ParticipantCount,
		DryRun:           policy.DryRun,
	})

	record := ledger.Record{
		VariantCode: o.VariantCode,
		Title:       o.Title,
		EventDate:   o.StartRaw,
		RecordedAt:  timezone.Now().Format(time.RFC3339),
		// a dry run proves the request shape, not the registration,
		// so it stays retryable
		IsRegistered: result.Success && !policy.DryRun,
	}
	if err := s.Registrations.SaveRecord(ctx, src.ID, o.OpportunityID, record); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration ledger write failed")
		return err
	}

	var summary string
	if result.Success {
		summary = fmt.Sprintf(
			"✅ Successfully registered:\n• Event: *%s*\n• Code: *%s*\n• Date: *%s*\n• Link: %s",
			o.Title, o.VariantCode, o.StartDisplay(), src.DetailLink(o.VariantCode),
		)
	} else {
		summary = fmt.Sprintf(
			"❌ Registration failed for:\n• Event: *%s*\n• Code: *%s*\n• Error: %s",
			o.Title, o.VariantCode, result.Detail,
		)
	}
	if err := s.Notifier.Send(ctx, summary); err != nil {
		slog.ErrorContext(ctx, "failed to send claim summary", "err", err)
	}
	return nil
}

func (s *Service) reportFetchError(ctx context.Context, src Source, err error) {
	var bad *BadStatusError
	var decode *DecodeError
	var malformed *MalformedPayloadError
	var transport *TransportError

	var message, details string
	switch {
	case errors.As(err, &bad):
		message = "listing returned a non-2xx status"
		details = fmt.Sprintf("Status Code: %d\nResponse: %s", bad.Code, bad.Body)
	case errors.As(err, &decode):
		message = "failed to decode listing payload"
		details = fmt.Sprintf("Error: %s\nResponse: %s", decode.Err, decode.Excerpt)
	case errors.As(err, &malformed):
		message = "listing payload missing expected key"
		details = err.Error()
	case errors.Is(err, ErrEmptyResponse):
		message = "received empty response from listing"
		details = fmt.Sprintf("Source: %s", src.ID)
	case errors.As(err, &transport):
		message = "listing request failed"
		details = err.Error()
	default:
		message = "unexpected error during fetch"
		details = err.Error()
	}

	slog.ErrorContext(ctx, "listing fetch failed",
		"source", src.ID, "message", message, "err", err)
	s.sendErrorAlert(ctx, src, message, details)
}

func (s *Service) sendErrorAlert(ctx context.Context, src Source, message, details string) {
	err := s.Notifier.SendError(ctx, notify.ErrorAlert{
		Service: src.DisplayName(),
		Message: message,
		Details: details,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to deliver error alert", "err", err)
	}
}
