// Package registrar performs the automated claim against the upstream
// signup endpoint. One attempt per invocation, no retries, every terminal
// outcome is escalated to the notifier as an audit record.
package registrar

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"seatwatch-backend/lib/telemetry"
	"seatwatch-backend/services/notify"
	"seatwatch-backend/services/watcher"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/registrar")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/119.0"

const escalationService = "Workshop Registration"

type Registrar struct {
	client   *resty.Client
	notifier notify.Notifier
}

func New(baseURL string, notifier notify.Notifier) *Registrar {
	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("content-type", "application/json")
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "registrar/http")

	return &Registrar{
		client:   client,
		notifier: notifier,
	}
}

type signupBody struct {
	Customer struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
	} `json:"customer"`
	VariantCode       string   `json:"variantCode"`
	LocationID        string   `json:"locationId"`
	ParticipantCount  int      `json:"participantCount"`
	GuestParticipants []string `json:"guestParticipants"`
	Lang              string   `json:"lang"`
}

func buildSignupBody(req watcher.ClaimRequest) signupBody {
	var body signupBody
	body.Customer.FirstName = req.Claimant.FirstName
	body.Customer.LastName = req.Claimant.LastName
	body.Customer.Email = req.Claimant.Email
	body.VariantCode = req.VariantCode
	body.LocationID = req.LocationID
	body.ParticipantCount = req.ParticipantCount
	body.GuestParticipants = []string{}
	body.Lang = "en"
	return body
}

func signupPath(req watcher.ClaimRequest) string {
	return fmt.Sprintf(
		"/claims/%s/variants/%s/signups?lang=en",
		req.OpportunityID,
		req.VariantCode,
	)
}

// Register makes a single claim attempt. The result carries the upstream
// response (truncated) or the transport error text, the error return is
// reserved for the escalation transport itself failing.
func (r *Registrar) Register(ctx context.Context, req watcher.ClaimRequest) watcher.ClaimResult {
	ctx, span := tracer.Start(ctx, "Register")
	defer span.End()

	span.SetAttributes(
		attribute.String("opportunity_id", req.OpportunityID),
		attribute.String("variant_code", req.VariantCode),
		attribute.Bool("dry_run", req.DryRun),
	)

	body := buildSignupBody(req)
	path := signupPath(req)

	slog.Info(
		"attempting registration",
		"opportunity_id", req.OpportunityID,
		"variant_code", req.VariantCode,
		"participants", req.ParticipantCount,
		"dry_run", req.DryRun,
	)

	if req.DryRun {
		wouldSend, _ := json.Marshal(map[string]any{
			"dry_run":    true,
			"would_send": map[string]any{"path": path, "payload": body},
		})
		detail := string(wouldSend)
		slog.Info("dry run, request not sent", "detail", detail)
		r.escalate(ctx, fmt.Sprintf(
			"Dry run for %s, request not sent", req.VariantCode,
		), detail)
		return watcher.ClaimResult{Success: true, Detail: detail}
	}

	res, err := r.client.R().
		SetContext(ctx).
		SetBody(body).
		Post(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "registration request failed")
		r.escalate(ctx, fmt.Sprintf(
			"❌ Registration request error for %s", req.VariantCode,
		), fmt.Sprintf("Error: %s\nPath: %s", err, path))
		return watcher.ClaimResult{Success: false, Detail: err.Error()}
	}

	if !res.IsSuccess() {
		excerpt := watcher.Truncate(res.String(), 500)
		err := fmt.Errorf("registration failed with status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		slog.Error("registration rejected", "status", res.StatusCode(), "body", excerpt)
		r.escalate(ctx, fmt.Sprintf(
			"❌ Registration failed for %s", req.VariantCode,
		), fmt.Sprintf("Status: %d\nResponse: %s", res.StatusCode(), excerpt))
		return watcher.ClaimResult{Success: false, Detail: excerpt}
	}

	slog.Info("registration succeeded", "variant_code", req.VariantCode)
	r.escalate(ctx, fmt.Sprintf(
		"✅ Registration successful for %s", req.VariantCode,
	), fmt.Sprintf(
		"Name: %s %s\nEmail: %s\nLocation: %s\nParticipants: %d",
		req.Claimant.FirstName, req.Claimant.LastName,
		req.Claimant.Email, req.LocationID, req.ParticipantCount,
	))
	return watcher.ClaimResult{Success: true, Detail: res.String()}
}

func (r *Registrar) escalate(ctx context.Context, message, details string) {
	err := r.notifier.SendError(ctx, notify.ErrorAlert{
		Service: escalationService,
		Message: message,
		Details: details,
	})
	if err != nil {
		slog.Error("failed to escalate registration outcome", "err", err)
	}
}
