package homedepot

import (
	"context"
	"log/slog"
	"regexp"
	"time"

	"seatwatch-backend/services/watcher"
)

type workshopEventDTO struct {
	WorkshopType   string `json:"workshopType"`
	WorkshopStatus string `json:"workshopStatus"`
	RemainingSeats int    `json:"remainingSeats"`
	AttendeeLimit  int    `json:"attendeeLimit"`
	EventDate      string `json:"eventDate"`
	Code           string `json:"code"`
	EventType      struct {
		WorkshopEventID string `json:"workshopEventId"`
		Name            string `json:"name"`
	} `json:"eventType"`
}

func (ev workshopEventDTO) toOpportunity(ctx context.Context, sourceID string) watcher.Opportunity {
	o := watcher.Opportunity{
		SourceID:       sourceID,
		OpportunityID:  ev.EventType.WorkshopEventID,
		VariantCode:    ev.Code,
		Title:          ev.EventType.Name,
		Category:       ev.WorkshopType,
		Status:         ev.WorkshopStatus,
		StartRaw:       ev.EventDate,
		SeatsTotal:     ev.AttendeeLimit,
		SeatsRemaining: ev.RemainingSeats,
	}
	if ev.EventDate == "" {
		return o
	}

	start, err := ParseEventTime(ev.EventDate)
	if err != nil {
		// non-fatal, the raw string is kept and remains usable for
		// the time-of-day substring check
		slog.WarnContext(ctx, "could not parse event date",
			"date", ev.EventDate, "err", err)
		return o
	}
	o.Start = start
	return o
}

// noColonOffset matches a trailing 4-digit numeric UTC offset without a
// colon, e.g. "-0400" or "+1030".
var noColonOffset = regexp.MustCompile(`([+-])(\d{2})(\d{2})$`)

// ParseEventTime normalizes the two timestamp shapes the workshop API
// emits into one comparable time:
//
//	2023-12-31T14:00:00Z          trailing Z, already RFC 3339
//	2025-08-09T08:30:00-0400      numeric offset missing its colon
//
// The no-colon offset is rewritten to "-04:00" form before parsing.
func ParseEventTime(raw string) (time.Time, error) {
	normalized := raw
	// only rewrite the offset portion, never the date part, so require
	// a full datetime prefix before the match
	if len(raw) > len("2006-01-02T15:04:05") {
		normalized = noColonOffset.ReplaceAllString(raw, "$1$2:$3")
	}
	return time.Parse(time.RFC3339, normalized)
}
