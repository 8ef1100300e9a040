// Package library scrapes the public library events guide, a DOM-only
// source with no JSON API. Alert-only: events carry no claimable variant.
package library

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"seatwatch-backend/lib/telemetry"
	"seatwatch-backend/lib/timezone"
	"seatwatch-backend/services/watcher"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/library")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/119.0"

// lookahead window for the events guide query
const lookaheadDays = 180

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	// BaseUrl e.g. https://saskatoonlibrary.ca
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.SetHeader("user-agent", userAgent)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/library/http")

	return &Client{http: client}
}

func (c *Client) Fetch(ctx context.Context, src watcher.Source) ([]watcher.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	span.SetAttributes(
		attribute.String("location", src.LocationID),
		attribute.String("keyword", src.Keyword),
	)

	now := timezone.Now()
	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"startDate": now.Format(time.DateOnly),
			"endDate":   now.AddDate(0, 0, lookaheadDays).Format(time.DateOnly),
			"ages":      "all",
			"locations": src.LocationID,
			"types":     "all",
			"keyword":   src.Keyword,
		}).
		Get("/events-guide/results/")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "events page fetch failed")
		return nil, &watcher.TransportError{Op: "fetch events page", Err: err}
	}
	if !res.IsSuccess() {
		err := &watcher.BadStatusError{
			Code: res.StatusCode(),
			Body: watcher.Truncate(res.String(), 500),
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	if strings.TrimSpace(res.String()) == "" {
		span.SetStatus(codes.Error, "empty response")
		return nil, watcher.ErrEmptyResponse
	}

	return Normalize(ctx, src, strings.NewReader(res.String()))
}

// Normalize extracts event cards from the results page. The page exposes
// no seat counts, so events are reported as having one open seat: the
// eligibility filter then keys off status and category alone, which is
// all this source can support.
func Normalize(ctx context.Context, src watcher.Source, page io.Reader) ([]watcher.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Normalize")
	defer span.End()

	doc, err := goquery.NewDocumentFromReader(page)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "events page is not parseable html")
		return nil, &watcher.DecodeError{Err: err}
	}

	cards := doc.Find("div.day-event-card")
	if cards.Length() == 0 && doc.Find(".events-guide, .event-results").Length() == 0 {
		err := &watcher.MalformedPayloadError{
			Missing: "div.day-event-card",
			Keys:    []string{"(no event card markup found)"},
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var opportunities []watcher.Opportunity
	cards.Each(func(i int, card *goquery.Selection) {
		title := strings.TrimSpace(card.Find("h3").First().Text())
		status := strings.TrimSpace(card.Find("div.card-reg").First().Text())
		dow := strings.TrimSpace(card.Find("span.event-dow").First().Text())
		date := strings.TrimSpace(card.Find("span.event-date").First().Text())
		month := strings.TrimSpace(card.Find("span.event-month").First().Text())

		startRaw := strings.TrimSpace(fmt.Sprintf("%s %s %s", dow, month, date))

		opportunities = append(opportunities, watcher.Opportunity{
			SourceID:      src.ID,
			OpportunityID: eventID(title, startRaw),
			Title:         title,
			Category:      "EVENT",
			Status:        status,
			StartRaw:      startRaw,
			// the page exposes no counts, presume one open seat
			SeatsTotal:     1,
			SeatsRemaining: 1,
		})
	})

	span.SetAttributes(attribute.Int("count", len(opportunities)))
	return opportunities, nil
}

// eventID derives a stable identifier for a card, the page itself has none.
func eventID(title, startRaw string) string {
	slug := strings.ToLower(title + " " + startRaw)
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)
	return strings.Trim(strings.Join(strings.FieldsFunc(slug, func(r rune) bool {
		return r == '-'
	}), "-"), "-")
}
