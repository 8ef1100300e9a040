// Package homedepot fetches the retail workshop listing API and
// normalizes it into opportunity records.
package homedepot

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"seatwatch-backend/lib/telemetry"
	"seatwatch-backend/services/watcher"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/homedepot")

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10.15; rv:109.0) Gecko/20100101 Firefox/119.0"

// listingKey is the array field the listing payload must carry. Its
// absence (while the payload still parses) is how the upstream signals
// a contract change rather than an empty schedule.
const listingKey = "workshopEventWsDTO"

type Client struct {
	http *resty.Client
}

type ClientOptions struct {
	// BaseUrl e.g. https://www.homedepot.ca/api/workshopsvc/v1
	BaseUrl string
}

func NewClient(opts ClientOptions) *Client {
	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", userAgent)
	client.SetHeader("accept", "application/json, text/plain, */*")
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "scrapers/homedepot/http")

	return &Client{http: client}
}

// Fetch pulls the full workshop schedule for one store and returns it
// normalized. Implements the watcher's fetcher contract.
func (c *Client) Fetch(ctx context.Context, src watcher.Source) ([]watcher.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()

	span.SetAttributes(attribute.String("store", src.LocationID))

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("storeId", src.LocationID).
		SetQueryParam("lang", "en").
		Get("/workshops/all")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing fetch failed")
		return nil, &watcher.TransportError{Op: "fetch workshop listing", Err: err}
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

	body := res.String()
	if strings.TrimSpace(body) == "" {
		span.SetStatus(codes.Error, "empty response")
		return nil, watcher.ErrEmptyResponse
	}

	return Normalize(ctx, src, []byte(body))
}

// Normalize maps a raw listing payload into opportunity records, in
// listing order. An empty listing array is valid and yields zero records.
func Normalize(ctx context.Context, src watcher.Source, payload []byte) ([]watcher.Opportunity, error) {
	ctx, span := tracer.Start(ctx, "Normalize")
	defer span.End()

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payload is not valid json")
		return nil, &watcher.DecodeError{
			Excerpt: watcher.Truncate(string(payload), 500),
			Err:     err,
		}
	}

	rawEvents, ok := fields[listingKey]
	if !ok {
		keys := make([]string, 0, len(fields))
		for k := range fields {
			keys = append(keys, k)
		}
		err := &watcher.MalformedPayloadError{Missing: listingKey, Keys: keys}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var events []workshopEventDTO
	if err := json.Unmarshal(rawEvents, &events); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing array has unexpected shape")
		return nil, &watcher.DecodeError{
			Excerpt: watcher.Truncate(string(rawEvents), 500),
			Err:     err,
		}
	}

	opportunities := make([]watcher.Opportunity, 0, len(events))
	for _, ev := range events {
		opportunities = append(opportunities, ev.toOpportunity(ctx, src.ID))
	}
	span.SetAttributes(attribute.Int("count", len(opportunities)))
	return opportunities, nil
}
