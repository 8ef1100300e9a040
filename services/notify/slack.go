package notify

import (
	"context"
	"fmt"
	"time"

	"seatwatch-backend/lib/telemetry"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/notify")

type SlackOptions struct {
	Token   string
	Channel string
	// BaseUrl overrides https://slack.com/api, used by tests
	BaseUrl string
}

type SlackNotifier struct {
	client  *resty.Client
	channel string

	// owner id is looked up once and reused, the channel owner is
	// mentioned in every plain alert so their phone buzzes
	ownerID string
}

func NewSlackNotifier(opts SlackOptions) *SlackNotifier {
	baseURL := opts.BaseUrl
	if baseURL == "" {
		baseURL = "https://slack.com/api"
	}

	client := resty.New()
	client.SetBaseURL(baseURL)
	client.SetAuthToken(opts.Token)
	client.SetTimeout(time.Second * 30)
	telemetry.InstrumentResty(client, "notify/slack")

	return &SlackNotifier{
		client:  client,
		channel: opts.Channel,
	}
}

type slackResponse struct {
	Ok    bool   `json:"ok"`
	Error string `json:"error"`
}

type slackUsersResponse struct {
	slackResponse
	Members []struct {
		ID      string `json:"id"`
		IsOwner bool   `json:"is_owner"`
	} `json:"members"`
}

func (s *SlackNotifier) ownerMention(ctx context.Context) string {
	if s.ownerID != "" {
		return fmt.Sprintf("<@%s>, ", s.ownerID)
	}

	var body slackUsersResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetResult(&body).
		Get("/users.list")
	if err != nil || !res.IsSuccess() || !body.Ok {
		return ""
	}
	for _, m := range body.Members {
		if m.IsOwner {
			s.ownerID = m.ID
			return fmt.Sprintf("<@%s>, ", m.ID)
		}
	}
	return ""
}

type slackBlock struct {
	Type string         `json:"type"`
	Text slackBlockText `json:"text"`
}

type slackBlockText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

func (s *SlackNotifier) postMessage(ctx context.Context, blocks []slackBlock) error {
	ctx, span := tracer.Start(ctx, "postMessage")
	defer span.End()

	var body slackResponse
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(map[string]any{
			"channel": s.channel,
			"blocks":  blocks,
		}).
		SetResult(&body).
		Post("/chat.postMessage")
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post slack message")
		return err
	}
	if !res.IsSuccess() {
		err := fmt.Errorf("slack returned status %d", res.StatusCode())
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if !body.Ok {
		err := fmt.Errorf("slack rejected message: %s", body.Error)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func mrkdwnSection(text string) slackBlock {
	return slackBlock{
		Type: "section",
		Text: slackBlockText{Type: "mrkdwn", Text: text},
	}
}

func (s *SlackNotifier) Send(ctx context.Context, text string) error {
	ctx, span := tracer.Start(ctx, "Send")
	defer span.End()

	return s.postMessage(ctx, []slackBlock{
		mrkdwnSection(s.ownerMention(ctx) + text),
	})
}

func (s *SlackNotifier) SendUrgent(ctx context.Context, alert UrgentAlert) error {
	ctx, span := tracer.Start(ctx, "SendUrgent")
	defer span.End()

	text := fmt.Sprintf(
		":rotating_light: *%s*\n• Date: *%s*\n• Event: `%s`\n• Seats left: *%d*\n<%s|Register now>",
		alert.Title,
		alert.Date,
		alert.OpportunityID,
		alert.SeatsRemaining,
		alert.Link,
	)
	return s.postMessage(ctx, []slackBlock{
		mrkdwnSection(s.ownerMention(ctx) + text),
	})
}

func (s *SlackNotifier) SendError(ctx context.Context, alert ErrorAlert) error {
	ctx, span := tracer.Start(ctx, "SendError")
	defer span.End()

	text := fmt.Sprintf(
		"*%s*\n%s\n```%s```",
		alert.Service,
		alert.Message,
		alert.Details,
	)
	return s.postMessage(ctx, []slackBlock{mrkdwnSection(text)})
}
