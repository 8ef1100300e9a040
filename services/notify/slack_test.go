package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"seatwatch-backend/lib/testutil"

	"github.com/stretchr/testify/require"
)

type slackCall struct {
	path   string
	body   map[string]any
	blocks []map[string]any
}

func newFakeSlack(t *testing.T) (*httptest.Server, *[]slackCall) {
	var calls []slackCall
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		call := slackCall{path: r.URL.Path}
		switch r.URL.Path {
		case "/users.list":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"ok": true,
				"members": [
					{"id": "U0001", "is_owner": false},
					{"id": "U0002", "is_owner": true}
				]
			}`))
		case "/chat.postMessage":
			err := json.NewDecoder(r.Body).Decode(&call.body)
			require.NoError(t, err)
			rawBlocks, _ := json.Marshal(call.body["blocks"])
			json.Unmarshal(rawBlocks, &call.blocks)
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"ok": true}`))
		default:
			t.Fatalf("unexpected slack call: %s", r.URL.Path)
		}
		calls = append(calls, call)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func blockText(t *testing.T, call slackCall) string {
	require.NotEmpty(t, call.blocks)
	text, ok := call.blocks[0]["text"].(map[string]any)
	require.True(t, ok)
	out, _ := text["text"].(string)
	return out
}

func TestSlackNotifier(t *testing.T) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/notify",
	})
	defer cleanup()

	server, calls := newFakeSlack(t)
	notifier := NewSlackNotifier(SlackOptions{
		Token:   "xoxb-test",
		Channel: "C123",
		BaseUrl: server.URL,
	})

	ctx := context.Background()

	err := notifier.Send(ctx, "workshop is open")
	require.NoError(t, err)

	err = notifier.SendUrgent(ctx, UrgentAlert{
		Title:          "Build a Birdhouse",
		Date:           "Saturday, March 14, 2026 at 8:30 AM",
		OpportunityID:  "WS00037",
		SeatsRemaining: 19,
		Link:           "https://example.com/workshops/KW0005",
	})
	require.NoError(t, err)

	err = notifier.SendError(ctx, ErrorAlert{
		Service: "Home Depot API",
		Message: "listing fetch failed",
		Details: "status 500",
	})
	require.NoError(t, err)

	var posts []slackCall
	for _, c := range *calls {
		if c.path == "/chat.postMessage" {
			posts = append(posts, c)
		}
	}
	require.Len(t, posts, 3)

	// owner mention prefixes the plain alert
	require.Contains(t, blockText(t, posts[0]), "<@U0002>")
	require.Contains(t, blockText(t, posts[0]), "workshop is open")

	urgent := blockText(t, posts[1])
	require.Contains(t, urgent, "Build a Birdhouse")
	require.Contains(t, urgent, "WS00037")
	require.Contains(t, urgent, "Register now")

	errText := blockText(t, posts[2])
	require.Contains(t, errText, "Home Depot API")
	require.Contains(t, errText, "status 500")
}

func TestSlackNotifierRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ok": false, "error": "channel_not_found"}`))
	}))
	defer server.Close()

	notifier := NewSlackNotifier(SlackOptions{
		Token:   "xoxb-test",
		Channel: "C404",
		BaseUrl: server.URL,
	})

	err := notifier.SendError(context.Background(), ErrorAlert{
		Service: "test",
		Message: "msg",
	})
	require.Error(t, err)
	require.Contains(t, err.Error(), "channel_not_found")
}
