package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"seatwatch-backend/lib/testutil"
	"seatwatch-backend/services/watcher"

	"github.com/stretchr/testify/require"
)

const samplePage = `<html><body>
<div class="event-results">
	<div class="day-event-card">
		<h3>Code Club for Kids</h3>
		<div class="card-reg">Registration open</div>
		<span class="event-dow">Saturday</span>
		<span class="event-month">March</span>
		<span class="event-date">14</span>
	</div>
	<div class="day-event-card">
		<h3>Knitting Circle</h3>
		<div class="card-reg">Registration closed</div>
		<span class="event-dow">Sunday</span>
		<span class="event-month">March</span>
		<span class="event-date">15</span>
	</div>
</div>
</body></html>`

func src() watcher.Source {
	return watcher.Source{
		ID:           "library",
		Kind:         "library",
		LocationID:   "3090",
		Keyword:      "code+club",
		Categories:   []string{"EVENT"},
		ActiveStatus: "Registration open",
	}
}

func TestNormalize(t *testing.T) {
	opportunities, err := Normalize(context.Background(), src(), strings.NewReader(samplePage))
	require.NoError(t, err)
	require.Len(t, opportunities, 2)

	first := opportunities[0]
	require.Equal(t, "library", first.SourceID)
	require.Equal(t, "Code Club for Kids", first.Title)
	require.Equal(t, "Registration open", first.Status)
	require.Equal(t, "EVENT", first.Category)
	require.Contains(t, first.StartRaw, "Saturday")
	require.Contains(t, first.StartRaw, "March")
	require.NotEmpty(t, first.OpportunityID)
	require.Equal(t, 1, first.SeatsRemaining)

	// ids are stable across scrapes and distinct across events
	again, err := Normalize(context.Background(), src(), strings.NewReader(samplePage))
	require.NoError(t, err)
	require.Equal(t, first.OpportunityID, again[0].OpportunityID)
	require.NotEqual(t, opportunities[0].OpportunityID, opportunities[1].OpportunityID)

	// the closed event is left for the eligibility filter to reject
	eligible, _ := watcher.IsEligible(opportunities[1], src())
	require.False(t, eligible)
	eligible, _ = watcher.IsEligible(first, src())
	require.True(t, eligible)
}

func TestNormalizeNoCardMarkup(t *testing.T) {
	_, err := Normalize(context.Background(), src(), strings.NewReader("<html><body><p>404</p></body></html>"))

	var malformed *watcher.MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
}

func TestFetch(t *testing.T) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "scrapers/library",
	})
	defer cleanup()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/events-guide/results/", r.URL.Path)
		require.Equal(t, "3090", r.URL.Query().Get("locations"))
		require.Equal(t, "code+club", r.URL.Query().Get("keyword"))
		require.NotEmpty(t, r.URL.Query().Get("startDate"))
		w.Write([]byte(samplePage))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	opportunities, err := client.Fetch(context.Background(), src())
	require.NoError(t, err)
	require.Len(t, opportunities, 2)
}

func TestFetchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{BaseUrl: server.URL})
	_, err := client.Fetch(context.Background(), src())

	var bad *watcher.BadStatusError
	require.ErrorAs(t, err, &bad)
	require.Equal(t, 503, bad.Code)
}
