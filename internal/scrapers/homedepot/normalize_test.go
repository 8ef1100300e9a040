package homedepot

import (
	"context"
	"testing"
	"time"

	"seatwatch-backend/services/watcher"

	"github.com/stretchr/testify/require"
)

func TestParseEventTime(t *testing.T) {
	cases := []struct {
		name   string
		raw    string
		expect time.Time
		fails  bool
	}{
		{
			name:   "trailing z",
			raw:    "2023-12-31T14:00:00Z",
			expect: time.Date(2023, 12, 31, 14, 0, 0, 0, time.UTC),
		},
		{
			name:   "offset without colon",
			raw:    "2025-08-09T08:30:00-0400",
			expect: time.Date(2025, 8, 9, 8, 30, 0, 0, time.FixedZone("", -4*3600)),
		},
		{
			name:   "positive offset without colon",
			raw:    "2025-08-09T08:30:00+1030",
			expect: time.Date(2025, 8, 9, 8, 30, 0, 0, time.FixedZone("", 10*3600+30*60)),
		},
		{
			name:   "offset already has colon",
			raw:    "2025-08-09T08:30:00-04:00",
			expect: time.Date(2025, 8, 9, 8, 30, 0, 0, time.FixedZone("", -4*3600)),
		},
		{
			name:  "no offset at all",
			raw:   "2025-08-09T08:30:00",
			fails: true,
		},
		{
			name:  "not a timestamp",
			raw:   "Saturday morning",
			fails: true,
		},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			parsed, err := ParseEventTime(test.raw)
			if test.fails {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.True(t, parsed.Equal(test.expect), "got %s want %s", parsed, test.expect)
		})
	}
}

const samplePayload = `{
	"workshopEventWsDTO": [
		{
			"workshopType": "KID",
			"workshopStatus": "ACTIVE",
			"remainingSeats": 19,
			"attendeeLimit": 96,
			"eventDate": "2026-03-14T08:30:00-0400",
			"code": "KW0005",
			"eventType": {
				"workshopEventId": "WS00037",
				"name": "Build a Birdhouse"
			}
		},
		{
			"workshopType": "ADULT",
			"workshopStatus": "CLOSED",
			"remainingSeats": 0,
			"attendeeLimit": 24,
			"eventDate": "2026-03-15T10:00:00Z",
			"code": "AW0012",
			"eventType": {
				"workshopEventId": "WS00038",
				"name": "Tiling Basics"
			}
		}
	]
}`

func src() watcher.Source {
	return watcher.Source{
		ID:           "home_depot",
		Kind:         "homedepot",
		LocationID:   "7265",
		Categories:   []string{"KID"},
		ActiveStatus: "ACTIVE",
	}
}

func TestNormalize(t *testing.T) {
	opportunities, err := Normalize(context.Background(), src(), []byte(samplePayload))
	require.NoError(t, err)
	require.Len(t, opportunities, 2)

	first := opportunities[0]
	require.Equal(t, "home_depot", first.SourceID)
	require.Equal(t, "WS00037", first.OpportunityID)
	require.Equal(t, "KW0005", first.VariantCode)
	require.Equal(t, "Build a Birdhouse", first.Title)
	require.Equal(t, "KID", first.Category)
	require.Equal(t, "ACTIVE", first.Status)
	require.Equal(t, 96, first.SeatsTotal)
	require.Equal(t, 19, first.SeatsRemaining)
	require.Equal(t, 77, first.SeatsTaken())
	require.Equal(t, "2026-03-14T08:30:00-0400", first.StartRaw)
	require.False(t, first.Start.IsZero())
	require.Equal(t, 8, first.Start.Hour())

	second := opportunities[1]
	require.Equal(t, "WS00038", second.OpportunityID)
	require.Equal(t, 0, second.SeatsRemaining)
}

func TestNormalizeUnparseableDateIsKept(t *testing.T) {
	payload := `{"workshopEventWsDTO": [{
		"workshopType": "KID",
		"workshopStatus": "ACTIVE",
		"remainingSeats": 5,
		"attendeeLimit": 10,
		"eventDate": "next saturday",
		"code": "KW0009",
		"eventType": {"workshopEventId": "WS00040", "name": "Sanding"}
	}]}`

	opportunities, err := Normalize(context.Background(), src(), []byte(payload))
	require.NoError(t, err)
	require.Len(t, opportunities, 1)
	require.True(t, opportunities[0].Start.IsZero())
	require.Equal(t, "next saturday", opportunities[0].StartRaw)
	require.Equal(t, "next saturday", opportunities[0].StartDisplay())
}

func TestNormalizeEmptyListing(t *testing.T) {
	opportunities, err := Normalize(context.Background(), src(), []byte(`{"workshopEventWsDTO": []}`))
	require.NoError(t, err)
	require.Empty(t, opportunities)
}

func TestNormalizeMissingListingKey(t *testing.T) {
	_, err := Normalize(context.Background(), src(), []byte(`{"errors": [], "status": "maintenance"}`))

	var malformed *watcher.MalformedPayloadError
	require.ErrorAs(t, err, &malformed)
	require.Equal(t, "workshopEventWsDTO", malformed.Missing)
	require.ElementsMatch(t, []string{"errors", "status"}, malformed.Keys)
}

func TestNormalizeNotJson(t *testing.T) {
	_, err := Normalize(context.Background(), src(), []byte("<html>blocked</html>"))

	var decode *watcher.DecodeError
	require.ErrorAs(t, err, &decode)
	require.Contains(t, decode.Excerpt, "<html>")
}
