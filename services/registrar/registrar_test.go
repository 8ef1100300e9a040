package registrar

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"seatwatch-backend/lib/testutil"
	"seatwatch-backend/services/notify/notifytest"
	"seatwatch-backend/services/watcher"

	"github.com/stretchr/testify/require"
)

func testRequest() watcher.ClaimRequest {
	return watcher.ClaimRequest{
		OpportunityID: "WS00037",
		VariantCode:   "KW0005",
		Claimant: watcher.Claimant{
			FirstName: "En",
			LastName:  "Zhou",
			Email:     "claimant@example.com",
		},
		LocationID:       "7265",
		ParticipantCount: 2,
	}
}

func TestRegisterSuccess(t *testing.T) {
	_, cleanup := testutil.SetupService(t, testutil.ServiceParams{
		Name: "services/registrar",
	})
	defer cleanup()

	var gotPath string
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"confirmation": "ok"}`))
	}))
	defer server.Close()

	recorder := &notifytest.Recorder{}
	r := New(server.URL, recorder)

	res := r.Register(context.Background(), testRequest())
	require.True(t, res.Success)
	require.Contains(t, res.Detail, "confirmation")

	require.Equal(t, "/claims/WS00037/variants/KW0005/signups", gotPath)

	customer, ok := gotBody["customer"].(map[string]any)
	require.True(t, ok)
	require.Equal(t, "En", customer["firstName"])
	require.Equal(t, "KW0005", gotBody["variantCode"])
	require.Equal(t, "7265", gotBody["locationId"])
	require.Equal(t, float64(2), gotBody["participantCount"])
	require.Equal(t, []any{}, gotBody["guestParticipants"])
	require.Equal(t, "en", gotBody["lang"])

	// exactly one audit escalation
	require.Len(t, recorder.Errors, 1)
	require.Contains(t, recorder.Errors[0].Message, "successful")
}

func TestRegisterBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error": "event is full"}`))
	}))
	defer server.Close()

	recorder := &notifytest.Recorder{}
	r := New(server.URL, recorder)

	res := r.Register(context.Background(), testRequest())
	require.False(t, res.Success)
	require.Contains(t, res.Detail, "event is full")

	require.Len(t, recorder.Errors, 1)
	require.Contains(t, recorder.Errors[0].Message, "failed")
	require.Contains(t, recorder.Errors[0].Details, "409")
}

func TestRegisterTransportError(t *testing.T) {
	server := httptest.NewServer(nil)
	server.Close() // connection refused

	recorder := &notifytest.Recorder{}
	r := New(server.URL, recorder)

	res := r.Register(context.Background(), testRequest())
	require.False(t, res.Success)
	require.NotEmpty(t, res.Detail)
	require.Len(t, recorder.Errors, 1)
}

func TestRegisterDryRun(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	recorder := &notifytest.Recorder{}
	r := New(server.URL, recorder)

	req := testRequest()
	req.DryRun = true
	res := r.Register(context.Background(), req)

	require.True(t, res.Success)
	require.Contains(t, res.Detail, "dry_run")
	require.Contains(t, res.Detail, "KW0005")
	require.Zero(t, hits, "dry run must not hit the network")
	require.Len(t, recorder.Errors, 1)
}
