package watcher

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testPolicy() AutoClaim {
	return AutoClaim{
		VariantPrefix:  "KW",
		StartTimeOfDay: "08:30",
		Claimant: Claimant{
			FirstName: "En",
			LastName:  "Zhou",
			Email:     "claimant@example.com",
		},
		ParticipantCount: 2,
	}
}

func TestShouldRegister(t *testing.T) {
	policy := testPolicy()

	cases := []struct {
		name           string
		variantCode    string
		startRaw       string
		seatsTotal     int
		seatsRemaining int
		want           bool
		reason         string
	}{
		{
			name:           "matching morning session with registrants",
			variantCode:    "KW0005",
			startRaw:       "2026-03-14T08:30:00-04:00",
			seatsTotal:     96,
			seatsRemaining: 19,
			want:           true,
		},
		{
			name:           "wrong variant prefix",
			variantCode:    "WW0005",
			startRaw:       "2026-03-14T08:30:00-04:00",
			seatsTotal:     96,
			seatsRemaining: 19,
			want:           false,
			reason:         `does not start with "KW"`,
		},
		{
			name:           "afternoon session",
			variantCode:    "KW0005",
			startRaw:       "2026-03-14T13:00:00-04:00",
			seatsTotal:     96,
			seatsRemaining: 19,
			want:           false,
			reason:         "is not the 08:30 session",
		},
		{
			name:           "nobody registered yet",
			variantCode:    "KW0005",
			startRaw:       "2026-03-14T08:30:00-04:00",
			seatsTotal:     96,
			seatsRemaining: 96,
			want:           false,
			reason:         "No one has registered yet",
		},
		{
			name:           "exactly one registrant is enough",
			variantCode:    "KW0005",
			startRaw:       "2026-03-14T08:30:00-04:00",
			seatsTotal:     96,
			seatsRemaining: 95,
			want:           true,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, reason := ShouldRegister(
				policy, c.variantCode, c.startRaw, c.seatsTotal, c.seatsRemaining,
			)
			require.Equal(t, c.want, got, reason)
			if c.reason != "" {
				require.Contains(t, reason, c.reason)
			}
		})
	}
}
