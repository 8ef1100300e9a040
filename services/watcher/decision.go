package watcher

import (
	"fmt"
	"strings"
)

// ShouldRegister decides whether an eligible, freshly-alerted opportunity
// should be auto-claimed. Pure function over the single snapshot given, no
// history dependency.
//
// The seats-taken floor is deliberate: the very first open seat is never
// claimed. A listing nobody has registered for yet may be a stale or
// placeholder entry, one other registrant is the liveness signal.
func ShouldRegister(policy AutoClaim, variantCode, startRaw string, seatsTotal, seatsRemaining int) (bool, string) {
	if !strings.HasPrefix(variantCode, policy.VariantPrefix) {
		return false, fmt.Sprintf(
			"variant %q does not start with %q",
			variantCode, policy.VariantPrefix,
		)
	}
	if !strings.Contains(startRaw, policy.StartTimeOfDay) {
		return false, fmt.Sprintf(
			"start time %q is not the %s session",
			startRaw, policy.StartTimeOfDay,
		)
	}
	seatsTaken := seatsTotal - seatsRemaining
	if seatsTaken < 1 {
		return false, "No one has registered yet, waiting for first registrant"
	}
	return true, fmt.Sprintf(
		"variant %q matches %q, starts at %s, %d seats taken",
		variantCode, policy.VariantPrefix, policy.StartTimeOfDay, seatsTaken,
	)
}
