package watcher

import (
	"fmt"
	"slices"
)

// IsEligible decides whether an opportunity is worth alerting on. Pure,
// short-circuiting, the reason is for the caller's logs.
func IsEligible(o Opportunity, src Source) (bool, string) {
	if o.SeatsRemaining == 0 {
		return false, "fully booked"
	}
	if len(src.Categories) > 0 && !slices.Contains(src.Categories, o.Category) {
		return false, fmt.Sprintf("category %q is not targeted", o.Category)
	}
	if o.Status != src.ActiveStatus {
		return false, fmt.Sprintf("status is %q, not %q", o.Status, src.ActiveStatus)
	}
	return true, "eligible"
}
