package watcher

import (
	"strings"
	"time"
)

// Opportunity is one listed claimable item from one poll of one source:
// a workshop session, a library event, a stock listing.
type Opportunity struct {
	SourceID      string
	OpportunityID string
	// VariantCode identifies the specific occurrence that can actually
	// be claimed, OpportunityID identifies the listing it belongs to.
	VariantCode string
	Title       string
	Category    string
	Status      string
	// StartRaw is the timestamp exactly as the upstream sent it.
	// Start is zero when StartRaw could not be parsed, in which case
	// the raw string is still usable for substring checks but not for
	// formatted display.
	StartRaw       string
	Start          time.Time
	SeatsTotal     int
	SeatsRemaining int
}

func (o Opportunity) SeatsTaken() int {
	return o.SeatsTotal - o.SeatsRemaining
}

// StartDisplay formats the start time for humans, falling back to the
// raw upstream string when parsing failed.
func (o Opportunity) StartDisplay() string {
	if o.Start.IsZero() {
		return o.StartRaw
	}
	return o.Start.Format("Monday, January 2, 2006 at 3:04 PM")
}

// Claimant is the identity a claim is made under.
type Claimant struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// AutoClaim configures automated registration for a source. Only sources
// carrying this block ever reach the claim executor.
type AutoClaim struct {
	// VariantPrefix gates claiming to one upstream category,
	// e.g. "KW" for kids workshops.
	VariantPrefix string `json:"variant_prefix"`
	// StartTimeOfDay is a substring the raw start timestamp must
	// contain, e.g. "08:30".
	StartTimeOfDay   string   `json:"start_time_of_day"`
	Claimant         Claimant `json:"claimant"`
	ParticipantCount int      `json:"participant_count"`
	DryRun           bool     `json:"dry_run"`
}

// Source is one monitored external listing, polled independently of others.
type Source struct {
	ID   string `json:"id"`
	Kind string `json:"kind"`
	// LocationID is the store or branch the listing is scoped to.
	LocationID string `json:"location_id"`
	// Keyword narrows keyword-searchable sources, ignored by the rest.
	Keyword string `json:"keyword"`
	// Categories an opportunity must fall in to be alert-worthy.
	Categories []string `json:"categories"`
	// ActiveStatus is the upstream lifecycle tag meaning "open".
	ActiveStatus string `json:"active_status"`
	// PageLink is the human-facing listing page used in alerts.
	PageLink string `json:"page_link"`
	// Name overrides the label used in error alerts, e.g. "Home Depot API".
	Name string `json:"name"`
	// DetailLinkTemplate builds a direct registration link, {variant}
	// and {location} are substituted. Falls back to PageLink.
	DetailLinkTemplate string     `json:"detail_link_template"`
	AutoClaim          *AutoClaim `json:"auto_claim"`
}

func (s Source) DisplayName() string {
	if s.Name != "" {
		return s.Name
	}
	return s.ID
}

func (s Source) DetailLink(variantCode string) string {
	if s.DetailLinkTemplate == "" {
		return s.PageLink
	}
	link := strings.ReplaceAll(s.DetailLinkTemplate, "{variant}", variantCode)
	return strings.ReplaceAll(link, "{location}", s.LocationID)
}
