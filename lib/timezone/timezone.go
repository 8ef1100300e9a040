package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("America/Toronto")
	if err != nil {
		panic(err)
	}
}

// force timezone to be eastern because the boxes this runs on
// drift between UTC and local time, which would shift the calendar
// date used by the alert dedup window.
func Now() time.Time {
	return time.Now().In(Location)
}

// Today returns the current calendar date as YYYY-MM-DD with no
// time component.
func Today() string {
	return Now().Format(time.DateOnly)
}
