package timezone

import "time"

var Location *time.Location

func init() {
	var err error
	Location, err = time.LoadLocation("Europe/Dublin")
	if err != nil {
		panic(err)
	}
}

// force timezone to be Irish local time because the provider reports
// collection dates as bare calendar days in its own timezone, doing
// date math in server-local time can shift events across midnight
func Now() time.Time {
	return time.Now().In(Location)
}

// StartOfDay truncates a time down to midnight in the provider timezone.
func StartOfDay(t time.Time) time.Time {
	t = t.In(Location)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, Location)
}
