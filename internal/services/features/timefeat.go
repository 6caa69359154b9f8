package features

import "time"

// TimeFeatures derives the calendar fields for one UTC timestamp.
// DayOfWeek is Monday=0..Sunday=6; the US trading session (NYSE regular
// hours in UTC) spans 23:00..23:59 and 00:00..05:59.
func TimeFeatures(ts time.Time) (hour, usSession, dayOfWeek, weekend, month float64) {
	ts = ts.UTC()
	h := ts.Hour()
	hour = float64(h)
	if h >= 23 || h < 6 {
		usSession = 1
	}
	dow := (int(ts.Weekday()) + 6) % 7
	dayOfWeek = float64(dow)
	if dow >= 5 {
		weekend = 1
	}
	month = float64(int(ts.Month()))
	return
}
