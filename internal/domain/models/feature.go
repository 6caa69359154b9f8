package models

import "time"

// FeatureRow is one fully joined per-timestamp row of the feature table:
// candle fields, indicators, cross-asset fields, time features and the
// broadcast news signal, keyed by field name.
type FeatureRow struct {
	Timestamp time.Time
	Values    map[string]float64
}

// FeatureSnapshot is the request-scoped feature table. It is built exactly
// once per incoming request and shared read-only by every horizon's inference,
// so all horizons of one logical request see the same candles, the same
// cross-asset alignment and the same news summary.
//
// Degraded records auxiliary signals that fell back to their neutral default
// (signal name -> reason), so a caller can tell a degraded neutral reading
// from a genuinely neutral market.
type FeatureSnapshot struct {
	Rows         []FeatureRow
	CurrentPrice float64
	News         NewsSummary
	Degraded     map[string]string
	BuiltAt      time.Time
}

// Latest returns the most recent complete row.
func (s *FeatureSnapshot) Latest() (FeatureRow, bool) {
	if len(s.Rows) == 0 {
		return FeatureRow{}, false
	}
	return s.Rows[len(s.Rows)-1], true
}
