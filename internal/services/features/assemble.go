package features

import (
	"math"
	"time"

	"CoinCast/internal/domain/models"
)

// AssembleRows joins candles, indicator rows, aligned cross-asset columns,
// time features and the broadcast news signal into complete feature rows.
// The serving path broadcasts the current news summary onto every row.
func AssembleRows(series []models.Candle, ind []models.IndicatorRow, crossClose, crossChange []float64, news models.NewsSummary) []models.FeatureRow {
	return AssembleRowsWindowed(series, ind, crossClose, crossChange, news, time.Time{})
}

// AssembleRowsWindowed is the historical-collection variant: rows at or
// before sentimentFrom carry the neutral news signal (0.0, count 0), rows
// after it carry the live summary. A zero sentimentFrom broadcasts the
// summary everywhere. Any row still holding a NaN after the join is dropped
// (dropna policy).
func AssembleRowsWindowed(series []models.Candle, ind []models.IndicatorRow, crossClose, crossChange []float64, news models.NewsSummary, sentimentFrom time.Time) []models.FeatureRow {
	idx := make(map[int64]int, len(series))
	for i, c := range series {
		idx[c.OpenTime.Unix()] = i
	}

	rows := make([]models.FeatureRow, 0, len(ind))
	for _, r := range ind {
		i, ok := idx[r.Timestamp.Unix()]
		if !ok {
			continue
		}
		c := series[i]
		hour, us, dow, weekend, month := TimeFeatures(c.OpenTime)

		sentiment, count := news.SentimentScore, float64(news.NewsCount)
		if !sentimentFrom.IsZero() && !c.OpenTime.After(sentimentFrom) {
			sentiment, count = 0, 0
		}

		v := map[string]float64{
			FieldOpen:   c.Open,
			FieldHigh:   c.High,
			FieldLow:    c.Low,
			FieldClose:  c.Close,
			FieldVolume: c.Volume,

			FieldMA7:  r.MA7,
			FieldMA30: r.MA30,
			FieldMA90: r.MA90,

			FieldPriceChange:  r.PriceChange,
			FieldVolumeMA:     r.VolumeMA,
			FieldVolumeChange: r.VolumeChange,

			FieldRSI:        r.RSI,
			FieldMACD:       r.MACD,
			FieldSignalLine: r.SignalLine,

			FieldBBMiddle: r.BBMiddle,
			FieldBBUpper:  r.BBUpper,
			FieldBBLower:  r.BBLower,

			FieldVolatility: r.Volatility,

			FieldCrossClose:  crossClose[i],
			FieldCrossChange: crossChange[i],

			FieldHour:           hour,
			FieldUSTradingHours: us,
			FieldDayOfWeek:      dow,
			FieldIsWeekend:      weekend,
			FieldMonth:          month,

			FieldNewsSentiment: sentiment,
			FieldNewsCount:     count,
		}

		if rowHasNaN(v) {
			continue
		}
		rows = append(rows, models.FeatureRow{Timestamp: c.OpenTime, Values: v})
	}
	return rows
}

// SelectVector extracts the fields named by a horizon's schema, in exact
// schema order. A schema field absent from the row is a SchemaMismatchError:
// silent reordering or substitution would make the model's output meaningless.
func SelectVector(row models.FeatureRow, schema []string, horizon int) ([]float64, error) {
	out := make([]float64, len(schema))
	for i, name := range schema {
		v, ok := row.Values[name]
		if !ok {
			return nil, &models.SchemaMismatchError{Horizon: horizon, Field: name}
		}
		out[i] = v
	}
	return out, nil
}

// BuildTargets pairs each feature row with its training target: the close
// price `horizon` rows into the future. Rows whose shifted target falls past
// the end of the table are dropped; nothing is extrapolated. The target is
// the only forward-looking value in the matrix.
func BuildTargets(rows []models.FeatureRow, horizon int) ([]models.FeatureRow, []float64) {
	if horizon <= 0 || len(rows) <= horizon {
		return nil, nil
	}
	n := len(rows) - horizon
	targets := make([]float64, n)
	for i := 0; i < n; i++ {
		targets[i] = rows[i+horizon].Values[FieldClose]
	}
	return rows[:n], targets
}

func rowHasNaN(v map[string]float64) bool {
	for _, x := range v {
		if math.IsNaN(x) {
			return true
		}
	}
	return false
}
