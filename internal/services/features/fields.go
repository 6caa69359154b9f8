package features

// Canonical feature field names. Trained model schemas reference these names;
// the assembler fails loudly when a schema names a field the joined table
// does not carry.
const (
	FieldOpen   = "open"
	FieldHigh   = "high"
	FieldLow    = "low"
	FieldClose  = "close"
	FieldVolume = "volume"

	FieldMA7  = "MA7"
	FieldMA30 = "MA30"
	FieldMA90 = "MA90"

	FieldPriceChange  = "price_change"
	FieldVolumeMA     = "volume_ma"
	FieldVolumeChange = "volume_change"

	FieldRSI        = "RSI"
	FieldMACD       = "MACD"
	FieldSignalLine = "Signal_Line"

	FieldBBMiddle = "BB_middle"
	FieldBBUpper  = "BB_upper"
	FieldBBLower  = "BB_lower"

	FieldVolatility = "volatility"

	FieldCrossClose  = "cross_close"
	FieldCrossChange = "cross_change"

	FieldHour           = "hour"
	FieldUSTradingHours = "is_us_trading_hours"
	FieldDayOfWeek      = "day_of_week"
	FieldIsWeekend      = "is_weekend"
	FieldMonth          = "month"

	FieldNewsSentiment = "news_sentiment"
	FieldNewsCount     = "news_count"
)

// BaseSchema is the full ordered field set the assembler produces. Horizon
// schemas loaded from model artifacts must be a subset of these names.
var BaseSchema = []string{
	FieldOpen, FieldHigh, FieldLow, FieldClose, FieldVolume,
	FieldMA7, FieldMA30, FieldMA90,
	FieldPriceChange, FieldVolumeMA, FieldVolumeChange,
	FieldRSI, FieldMACD, FieldSignalLine,
	FieldBBMiddle, FieldBBUpper, FieldBBLower,
	FieldVolatility,
	FieldCrossClose, FieldCrossChange,
	FieldHour, FieldUSTradingHours, FieldDayOfWeek, FieldIsWeekend, FieldMonth,
	FieldNewsSentiment, FieldNewsCount,
}
