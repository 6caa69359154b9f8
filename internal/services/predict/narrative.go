package predict

import (
	"fmt"
	"math"
	"strings"

	"CoinCast/internal/domain/models"
	"CoinCast/internal/services/features"
)

// NarrativeInput carries everything the narrative is templated from. The
// generator is pure: same input, same text.
type NarrativeInput struct {
	Horizon        int
	CurrentPrice   float64
	PredictedPrice float64
	ChangePercent  float64
	Latest         models.FeatureRow
	Signals        models.Signals
	TopFactors     []models.TopFactor
	News           models.NewsSummary
}

// narrativeRule is one entry of a priority-ordered rule table: the first rule
// whose predicate holds supplies the text.
type narrativeRule struct {
	applies func(v float64) bool
	render  func(v float64) string
}

func evalRules(rules []narrativeRule, v float64) string {
	for _, r := range rules {
		if r.applies(v) {
			return r.render(v)
		}
	}
	return ""
}

var newsAssessmentRules = []narrativeRule{
	{func(s float64) bool { return s > 0.3 }, func(s float64) string {
		return fmt.Sprintf("strongly positive (+%.2f), adding clear upward pressure on the market", s)
	}},
	{func(s float64) bool { return s > 0.1 }, func(s float64) string {
		return fmt.Sprintf("positive (+%.2f), tilting market mood slightly upward", s)
	}},
	{func(s float64) bool { return s < -0.3 }, func(s float64) string {
		return fmt.Sprintf("strongly negative (%.2f), weighing heavily on market sentiment", s)
	}},
	{func(s float64) bool { return s < -0.1 }, func(s float64) string {
		return fmt.Sprintf("negative (%.2f), tilting market mood slightly downward", s)
	}},
	{func(float64) bool { return true }, func(s float64) string {
		return fmt.Sprintf("neutral (%.2f), with no clear directional pressure from the news flow", s)
	}},
}

var rsiRules = []narrativeRule{
	{func(v float64) bool { return v > 70 }, func(v float64) string {
		return fmt.Sprintf("RSI at %.1f is in overbought territory, so a short-term pullback is possible.", v)
	}},
	{func(v float64) bool { return v < 30 }, func(v float64) string {
		return fmt.Sprintf("RSI at %.1f is in oversold territory, which raises the odds of a rebound.", v)
	}},
	{func(float64) bool { return true }, func(v float64) string {
		return fmt.Sprintf("RSI at %.1f sits in the neutral band, pointing to a stable trend.", v)
	}},
}

var volatilityRules = []narrativeRule{
	{func(v float64) bool { return v > 2000 }, func(v float64) string {
		return fmt.Sprintf("high (%.0f)", v)
	}},
	{func(v float64) bool { return v > 1000 }, func(v float64) string {
		return fmt.Sprintf("moderate (%.0f)", v)
	}},
	{func(float64) bool { return true }, func(v float64) string {
		return fmt.Sprintf("low (%.0f)", v)
	}},
}

// Narrate renders the deterministic explanation text. Every sentence is
// driven by the categorical signals, the news summary or the top-ranked
// factor; no additional inference happens here.
func Narrate(in NarrativeInput) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Bitcoin is currently trading at $%s.\n\n", comma2(in.CurrentPrice))

	b.WriteString("Market environment: ")
	b.WriteString(crossAssetSection(in))
	b.WriteString(" ")
	b.WriteString(usMarketSection(in.Signals.USMarket))
	b.WriteString("\n\n")

	b.WriteString("News analysis: ")
	b.WriteString(newsSection(in.News))
	b.WriteString("\n\n")

	b.WriteString("Technical analysis: ")
	b.WriteString(evalRules(rsiRules, in.Latest.Values[features.FieldRSI]))
	b.WriteString(" ")
	b.WriteString(macdSection(in.Signals.MACD))
	fmt.Fprintf(&b, " Current volatility is %s.\n\n",
		evalRules(volatilityRules, in.Latest.Values[features.FieldVolatility]))

	b.WriteString("Model analysis: ")
	b.WriteString(modelSection(in))
	b.WriteString("\n\n")

	b.WriteString("Note: this forecast is the output of a statistical model trained on " +
		"historical prices and news sentiment. Actual prices can diverge sharply on " +
		"unexpected news or market events; treat it as one input among many.")

	return b.String()
}

func crossAssetSection(in NarrativeInput) string {
	level := in.Latest.Values[features.FieldCrossClose]
	changePct := in.Latest.Values[features.FieldCrossChange] * 100

	trend := "flat"
	if changePct > 0 {
		trend = "up"
	} else if changePct < 0 {
		trend = "down"
	}
	return fmt.Sprintf("The companion index stands at %s points, %s %.2f%% on the last reading, a %s signal for crypto.",
		comma0(level), trend, math.Abs(changePct), in.Signals.CrossAsset)
}

func usMarketSection(state string) string {
	if state == "open" {
		return "The US equity session is open, so more active trading is expected."
	}
	return "The US equity session is closed, a window of typically lower volatility."
}

func newsSection(news models.NewsSummary) string {
	s := fmt.Sprintf("Across %d recent Bitcoin-related articles, news sentiment is %s.",
		news.NewsCount, evalRules(newsAssessmentRules, news.SentimentScore))

	limit := 2
	if len(news.TopNews) < limit {
		limit = len(news.TopNews)
	}
	if limit == 0 {
		return s
	}
	var b strings.Builder
	b.WriteString(s)
	b.WriteString("\n\nTop headlines:")
	for i, item := range news.TopNews[:limit] {
		title := item.Title
		if len(title) > 100 {
			title = title[:100]
		}
		fmt.Fprintf(&b, "\n%d. [%s] %s", i+1, item.Label, title)
	}
	return b.String()
}

func macdSection(signal string) string {
	if signal == "uptrend" {
		return "MACD has crossed above its signal line, suggesting upward momentum."
	}
	return "MACD sits below its signal line, indicating downward pressure."
}

func modelSection(in NarrativeInput) string {
	direction := "fall"
	if in.ChangePercent > 0 {
		direction = "rise"
	}
	absDelta := math.Abs(in.PredictedPrice - in.CurrentPrice)

	factor := ""
	if len(in.TopFactors) > 0 {
		factor = fmt.Sprintf("The model weighs %s as the most important factor (%.1f%%). ",
			in.TopFactors[0].Indicator, in.TopFactors[0].Importance)
	}
	return fmt.Sprintf("%sBased on comparable historical conditions and current news sentiment, "+
		"the price is expected to %s about %.2f%% over the next %s to around $%s (+/- $%s).",
		factor, direction, math.Abs(in.ChangePercent), horizonText(in.Horizon),
		comma2(in.PredictedPrice), comma0(absDelta))
}

func horizonText(hours int) string {
	if hours == 1 {
		return "hour"
	}
	return fmt.Sprintf("%d hours", hours)
}

// comma2 formats with thousands separators and two decimals.
func comma2(v float64) string {
	return addThousands(fmt.Sprintf("%.2f", v))
}

// comma0 formats with thousands separators and no decimals.
func comma0(v float64) string {
	return addThousands(fmt.Sprintf("%.0f", v))
}

func addThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	intPart, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, frac = s[:i], s[i:]
	}
	var b strings.Builder
	for i, d := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(d)
	}
	out := b.String() + frac
	if neg {
		out = "-" + out
	}
	return out
}
