package sentiment

import (
	"math"
	"sort"

	"CoinCast/internal/domain/models"
)

// topNewsLimit bounds the ranked headline list attached to a summary.
const topNewsLimit = 5

// Summarize aggregates scored items into a NewsSummary. The aggregate score
// is the arithmetic mean of the item scores (0.0 with zero items); TopNews is
// the items ordered by descending absolute sentiment, ties kept in fetch
// order (stable sort), truncated to five.
func Summarize(items []models.NewsItem) models.NewsSummary {
	s := models.NewsSummary{TopNews: []models.NewsItem{}}
	if len(items) == 0 {
		return s
	}

	sum := 0.0
	for _, it := range items {
		sum += it.Sentiment
		switch it.Label {
		case "positive":
			s.PositiveCount++
		case "negative":
			s.NegativeCount++
		default:
			s.NeutralCount++
		}
	}
	s.NewsCount = len(items)
	s.SentimentScore = sum / float64(len(items))

	ranked := make([]models.NewsItem, len(items))
	copy(ranked, items)
	sort.SliceStable(ranked, func(i, j int) bool {
		return math.Abs(ranked[i].Sentiment) > math.Abs(ranked[j].Sentiment)
	})
	if len(ranked) > topNewsLimit {
		ranked = ranked[:topNewsLimit]
	}
	s.TopNews = ranked
	return s
}
