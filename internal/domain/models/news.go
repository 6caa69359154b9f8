package models

import "time"

// NewsItem is a single scored headline. Sentiment is computed once when the
// item is ingested and never recomputed.
type NewsItem struct {
	Title       string    `json:"title"`
	Summary     string    `json:"summary"`
	URL         string    `json:"url"`
	PublishedAt time.Time `json:"published_at"`
	Sentiment   float64   `json:"sentiment"`
	Label       string    `json:"sentiment_label"` // "positive", "negative", "neutral"
}

// NewsSummary aggregates all scored items retrieved on one pipeline run.
// With zero retrievable items every field is its zero value (neutral default).
type NewsSummary struct {
	SentimentScore float64    `json:"sentiment_score"`
	NewsCount      int        `json:"news_count"`
	PositiveCount  int        `json:"positive_count"`
	NegativeCount  int        `json:"negative_count"`
	NeutralCount   int        `json:"neutral_count"`
	TopNews        []NewsItem `json:"top_news"`
}
