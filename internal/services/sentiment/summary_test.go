package sentiment

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"CoinCast/internal/domain/models"
)

func TestSummarizeEmptyIsNeutralDefault(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.SentimentScore)
	assert.Zero(t, s.NewsCount)
	assert.Zero(t, s.PositiveCount)
	assert.Zero(t, s.NegativeCount)
	assert.Zero(t, s.NeutralCount)
	require.NotNil(t, s.TopNews)
	assert.Empty(t, s.TopNews)
}

func TestSummarizeCountsAndMean(t *testing.T) {
	items := []models.NewsItem{
		{Title: "a", Sentiment: 0.6, Label: "positive"},
		{Title: "b", Sentiment: -0.4, Label: "negative"},
		{Title: "c", Sentiment: 0.0, Label: "neutral"},
		{Title: "d", Sentiment: 0.2, Label: "positive"},
	}
	s := Summarize(items)

	assert.Equal(t, 4, s.NewsCount)
	assert.Equal(t, 2, s.PositiveCount)
	assert.Equal(t, 1, s.NegativeCount)
	assert.Equal(t, 1, s.NeutralCount)
	assert.InDelta(t, 0.1, s.SentimentScore, 1e-12)
}

func TestSummarizeTopNewsRanking(t *testing.T) {
	items := []models.NewsItem{
		{Title: "mild-1", Sentiment: 0.2, Label: "positive"},
		{Title: "strong-neg", Sentiment: -0.8, Label: "negative"},
		{Title: "mild-2", Sentiment: -0.2, Label: "negative"},
		{Title: "strong-pos", Sentiment: 0.9, Label: "positive"},
		{Title: "mild-3", Sentiment: 0.2, Label: "positive"},
		{Title: "flat", Sentiment: 0.0, Label: "neutral"},
	}
	s := Summarize(items)

	require.Len(t, s.TopNews, 5)
	titles := make([]string, len(s.TopNews))
	for i, it := range s.TopNews {
		titles[i] = it.Title
	}
	// Descending absolute score; equal magnitudes keep fetch order.
	assert.Equal(t, []string{"strong-pos", "strong-neg", "mild-1", "mild-2", "mild-3"}, titles)
}

func TestClassifyThresholds(t *testing.T) {
	assert.Equal(t, "positive", Classify(0.11))
	assert.Equal(t, "negative", Classify(-0.11))
	assert.Equal(t, "neutral", Classify(0.1))
	assert.Equal(t, "neutral", Classify(-0.1))
	assert.Equal(t, "neutral", Classify(0))
}

const feedTemplate = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>test</title>%s</channel></rss>`

func rssItem(title, desc string) string {
	return fmt.Sprintf(
		"<item><title>%s</title><description>%s</description><link>https://example.com/x</link></item>",
		title, desc,
	)
}

func feedServer(t *testing.T, items ...string) *httptest.Server {
	t.Helper()
	body := fmt.Sprintf(feedTemplate, func() string {
		out := ""
		for _, it := range items {
			out += it
		}
		return out
	}())
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAnalyzerFiltersAndScores(t *testing.T) {
	srv := feedServer(t,
		rssItem("Bitcoin surges to a wonderful new high", "Great rally continues"),
		rssItem("Ethereum gas fees drop", "Unrelated to the filter"),
		rssItem("BTC crashes in terrible selloff", "Awful losses mount"),
	)
	a := New(Config{Feeds: []string{srv.URL}}, nil)

	summary, err := a.Summary(context.Background())
	require.NoError(t, err)

	// The keyword filter drops the Ethereum headline.
	require.Equal(t, 2, summary.NewsCount)
	assert.Equal(t, 1, summary.PositiveCount)
	assert.Equal(t, 1, summary.NegativeCount)
	for _, it := range summary.TopNews {
		assert.NotEmpty(t, it.Label)
		assert.Equal(t, "https://example.com/x", it.URL)
	}
}

func TestAnalyzerCapsItemsPerFeed(t *testing.T) {
	items := make([]string, 6)
	for i := range items {
		items[i] = rssItem(fmt.Sprintf("bitcoin headline %d", i), "body")
	}
	srv := feedServer(t, items...)
	a := New(Config{Feeds: []string{srv.URL}, ItemsPerFeed: 4}, nil)

	summary, err := a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, summary.NewsCount)
}

func TestAnalyzerPartialFeedFailure(t *testing.T) {
	srv := feedServer(t, rssItem("bitcoin steady", "calm market"))
	a := New(Config{Feeds: []string{"http://127.0.0.1:1/feed", srv.URL}}, nil)

	summary, err := a.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.NewsCount)
}

func TestAnalyzerAllFeedsDown(t *testing.T) {
	a := New(Config{Feeds: []string{"http://127.0.0.1:1/a", "http://127.0.0.1:1/b"}}, nil)

	summary, err := a.Summary(context.Background())
	require.Error(t, err)
	assert.Zero(t, summary.NewsCount)
	require.NotNil(t, summary.TopNews)
	assert.Empty(t, summary.TopNews)
}
