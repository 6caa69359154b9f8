package sentiment

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinCast/internal/domain/models"
	domsvc "CoinCast/internal/domain/service"
	applogger "CoinCast/pkg/logger"

	"github.com/jonreiter/govader"
	"github.com/mmcdole/gofeed"
)

// Classification thresholds on the VADER compound score.
const (
	positiveThreshold = 0.1
	negativeThreshold = -0.1
)

// Config holds the aggregator settings.
type Config struct {
	Feeds          []string
	Keywords       []string // case-insensitive title filter
	ItemsPerFeed   int
	InterFeedDelay time.Duration // politeness pause between feed fetches
	SummaryMaxLen  int
}

// Analyzer fetches candidate items from independent RSS feeds, scores each
// surviving item once with VADER, and aggregates them into a NewsSummary.
type Analyzer struct {
	cfg    Config
	parser *gofeed.Parser
	vader  *govader.SentimentIntensityAnalyzer
	logger *applogger.Logger
}

// New creates an Analyzer.
func New(cfg Config, logger *applogger.Logger) *Analyzer {
	if cfg.ItemsPerFeed <= 0 {
		cfg.ItemsPerFeed = 10
	}
	if cfg.SummaryMaxLen <= 0 {
		cfg.SummaryMaxLen = 200
	}
	if len(cfg.Keywords) == 0 {
		cfg.Keywords = []string{"bitcoin", "btc"}
	}
	return &Analyzer{
		cfg:    cfg,
		parser: gofeed.NewParser(),
		vader:  govader.NewSentimentIntensityAnalyzer(),
		logger: logger,
	}
}

// Summary fetches, scores and aggregates the currently retrievable items.
// A single feed failure is logged and skipped; the returned error is non-nil
// only when every feed was unreachable, in which case the caller should use
// the neutral default summary and mark the signal degraded.
func (a *Analyzer) Summary(ctx context.Context) (models.NewsSummary, error) {
	items, failed := a.fetch(ctx)
	if failed == len(a.cfg.Feeds) && len(items) == 0 {
		return models.NewsSummary{TopNews: []models.NewsItem{}}, fmt.Errorf("all %d news feeds unavailable", failed)
	}
	return Summarize(items), nil
}

// fetch pulls items from each feed independently, filters titles by keyword,
// caps items per feed and scores each accepted item exactly once.
func (a *Analyzer) fetch(ctx context.Context) ([]models.NewsItem, int) {
	var out []models.NewsItem
	failed := 0
	for i, url := range a.cfg.Feeds {
		if i > 0 && a.cfg.InterFeedDelay > 0 {
			select {
			case <-time.After(a.cfg.InterFeedDelay):
			case <-ctx.Done():
				return out, failed
			}
		}
		feed, err := a.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			failed++
			if a.logger != nil {
				a.logger.Warn("news feed fetch failed",
					applogger.String("feed", url),
					applogger.Error(err),
				)
			}
			continue
		}
		taken := 0
		for _, entry := range feed.Items {
			if taken >= a.cfg.ItemsPerFeed {
				break
			}
			taken++
			if entry == nil || !a.titleMatches(entry.Title) {
				continue
			}
			item := a.buildItem(entry)
			out = append(out, item)
		}
	}
	return out, failed
}

func (a *Analyzer) titleMatches(title string) bool {
	lower := strings.ToLower(title)
	for _, kw := range a.cfg.Keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

func (a *Analyzer) buildItem(entry *gofeed.Item) models.NewsItem {
	summary := entry.Description
	if len(summary) > a.cfg.SummaryMaxLen {
		summary = summary[:a.cfg.SummaryMaxLen]
	}
	var published time.Time
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed.UTC()
	}
	score := a.vader.PolarityScores(entry.Title + " " + summary).Compound
	return models.NewsItem{
		Title:       entry.Title,
		Summary:     summary,
		URL:         entry.Link,
		PublishedAt: published,
		Sentiment:   score,
		Label:       Classify(score),
	}
}

// Classify maps a compound score to its categorical label.
func Classify(score float64) string {
	switch {
	case score > positiveThreshold:
		return "positive"
	case score < negativeThreshold:
		return "negative"
	default:
		return "neutral"
	}
}

var _ domsvc.NewsSummarizer = (*Analyzer)(nil)
