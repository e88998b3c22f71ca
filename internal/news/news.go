// Package news fetches IMF press and blog headlines over RSS for the
// dashboard footer strip. Feeds are polled through a small rate limiter
// and results are cached for ten minutes; a failed feed is skipped, not
// surfaced as an error.
package news

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/macrovista/macrovista/internal/infra"
	"github.com/macrovista/macrovista/pkg/models"
)

// Feed represents one RSS feed configuration.
type Feed struct {
	Name    string
	RSSURL  string
	BaseURL string
}

// DefaultFeeds lists the IMF news feeds polled when no custom feeds are
// configured.
var DefaultFeeds = []Feed{
	{
		Name:    "IMF Press Releases",
		RSSURL:  "https://www.imf.org/en/News/RSS?language=eng",
		BaseURL: "https://www.imf.org",
	},
	{
		Name:    "IMF Blog",
		RSSURL:  "https://www.imf.org/en/Blogs/rss",
		BaseURL: "https://www.imf.org",
	},
}

const cacheTTL = 10 * time.Minute

// Service aggregates headlines from the configured feeds.
type Service struct {
	feeds   []Feed
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewService creates a headline service with the default IMF feeds.
func NewService() *Service {
	return NewServiceWithFeeds(DefaultFeeds)
}

// NewServiceWithFeeds creates a headline service with custom feeds.
func NewServiceWithFeeds(feeds []Feed) *Service {
	return &Service{
		feeds:   feeds,
		cache:   infra.NewCache(cacheTTL),
		limiter: infra.NewRateLimiter(2, time.Second), // conservative: 2 req/s
		parser:  gofeed.NewParser(),
	}
}

// Headlines returns the most recent articles across all feeds, newest
// first, at most limit items (0 means no limit). Feeds that fail to
// parse are skipped so one dead feed never empties the strip.
func (s *Service) Headlines(ctx context.Context, limit int) ([]models.NewsArticle, error) {
	cacheKey := fmt.Sprintf("headlines:%d", limit)
	if cached, ok := s.cache.Get(cacheKey); ok {
		return cached.([]models.NewsArticle), nil
	}

	var all []models.NewsArticle
	for _, f := range s.feeds {
		articles, err := s.fetchRSS(ctx, f)
		if err != nil {
			// Non-critical: skip failed feeds.
			continue
		}
		all = append(all, articles...)
	}

	sortArticlesByDate(all)

	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}

	s.cache.Set(cacheKey, all)
	return all, nil
}

// fetchRSS parses one RSS feed and returns its articles.
func (s *Service) fetchRSS(ctx context.Context, f Feed) ([]models.NewsArticle, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := s.parser.ParseURLWithContext(f.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", f.Name, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		a := models.NewsArticle{
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  f.Name,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	return articles, nil
}

// cleanHTML reduces a feed summary to plain text. RSS descriptions
// routinely embed markup, so the string is parsed as a document and
// its text content extracted.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.TrimSpace(doc.Text())
}

// sortArticlesByDate orders articles newest first, keeping the feed
// order for equal timestamps.
func sortArticlesByDate(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
