// Package imf fetches annual indicator series from the IMF DataMapper
// API and normalizes them into year/value observations.
package imf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/macrovista/macrovista/internal/infra"
	"github.com/macrovista/macrovista/pkg/models"
)

const (
	// DefaultBaseURL is the public DataMapper API root.
	DefaultBaseURL = "https://www.imf.org/external/datamapper/api/v1"

	// DefaultUserAgent identifies macrovista to the API.
	DefaultUserAgent = "macrovista/1.0 (+https://github.com/macrovista/macrovista)"

	// DefaultTimeout bounds a single API request.
	DefaultTimeout = 30 * time.Second

	// DefaultCacheTTL keeps fetched series for an hour.
	DefaultCacheTTL = time.Hour

	// DefaultFetchDelay spaces successive API hits.
	DefaultFetchDelay = 500 * time.Millisecond
)

// Options configures a Client. Zero values take the package defaults;
// a negative FetchDelay disables the politeness delay entirely.
type Options struct {
	BaseURL    string
	UserAgent  string
	Timeout    time.Duration
	CacheTTL   time.Duration
	FetchDelay time.Duration
}

// Client fetches indicator series from the DataMapper API. Successful
// results are cached for the configured TTL; concurrent identical
// requests share a single in-flight fetch.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	cache      *infra.Cache
	pacer      *infra.Pacer
	group      singleflight.Group
}

// New creates a Client with the given options.
func New(opts Options) *Client {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ttl := opts.CacheTTL
	if ttl == 0 {
		ttl = DefaultCacheTTL
	}
	delay := opts.FetchDelay
	if delay == 0 {
		delay = DefaultFetchDelay
	}
	if delay < 0 {
		delay = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		userAgent:  userAgent,
		cache:      infra.NewCache(ttl),
		pacer:      infra.NewPacer(delay),
	}
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CacheSize returns the number of cached series, expired ones included.
func (c *Client) CacheSize() int {
	return c.cache.Len()
}

// FlushCache drops every cached series, forcing fresh fetches.
func (c *Client) FlushCache() {
	c.cache.Flush()
}

// Fetch returns the (year, value) series for one indicator and country,
// restricted to [startYear, endYear] and sorted by ascending year.
// Errors are returned to the caller and never cached.
func (c *Client) Fetch(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) (models.SeriesResult, error) {
	empty := models.SeriesResult{
		CountryCode:   countryCode,
		IndicatorCode: indicatorCode,
		StartYear:     startYear,
		EndYear:       endYear,
	}
	if startYear > endYear {
		return empty, fmt.Errorf("%s/%s: %w", indicatorCode, countryCode, ErrYearRange)
	}

	key := fetchKey(countryCode, indicatorCode, startYear, endYear)
	if cached, ok := c.cache.Get(key); ok {
		return cached.(models.SeriesResult), nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A concurrent caller may have filled the cache while this
		// call waited its turn.
		if cached, ok := c.cache.Get(key); ok {
			return cached.(models.SeriesResult), nil
		}
		result, err := c.fetchSeries(ctx, countryCode, indicatorCode, startYear, endYear)
		if err != nil {
			return nil, err
		}
		c.cache.Set(key, result)
		c.pacer.Pause(ctx)
		return result, nil
	})
	if err != nil {
		return empty, err
	}
	return v.(models.SeriesResult), nil
}

// Ping verifies the DataMapper API is reachable.
func (c *Client) Ping(ctx context.Context) error {
	var resp map[string]any
	if err := c.fetchJSON(ctx, c.baseURL+"/indicators", &resp); err != nil {
		return fmt.Errorf("IMF DataMapper unreachable: %w", err)
	}
	return nil
}

// dataMapperResponse mirrors the payload shape:
// {"values": {"<indicator>": {"<country>": {"<year>": <value>}}}}.
type dataMapperResponse struct {
	Values map[string]map[string]map[string]any `json:"values"`
}

func (c *Client) fetchSeries(ctx context.Context, countryCode, indicatorCode string, startYear, endYear int) (models.SeriesResult, error) {
	result := models.SeriesResult{
		CountryCode:   countryCode,
		IndicatorCode: indicatorCode,
		StartYear:     startYear,
		EndYear:       endYear,
	}

	u := fmt.Sprintf("%s/%s/%s?periods=%d-%d", c.baseURL, indicatorCode, countryCode, startYear, endYear)

	var resp dataMapperResponse
	if err := c.fetchJSON(ctx, u, &resp); err != nil {
		return result, fmt.Errorf("IMF %s/%s: %w", indicatorCode, countryCode, err)
	}

	if resp.Values == nil {
		return result, &SchemaError{Path: "values"}
	}
	byCountry, ok := resp.Values[indicatorCode]
	if !ok {
		return result, &SchemaError{Path: "values." + indicatorCode}
	}
	byYear, ok := byCountry[countryCode]
	if !ok {
		return result, &SchemaError{Path: "values." + indicatorCode + "." + countryCode}
	}

	points := make([]models.ObservationPoint, 0, len(byYear))
	for yearStr, raw := range byYear {
		year, err := strconv.Atoi(strings.TrimSpace(yearStr))
		if err != nil {
			continue
		}
		if year < startYear || year > endYear {
			continue
		}
		val, ok := coerceFloat(raw)
		if !ok {
			continue
		}
		points = append(points, models.ObservationPoint{Year: year, Value: val})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Year < points[j].Year })
	result.Points = points
	return result, nil
}

// fetchJSON performs a GET request and decodes the JSON response into dst.
func (c *Client) fetchJSON(ctx context.Context, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("HTTP GET: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// coerceFloat converts a decoded JSON value to a float64. The API mixes
// numbers and numeric strings; anything else (null, boolean, text) is
// reported as not coercible so the caller can drop that point.
func coerceFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case int64:
		return float64(val), true
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func fetchKey(countryCode, indicatorCode string, startYear, endYear int) string {
	return fmt.Sprintf("%s|%s|%d|%d", countryCode, indicatorCode, startYear, endYear)
}
