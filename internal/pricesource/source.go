// Package pricesource fetches the current price of a product by article.
package pricesource

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/irfndi/pricecast-go/internal/config"
	"github.com/irfndi/pricecast-go/internal/database"
	"github.com/irfndi/pricecast-go/internal/utils"
)

// Source is anything that can report the current price of an article.
type Source interface {
	FetchPrice(ctx context.Context, article string) (float64, error)
}

const userAgent = "Mozilla/5.0 (compatible; pricecast/1.0)"

// MarketplaceSource scrapes a marketplace product page.
type MarketplaceSource struct {
	name    string
	market  config.MarketplaceConfig
	client  *http.Client
	limiter *rate.Limiter
	logger  logrus.FieldLogger
}

// NewMarketplaceSource builds a scraper for the marketplace named in cfg.
// It fails with an unsupported_marketplace error when no template is configured.
func NewMarketplaceSource(cfg config.PriceUpdaterConfig, logger logrus.FieldLogger) (*MarketplaceSource, error) {
	name := strings.ToLower(strings.TrimSpace(cfg.Marketplace))
	market, ok := cfg.Marketplaces[name]
	if !ok || market.URLTemplate == "" || market.Selector == "" {
		return nil, utils.NewUnsupportedMarketplaceError(cfg.Marketplace)
	}

	perSecond := cfg.RateLimitPerSecond
	if perSecond <= 0 {
		perSecond = 1
	}
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &MarketplaceSource{
		name:    name,
		market:  market,
		client:  &http.Client{Timeout: cfg.RequestTimeoutDuration()},
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
		logger:  logger.WithField("marketplace", name),
	}, nil
}

// Name returns the marketplace key.
func (s *MarketplaceSource) Name() string { return s.name }

// FetchPrice downloads the product page and parses the first element matching
// the configured selector.
func (s *MarketplaceSource) FetchPrice(ctx context.Context, article string) (float64, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return 0, fmt.Errorf("rate limiter: %w", err)
	}

	pageURL := fmt.Sprintf(s.market.URLTemplate, url.PathEscape(article))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")

	start := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return 0, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, pageURL)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to parse HTML: %w", err)
	}

	text := strings.TrimSpace(doc.Find(s.market.Selector).First().Text())
	if text == "" {
		return 0, fmt.Errorf("price element %q not found for article %s", s.market.Selector, article)
	}

	price, err := ParsePriceText(text)
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{
		"article":     article,
		"price":       price,
		"duration_ms": time.Since(start).Milliseconds(),
	}).Debug("Fetched marketplace price")
	return price, nil
}

// ParsePriceText turns strings such as "1 299,50 ₽" into 1299.5. The last
// separator is the decimal point unless exactly three digits follow it and no
// separator of the other kind precedes it, so "1,299" and "1.299.000" are
// whole numbers while "12,5" and "1.299,00" carry a fraction.
func ParsePriceText(text string) (float64, error) {
	var b strings.Builder
	for _, r := range text {
		if (r >= '0' && r <= '9') || r == ',' || r == '.' {
			b.WriteRune(r)
		}
	}

	cleaned := strings.Trim(b.String(), ".,")
	if cleaned == "" {
		return 0, fmt.Errorf("no price in %q", text)
	}

	whole, fraction := cleaned, ""
	if i := strings.LastIndexAny(cleaned, ".,"); i >= 0 {
		other := "."
		if cleaned[i] == '.' {
			other = ","
		}
		head, tail := cleaned[:i], cleaned[i+1:]
		if len(tail) != 3 || strings.Contains(head, other) {
			whole, fraction = head, tail
		}
	}

	number := stripSeparators.Replace(whole)
	if fraction != "" {
		number += "." + fraction
	}

	price, err := strconv.ParseFloat(number, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid price %q: %w", text, err)
	}
	if price <= 0 {
		return 0, fmt.Errorf("non-positive price %q", text)
	}
	return price, nil
}

var stripSeparators = strings.NewReplacer(".", "", ",", "")

// HistorySource reports the latest stored price of an article.
type HistorySource struct {
	repo *database.PriceRepository
}

// NewHistorySource wraps the price-history store as a Source.
func NewHistorySource(repo *database.PriceRepository) *HistorySource {
	return &HistorySource{repo: repo}
}

// FetchPrice returns the newest price_history row for article.
func (s *HistorySource) FetchPrice(ctx context.Context, article string) (float64, error) {
	latest, err := s.repo.LatestPriceByArticle(ctx, article)
	if err != nil {
		return 0, err
	}
	return latest.Price.InexactFloat64(), nil
}

// New picks the source for cfg. The "history" marketplace reads the local
// store; anything else is scraped behind a circuit breaker.
func New(cfg config.PriceUpdaterConfig, repo *database.PriceRepository, logger logrus.FieldLogger) (Source, error) {
	if strings.EqualFold(strings.TrimSpace(cfg.Marketplace), "history") {
		return NewHistorySource(repo), nil
	}

	market, err := NewMarketplaceSource(cfg, logger)
	if err != nil {
		return nil, err
	}

	breaker := NewCircuitBreaker(market.Name(), BreakerConfig{
		FailureThreshold: cfg.BreakerFailureThreshold,
		Cooldown:         cfg.BreakerCooldownDuration(),
	}, logger)
	return NewGuardedSource(market, breaker), nil
}
