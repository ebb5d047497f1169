package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/irfndi/pricecast-go/internal/logging"
	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/models"
	"github.com/irfndi/pricecast-go/internal/pricesource"
)

// ErrUpdateInProgress is returned when a run is requested while another is active.
var ErrUpdateInProgress = errors.New("price update already in progress")

const (
	// defaultRunTimeout bounds one scheduled run.
	defaultRunTimeout = 30 * time.Minute
	// notifyTimeout bounds the summary notification of an interrupted run.
	notifyTimeout = 10 * time.Second
)

// ProductStore is the part of the price repository the updater writes to.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	InsertPrice(ctx context.Context, productID int, price decimal.Decimal, at time.Time) (*models.PriceHistory, error)
}

// ForecastInvalidator drops cached forecasts of an article.
type ForecastInvalidator interface {
	InvalidateArticle(ctx context.Context, article string) (int, error)
}

// UpdateSummary describes one price update run.
type UpdateSummary struct {
	Source    string        `json:"source"`
	Total     int           `json:"total"`
	Updated   int           `json:"updated"`
	Failed    int           `json:"failed"`
	Failures  []string      `json:"failures,omitempty"`
	Cancelled bool          `json:"cancelled,omitempty"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`
}

// PriceUpdaterDeps groups the collaborators of a PriceUpdater. Cache,
// Notifier and Metrics are optional.
type PriceUpdaterDeps struct {
	Store      ProductStore
	Source     pricesource.Source
	SourceName string
	Cache      ForecastInvalidator
	Notifier   Notifier
	Metrics    *metrics.Collector
}

// PriceUpdater appends a fresh price for every product, on demand or on a
// cron schedule.
type PriceUpdater struct {
	deps     PriceUpdaterDeps
	schedule string
	logger   logrus.FieldLogger

	runMu  sync.Mutex
	cronMu sync.Mutex
	cron   *cron.Cron
	now    func() time.Time
}

// NewPriceUpdater creates an updater for the given cron schedule.
func NewPriceUpdater(deps PriceUpdaterDeps, schedule string, logger logrus.FieldLogger) *PriceUpdater {
	return &PriceUpdater{
		deps:     deps,
		schedule: schedule,
		logger:   logging.WithComponent(logger, "price_updater"),
		now:      time.Now,
	}
}

// UpdatePrices fetches and stores the current price of every product.
// Per-product failures are logged and counted, never fatal. When ctx ends
// mid-run the partial summary is still reported and returned together with
// the context error.
func (u *PriceUpdater) UpdatePrices(ctx context.Context) (*UpdateSummary, error) {
	if !u.runMu.TryLock() {
		return nil, ErrUpdateInProgress
	}
	defer u.runMu.Unlock()

	started := u.now()
	products, err := u.deps.Store.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	summary := &UpdateSummary{
		Source:    u.deps.SourceName,
		Total:     len(products),
		StartedAt: started,
	}

	var runErr error
	for _, p := range products {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		if err := u.updateProduct(ctx, p); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				runErr = ctxErr
				break
			}
			summary.Failed++
			summary.Failures = append(summary.Failures, p.Article)
			u.recordStatus(metrics.UpdateFailure)
			u.logger.WithError(err).WithField("article", p.Article).Warn("Failed to update price")
			continue
		}
		summary.Updated++
		u.recordStatus(metrics.UpdateSuccess)
	}
	summary.Duration = u.now().Sub(started)
	summary.Cancelled = runErr != nil

	logging.LogBusinessEvent(u.logger, "prices_updated", map[string]interface{}{
		"source":    summary.Source,
		"total":     summary.Total,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
		"cancelled": summary.Cancelled,
	})

	u.notify(ctx, *summary)

	if runErr != nil {
		return summary, fmt.Errorf("price update interrupted after %d of %d products: %w",
			summary.Updated+summary.Failed, summary.Total, runErr)
	}
	return summary, nil
}

// notify sends the summary. Rows of an interrupted run are already stored,
// so it is reported on a context detached from the cancelled one.
func (u *PriceUpdater) notify(ctx context.Context, summary UpdateSummary) {
	if u.deps.Notifier == nil {
		return
	}
	if ctx.Err() != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
	}
	if err := u.deps.Notifier.NotifyPriceUpdate(ctx, summary); err != nil {
		u.logger.WithError(err).Warn("Failed to send update notification")
	}
}

func (u *PriceUpdater) updateProduct(ctx context.Context, p models.Product) error {
	price, err := u.deps.Source.FetchPrice(ctx, p.Article)
	if err != nil {
		return err
	}

	if _, err := u.deps.Store.InsertPrice(ctx, p.ID, decimal.NewFromFloat(price).Round(2), u.now()); err != nil {
		return err
	}

	if u.deps.Cache != nil {
		if _, err := u.deps.Cache.InvalidateArticle(ctx, p.Article); err != nil {
			u.logger.WithError(err).WithField("article", p.Article).Warn("Failed to invalidate cached forecasts")
		}
	}
	return nil
}

func (u *PriceUpdater) recordStatus(status string) {
	if u.deps.Metrics != nil {
		u.deps.Metrics.RecordPriceUpdate(status)
	}
}

// Start registers UpdatePrices on the schedule. Overlapping runs are skipped.
func (u *PriceUpdater) Start() error {
	u.cronMu.Lock()
	defer u.cronMu.Unlock()

	if u.cron != nil {
		return errors.New("price updater already started")
	}

	printf := cron.PrintfLogger(u.logger)
	c := cron.New(cron.WithLogger(printf), cron.WithChain(cron.SkipIfStillRunning(printf)))
	if _, err := c.AddFunc(u.schedule, u.runScheduled); err != nil {
		return fmt.Errorf("invalid schedule %q: %w", u.schedule, err)
	}
	c.Start()
	u.cron = c

	u.logger.WithField("schedule", u.schedule).Info("Price updater started")
	return nil
}

// Stop halts the schedule and waits for a running update to finish.
func (u *PriceUpdater) Stop() {
	u.cronMu.Lock()
	c := u.cron
	u.cron = nil
	u.cronMu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	u.logger.Info("Price updater stopped")
}

func (u *PriceUpdater) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), defaultRunTimeout)
	defer cancel()

	if _, err := u.UpdatePrices(ctx); err != nil {
		u.logger.WithError(err).Error("Scheduled price update failed")
	}
}
