package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/irfndi/pricecast-go/internal/metrics"
	"github.com/irfndi/pricecast-go/internal/models"
)

func fixedClock() func() time.Time {
	t0 := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time { return t0 }
}

func TestUpdatePrices_SkipsFailures(t *testing.T) {
	ctx := context.Background()
	store := new(MockProductStore)
	source := new(MockPriceSource)
	cache := new(MockForecastInvalidator)
	notifier := new(MockNotifier)
	collector := metrics.NewCollector()

	products := []models.Product{
		{ID: 1, Article: "111"},
		{ID: 2, Article: "222"},
		{ID: 3, Article: "333"},
	}
	store.On("ListProducts", ctx).Return(products, nil)

	source.On("FetchPrice", ctx, "111").Return(1299.499, nil)
	source.On("FetchPrice", ctx, "222").Return(0.0, errors.New("timeout"))
	source.On("FetchPrice", ctx, "333").Return(500.0, nil)

	store.On("InsertPrice", ctx, 1, decimal.RequireFromString("1299.5"), mock.Anything).
		Return(&models.PriceHistory{ID: 10}, nil)
	store.On("InsertPrice", ctx, 3, decimal.RequireFromString("500"), mock.Anything).
		Return(nil, errors.New("constraint violation"))

	cache.On("InvalidateArticle", ctx, "111").Return(2, nil)

	notifier.On("NotifyPriceUpdate", ctx, mock.MatchedBy(func(s UpdateSummary) bool {
		return s.Updated == 1 && s.Failed == 2
	})).Return(nil)

	u := NewPriceUpdater(PriceUpdaterDeps{
		Store:      store,
		Source:     source,
		SourceName: "wildberries",
		Cache:      cache,
		Notifier:   notifier,
		Metrics:    collector,
	}, "0 0 * * *", quietLogger())
	u.now = fixedClock()

	summary, err := u.UpdatePrices(ctx)
	require.NoError(t, err)

	assert.Equal(t, "wildberries", summary.Source)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 2, summary.Failed)
	assert.Equal(t, []string{"222", "333"}, summary.Failures)

	store.AssertExpectations(t)
	source.AssertExpectations(t)
	cache.AssertExpectations(t)
	notifier.AssertExpectations(t)
	cache.AssertNotCalled(t, "InvalidateArticle", ctx, "333")

	reg := collector.Registry()
	count, err := testutil.GatherAndCount(reg, "pricecast_price_updates_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestUpdatePrices_ListError(t *testing.T) {
	ctx := context.Background()
	store := new(MockProductStore)
	store.On("ListProducts", ctx).Return(nil, errors.New("db down"))

	u := NewPriceUpdater(PriceUpdaterDeps{Store: store, Source: new(MockPriceSource)}, "0 0 * * *", quietLogger())

	_, err := u.UpdatePrices(ctx)
	assert.ErrorContains(t, err, "db down")
}

func TestUpdatePrices_NotifierErrorIgnored(t *testing.T) {
	ctx := context.Background()
	store := new(MockProductStore)
	notifier := new(MockNotifier)
	store.On("ListProducts", ctx).Return([]models.Product{}, nil)
	notifier.On("NotifyPriceUpdate", ctx, mock.Anything).Return(errors.New("telegram down"))

	u := NewPriceUpdater(PriceUpdaterDeps{Store: store, Source: new(MockPriceSource), Notifier: notifier}, "0 0 * * *", quietLogger())

	summary, err := u.UpdatePrices(ctx)
	require.NoError(t, err)
	assert.Zero(t, summary.Total)
}

func TestUpdatePrices_RejectsConcurrentRun(t *testing.T) {
	u := NewPriceUpdater(PriceUpdaterDeps{Store: new(MockProductStore), Source: new(MockPriceSource)}, "0 0 * * *", quietLogger())

	u.runMu.Lock()
	defer u.runMu.Unlock()

	_, err := u.UpdatePrices(context.Background())
	assert.ErrorIs(t, err, ErrUpdateInProgress)
}

func TestUpdatePrices_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := new(MockProductStore)
	store.On("ListProducts", ctx).Return([]models.Product{{ID: 1, Article: "1"}}, nil)
	cancel()

	u := NewPriceUpdater(PriceUpdaterDeps{Store: store, Source: new(MockPriceSource)}, "0 0 * * *", quietLogger())
	summary, err := u.UpdatePrices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, 1, summary.Total)
	assert.Zero(t, summary.Updated)
}

func TestUpdatePrices_CancelledMidRunKeepsPartialSummary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := new(MockProductStore)
	source := new(MockPriceSource)
	notifier := new(MockNotifier)

	products := []models.Product{
		{ID: 1, Article: "111"},
		{ID: 2, Article: "222"},
		{ID: 3, Article: "333"},
	}
	store.On("ListProducts", ctx).Return(products, nil)
	source.On("FetchPrice", ctx, "111").Return(100.0, nil)
	store.On("InsertPrice", ctx, 1, decimal.RequireFromString("100"), mock.Anything).
		Run(func(mock.Arguments) { cancel() }).
		Return(&models.PriceHistory{ID: 10}, nil)

	var notifyErr error
	notifier.On("NotifyPriceUpdate", mock.Anything, mock.MatchedBy(func(s UpdateSummary) bool {
		return s.Cancelled && s.Updated == 1 && s.Failed == 0 && s.Total == 3
	})).Run(func(args mock.Arguments) {
		notifyErr = args.Get(0).(context.Context).Err()
	}).Return(nil)

	u := NewPriceUpdater(PriceUpdaterDeps{Store: store, Source: source, Notifier: notifier}, "0 0 * * *", quietLogger())
	u.now = fixedClock()

	summary, err := u.UpdatePrices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 1, summary.Updated)
	assert.Zero(t, summary.Failed)
	assert.Empty(t, summary.Failures)
	assert.True(t, summary.Cancelled)

	notifier.AssertExpectations(t)
	assert.NoError(t, notifyErr, "notification runs on a live context")
	source.AssertNotCalled(t, "FetchPrice", mock.Anything, "222")
}

func TestUpdatePrices_FetchAbortedByCancellationIsNotAFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := new(MockProductStore)
	source := new(MockPriceSource)

	store.On("ListProducts", ctx).Return([]models.Product{{ID: 1, Article: "111"}, {ID: 2, Article: "222"}}, nil)
	source.On("FetchPrice", ctx, "111").
		Run(func(mock.Arguments) { cancel() }).
		Return(0.0, context.Canceled)

	u := NewPriceUpdater(PriceUpdaterDeps{Store: store, Source: source}, "0 0 * * *", quietLogger())
	summary, err := u.UpdatePrices(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Zero(t, summary.Failed)
	assert.True(t, summary.Cancelled)
}

func TestPriceUpdater_StartStop(t *testing.T) {
	u := NewPriceUpdater(PriceUpdaterDeps{Store: new(MockProductStore), Source: new(MockPriceSource)}, "0 0 * * *", quietLogger())

	require.NoError(t, u.Start())
	assert.Error(t, u.Start())
	u.Stop()
	u.Stop()

	bad := NewPriceUpdater(PriceUpdaterDeps{}, "not a schedule", quietLogger())
	assert.Error(t, bad.Start())
}
