package services

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	tgmodels "github.com/go-telegram/bot/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/irfndi/pricecast-go/internal/models"
)

// MockProductStore implements ProductStore for testing within the services package
type MockProductStore struct {
	mock.Mock
}

func (m *MockProductStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductStore) InsertPrice(ctx context.Context, productID int, price decimal.Decimal, at time.Time) (*models.PriceHistory, error) {
	args := m.Called(ctx, productID, price, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PriceHistory), args.Error(1)
}

// MockPriceSource implements pricesource.Source
type MockPriceSource struct {
	mock.Mock
}

func (m *MockPriceSource) FetchPrice(ctx context.Context, article string) (float64, error) {
	args := m.Called(ctx, article)
	return args.Get(0).(float64), args.Error(1)
}

// MockForecastInvalidator implements ForecastInvalidator
type MockForecastInvalidator struct {
	mock.Mock
}

func (m *MockForecastInvalidator) InvalidateArticle(ctx context.Context, article string) (int, error) {
	args := m.Called(ctx, article)
	return args.Int(0), args.Error(1)
}

// MockNotifier implements Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyPriceUpdate(ctx context.Context, summary UpdateSummary) error {
	args := m.Called(ctx, summary)
	return args.Error(0)
}

// MockMessageSender implements MessageSender
type MockMessageSender struct {
	mock.Mock
}

func (m *MockMessageSender) SendMessage(ctx context.Context, params *bot.SendMessageParams) (*tgmodels.Message, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tgmodels.Message), args.Error(1)
}
