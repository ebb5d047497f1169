package testmocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/irfndi/pricecast-go/internal/models"
	"github.com/irfndi/pricecast-go/internal/services"
)

// MockPriceStore implements handlers.PriceStore for testing
type MockPriceStore struct {
	mock.Mock
}

func (m *MockPriceStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockPriceStore) ListProductsByCategory(ctx context.Context, categoryID int) ([]models.Product, error) {
	args := m.Called(ctx, categoryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockPriceStore) GetProductByArticle(ctx context.Context, article string) (*models.Product, error) {
	args := m.Called(ctx, article)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockPriceStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockPriceStore) GetCategory(ctx context.Context, id int) (*models.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockPriceStore) GetPriceHistory(ctx context.Context, productID int) ([]models.PriceHistory, error) {
	args := m.Called(ctx, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceHistory), args.Error(1)
}

func (m *MockPriceStore) GetPriceHistorySince(ctx context.Context, productID int, since time.Time) ([]models.PriceHistory, error) {
	args := m.Called(ctx, productID, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceHistory), args.Error(1)
}

func (m *MockPriceStore) LatestPrices(ctx context.Context) ([]models.PriceHistory, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.PriceHistory), args.Error(1)
}

// MockUserStore implements handlers.UserStore for testing
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) CreateUser(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockUpdateRunner implements handlers.PriceUpdateRunner for testing
type MockUpdateRunner struct {
	mock.Mock
}

func (m *MockUpdateRunner) UpdatePrices(ctx context.Context) (*services.UpdateSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UpdateSummary), args.Error(1)
}

// MockHealthChecker implements handlers.HealthChecker for testing
type MockHealthChecker struct {
	mock.Mock
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
