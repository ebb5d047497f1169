package handlers

import (
	"context"
	"time"

	"github.com/irfndi/pricecast-go/internal/models"
	"github.com/irfndi/pricecast-go/internal/services"
)

// PriceStore is the read side of the price repository used by the handlers.
type PriceStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	ListProductsByCategory(ctx context.Context, categoryID int) ([]models.Product, error)
	GetProductByArticle(ctx context.Context, article string) (*models.Product, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	GetCategory(ctx context.Context, id int) (*models.Category, error)
	GetPriceHistory(ctx context.Context, productID int) ([]models.PriceHistory, error)
	GetPriceHistorySince(ctx context.Context, productID int, since time.Time) ([]models.PriceHistory, error)
	LatestPrices(ctx context.Context) ([]models.PriceHistory, error)
}

// UserStore persists API accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PriceUpdateRunner triggers one price update run.
type PriceUpdateRunner interface {
	UpdatePrices(ctx context.Context) (*services.UpdateSummary, error)
}

// HealthChecker is implemented by the database and redis clients.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}
