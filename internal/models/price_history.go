package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory is one stored price observation of a product.
type PriceHistory struct {
	ID        int             `json:"id" db:"id"`
	ProductID int             `json:"product_id" db:"product_id"`
	Price     decimal.Decimal `json:"price" db:"price"`
	CreatedAt time.Time       `json:"created_at" db:"created_at"`
}

// PriceObservation is a (timestamp, price) pair as consumed by the forecasters.
type PriceObservation struct {
	Timestamp time.Time `json:"timestamp"`
	Price     float64   `json:"price"`
}

// Observation converts a stored row into a PriceObservation.
func (p PriceHistory) Observation() PriceObservation {
	return PriceObservation{Timestamp: p.CreatedAt, Price: p.Price.InexactFloat64()}
}

// SplitObservations returns parallel price and date slices in input order.
func SplitObservations(history []PriceHistory) ([]float64, []time.Time) {
	prices := make([]float64, len(history))
	dates := make([]time.Time, len(history))
	for i, h := range history {
		obs := h.Observation()
		prices[i] = obs.Price
		dates[i] = obs.Timestamp
	}
	return prices, dates
}
