package models

// Product is a marketplace item whose price is tracked.
type Product struct {
	ID          int     `json:"id" db:"id"`
	Article     string  `json:"article" db:"article"`
	Name        string  `json:"name" db:"name"`
	Description *string `json:"description,omitempty" db:"description"`
	CategoryID  int     `json:"category_id" db:"category_id"`
	Brand       *string `json:"brand,omitempty" db:"brand"`
	ImageURL    string  `json:"image_url" db:"image_url"`
}

// ProductSummary is the product block attached to forecast responses.
type ProductSummary struct {
	ID      int    `json:"id"`
	Article string `json:"article"`
	Name    string `json:"name"`
}

// Summary returns the short form of the product.
func (p Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Article: p.Article, Name: p.Name}
}
