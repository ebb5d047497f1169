package handlers

// Fixtures shared across handler tests
const (
	TestArticle     = "12345678"
	TestProductID   = 7
	TestProductName = "Wireless Headphones"
)
