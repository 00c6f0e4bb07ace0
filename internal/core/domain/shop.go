package domain

// Listing is a shop catalog entry. Name is the unique key the HTTP surface
// addresses listings by; Quantity is remaining stock.
type Listing struct {
	ID          string `json:"-"`
	Name        string `json:"name"`
	Price       int64  `json:"price"`
	URL         string `json:"url"`
	Quantity    int64  `json:"quantity"`
	Description string `json:"description"`
	Visible     bool   `json:"visible"`
}
