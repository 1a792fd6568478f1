package domain

import "time"

// Product is a listing owned by a single user.
type Product struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     float64   `json:"price"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// ProductFilter narrows a product listing. An empty UserID lists every
// user's products; Search is a case-sensitive substring of the name.
type ProductFilter struct {
	UserID string
	Search string
	Limit  int
	Offset int
}
