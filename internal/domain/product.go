// Package domain contains the core entities shared across modules.
package domain

import "time"

// Product is a catalog entry. The catalog is read-only from the API;
// products are seeded through migrations or back-office tooling.
type Product struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Price        float64   `json:"price"`
	Description  string    `json:"description"`
	CategoryName string    `json:"category_name"`
	ImageURL     string    `json:"image_url"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
