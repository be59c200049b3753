package domain

import "time"

// Item is a single inventory record.
type Item struct {
	ID          string
	Name        string
	Description string
	Category    string
	Quantity    int
	Price       float64
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
