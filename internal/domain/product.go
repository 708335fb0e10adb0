package domain

import "time"

type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	PriceCents  int64     `json:"priceCents"`
	Description string    `json:"description,omitempty"`
	Available   bool      `json:"availability"`
	CategoryID  int       `json:"categoryId"`
	CreatedAt   time.Time `json:"createdAt"`
}
