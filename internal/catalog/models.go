package catalog

import (
	"errors"
	"time"
)

var ErrNotFound = errors.New("not found")

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Color string `json:"color,omitempty"`
	Image string `json:"image,omitempty"`
}

type Product struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	RichDescription string    `json:"richDescription,omitempty"`
	Image           string    `json:"image,omitempty"`
	Brand           string    `json:"brand,omitempty"`
	PriceCents      int64     `json:"price_cents"`
	CategoryID      string    `json:"category"`
	Category        *Category `json:"categoryDetail,omitempty"`
	Stock           int       `json:"countInStock"`
	Rating          float64   `json:"rating"`
	NumReviews      int       `json:"numReviews"`
	IsFeatured      bool      `json:"isFeatured"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// User never serializes its credential hash.
type User struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Street       string `json:"street,omitempty"`
	Apartment    string `json:"apartment,omitempty"`
	City         string `json:"city,omitempty"`
	Zip          string `json:"zip,omitempty"`
	Country      string `json:"country,omitempty"`
	Phone        string `json:"phone,omitempty"`
	IsAdmin      bool   `json:"isAdmin"`
}
