package products

import (
	"time"

	"github.com/admin-app/admin-api/internal/shared"
)

// Product is a catalog entry. Price is stored in minor units.
type Product struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Image       *Image    `json:"image"`
	Price       int       `json:"price"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Image is descriptive metadata of an externally hosted picture.
type Image struct {
	URL      string `json:"url" validate:"required,url"`
	Alt      string `json:"alt,omitempty" validate:"max=255"`
	Width    int    `json:"width,omitempty" validate:"min=0"`
	Height   int    `json:"height,omitempty" validate:"min=0"`
	Size     int64  `json:"size,omitempty" validate:"min=0"`
	MimeType string `json:"mime_type,omitempty" validate:"omitempty,oneof=image/png image/jpeg image/webp image/gif"`
}

// ListFilters narrows a product listing.
type ListFilters struct {
	shared.PageRequest
	Search  string `json:"search" validate:"max=100"`
	SortBy  string `json:"sort" validate:"omitempty,oneof=title price created_at"`
	SortDir string `json:"dir" validate:"omitempty,oneof=asc desc"`
}
