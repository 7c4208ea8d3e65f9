package services

import (
	"time"

	"katalog/internal/models"
)

// CreateProductInput carries the fields accepted on product creation. The
// image reference is the opaque identifier assigned by the image store, not
// a URL.
type CreateProductInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"omitempty,max=1000"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string  `json:"image_url" validate:"omitempty,max=500"`
	Category      string  `json:"category" validate:"omitempty,max=100"`
	Brand         string  `json:"brand" validate:"omitempty,max=50"`
}

// UpdateProductInput carries the full replacement state for a product. An
// empty ImageURL keeps the stored image reference.
type UpdateProductInput struct {
	Name          string  `json:"name" validate:"required,max=200"`
	Description   string  `json:"description" validate:"omitempty,max=1000"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string  `json:"image_url" validate:"omitempty,max=500"`
	Category      string  `json:"category" validate:"omitempty,max=100"`
	Brand         string  `json:"brand" validate:"omitempty,max=50"`
	IsActive      bool    `json:"is_active"`
}

// ProductFilter holds the listing query parameters. All fields participate in
// the cache key, so two requests with the same filter share one cache entry.
type ProductFilter struct {
	SearchTerm string   `query:"search_term"`
	Category   string   `query:"category"`
	Brand      string   `query:"brand"`
	MinPrice   *float64 `query:"min_price"`
	MaxPrice   *float64 `query:"max_price"`
	IsActive   *bool    `query:"is_active"`
	SortBy     string   `query:"sort_by"`
	Page       int      `query:"page"`
	PageSize   int      `query:"page_size"`
}

// ProductResponse is the shape products are returned (and cached) in.
type ProductResponse struct {
	ID            uint       `json:"id"`
	Name          string     `json:"name"`
	Description   string     `json:"description,omitempty"`
	Price         float64    `json:"price"`
	StockQuantity int        `json:"stock_quantity"`
	ImageURL      string     `json:"image_url,omitempty"`
	Category      string     `json:"category,omitempty"`
	Brand         string     `json:"brand,omitempty"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

func toProductResponse(p *models.Product) *ProductResponse {
	return &ProductResponse{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Price:         p.Price,
		StockQuantity: p.StockQuantity,
		ImageURL:      p.ImageURL,
		Category:      p.Category,
		Brand:         p.Brand,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func toProductResponses(products []models.Product) []ProductResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, *toProductResponse(&products[i]))
	}
	return out
}

// RegisterInput carries the fields accepted on user registration.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=6"`
	FirstName   string `json:"first_name" validate:"required,max=100"`
	LastName    string `json:"last_name" validate:"required,max=100"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=30"`
}

// LoginInput carries the login credentials.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserResponse is returned from register and login, with a fresh bearer token.
type UserResponse struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	FullName    string `json:"full_name"`
	PhoneNumber string `json:"phone_number,omitempty"`
	Token       string `json:"token"`
}

func toUserResponse(u *models.User, token string) *UserResponse {
	return &UserResponse{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		Token:       token,
	}
}
