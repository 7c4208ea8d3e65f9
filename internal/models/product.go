package models

// Product represents an item in the catalog. IsActive controls customer-facing
// visibility and is independent of the soft-delete flag on Model.
type Product struct {
	Model
	Name          string  `json:"name" gorm:"type:varchar(200)" validate:"required,max=200"`
	Description   string  `json:"description,omitempty" gorm:"type:varchar(1000)" validate:"omitempty,max=1000"`
	Price         float64 `json:"price" validate:"gte=0"`
	StockQuantity int     `json:"stock_quantity" validate:"gte=0"`
	ImageURL      string  `json:"image_url,omitempty" gorm:"type:varchar(500)" validate:"omitempty,max=500"` // opaque image store identifier
	Category      string  `json:"category,omitempty" gorm:"type:varchar(100);index" validate:"omitempty,max=100"`
	Brand         string  `json:"brand,omitempty" gorm:"type:varchar(50)" validate:"omitempty,max=50"`
	IsActive      bool    `json:"is_active" gorm:"default:true"`
}
