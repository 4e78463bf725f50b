package dto

import "github.com/shopspring/decimal"

type ProductFilter struct {
	SKU      string `form:"sku"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Page     int    `form:"page,default=1"   validate:"min=1"`
	Limit    int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// InitialStock optionally seeds a lot when creating a product.
type InitialStock struct {
	Quantity int             `json:"quantity"  validate:"required,min=1"`
	UnitCost decimal.Decimal `json:"unit_cost" validate:"min=0"`
	LotCode  *string         `json:"lot_code"`
}

type CreateProductRequest struct {
	SKU           string          `json:"sku"            validate:"required"`
	Name          string          `json:"name"           validate:"required"`
	Description   *string         `json:"description"`
	Category      string          `json:"category"`
	BasePrice     decimal.Decimal `json:"base_price"     validate:"min=0"`
	CriticalStock int             `json:"critical_stock" validate:"min=0"`
	ExpiryDate    *string         `json:"expiry_date"` // YYYY-MM-DD
	InitialStock  *InitialStock   `json:"initial_stock"`
}

// StockAdjustment is the optional adjustment block on product edit.
// Positive quantities create a lot against the daily adjustment order;
// negative quantities FIFO-consume and record a wastage.
type StockAdjustment struct {
	Quantity int    `json:"quantity" validate:"required"`
	Reason   string `json:"reason"   validate:"omitempty,oneof=vencido dañado perdido robo otro"`
	Notes    string `json:"notes"`
}

type UpdateProductRequest struct {
	Name            *string          `json:"name"`
	Description     *string          `json:"description"`
	Category        *string          `json:"category"`
	BasePrice       *decimal.Decimal `json:"base_price"`
	CriticalStock   *int             `json:"critical_stock" validate:"omitempty,min=0"`
	ExpiryDate      *string          `json:"expiry_date"`
	StockAdjustment *StockAdjustment `json:"stock_adjustment"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Description   *string         `json:"description"`
	Category      string          `json:"category"`
	BasePrice     decimal.Decimal `json:"base_price"`
	CriticalStock int             `json:"critical_stock"`
	TotalStock    int             `json:"total_stock"`
	IsBundle      bool            `json:"is_bundle"`
	ShopifyID     *string         `json:"shopify_id,omitempty"`
	CreatedAt     string          `json:"created_at"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

type CreateComponentRequest struct {
	ComponentID string `json:"component_id" validate:"required,uuid"`
	Quantity    int    `json:"quantity"     validate:"required,min=1"`
}

type ComponentResponse struct {
	ID            string `json:"id"`
	ComponentID   string `json:"component_id"`
	ComponentSKU  string `json:"component_sku"`
	ComponentName string `json:"component_name"`
	Quantity      int    `json:"quantity"`
}

type StockAlertResponse struct {
	ProductID     string `json:"product_id"`
	SKU           string `json:"sku"`
	Name          string `json:"name"`
	TotalStock    int    `json:"total_stock"`
	CriticalStock int    `json:"critical_stock"`
}
