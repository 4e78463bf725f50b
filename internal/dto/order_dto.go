package dto

import "github.com/shopspring/decimal"

type OrderItemRequest struct {
	ProductID       string          `json:"product_id"       validate:"required,uuid"`
	QuantityOrdered int             `json:"quantity_ordered" validate:"required,min=1"`
	UnitCost        decimal.Decimal `json:"unit_cost"        validate:"min=0"`
}

type CreateOrderRequest struct {
	SupplierID    *string            `json:"supplier_id"    validate:"omitempty,uuid"`
	SupplierName  string             `json:"supplier_name"` // free text when no supplier record
	InvoiceNumber string             `json:"invoice_number" validate:"required"`
	Total         decimal.Decimal    `json:"total"          validate:"min=0"`
	Notes         string             `json:"notes"`
	Items         []OrderItemRequest `json:"items"          validate:"omitempty,dive"`
}

// ReceiveEntry is one confirmed reception line. UnitCost inherits from the
// matching order line item when absent; ExpiryDate must be today or later.
type ReceiveEntry struct {
	ProductID  string           `json:"product_id" validate:"required,uuid"`
	Quantity   int              `json:"quantity"   validate:"required,min=1"`
	LotCode    *string          `json:"lot_code"`
	UnitCost   *decimal.Decimal `json:"unit_cost"  validate:"omitempty"`
	ExpiryDate *string          `json:"expiry_date"` // YYYY-MM-DD
}

type ReceiveRequest struct {
	Entries []ReceiveEntry `json:"entries" validate:"required,min=1,dive"`
}

type OrderItemResponse struct {
	ProductID        string          `json:"product_id"`
	ProductName      string          `json:"product_name"`
	ProductSKU       string          `json:"product_sku"`
	QuantityOrdered  int             `json:"quantity_ordered"`
	QuantityReceived int             `json:"quantity_received"`
	UnitCost         decimal.Decimal `json:"unit_cost"`
}

type OrderResponse struct {
	ID            string              `json:"id"`
	SupplierID    *string             `json:"supplier_id"`
	SupplierName  string              `json:"supplier_name"`
	InvoiceNumber string              `json:"invoice_number"`
	Status        string              `json:"status"`
	Total         decimal.Decimal     `json:"total"`
	Notes         string              `json:"notes"`
	DateReceived  *string             `json:"date_received"`
	Items         []OrderItemResponse `json:"items"`
	CreatedAt     string              `json:"created_at"`
}

type OrderFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type OrderListResponse struct {
	Data  []OrderResponse `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

// ReceiveResponse reports created lots after a reception confirmation.
type ReceiveResponse struct {
	Order       OrderResponse `json:"order"`
	LotsCreated []LotResponse `json:"lots_created"`
}

type LotResponse struct {
	ID              string          `json:"id"`
	ProductID       string          `json:"product_id"`
	LotCode         string          `json:"lot_code"`
	QuantityInitial int             `json:"quantity_initial"`
	QuantityCurrent int             `json:"quantity_current"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	ExpiryDate      *string         `json:"expiry_date"`
	CreatedAt       string          `json:"created_at"`
}
