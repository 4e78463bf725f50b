package dto

import "github.com/shopspring/decimal"

type CreateWastageRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
	Reason    string `json:"reason"     validate:"required,oneof=vencido dañado perdido robo otro"`
	Notes     string `json:"notes"`
}

type WastageResponse struct {
	ID        string `json:"id"`
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	Reason    string `json:"reason"`
	Notes     string `json:"notes"`
	CreatedAt string `json:"created_at"`
}

// AdjustmentRequest covers signed manual stock corrections. Positive
// quantities create a lot against the daily adjustment order; negative
// quantities FIFO-consume and record a wastage with the given reason.
type AdjustmentRequest struct {
	ProductID string           `json:"product_id" validate:"required,uuid"`
	Quantity  int              `json:"quantity"   validate:"required"`
	Reason    string           `json:"reason"     validate:"omitempty,oneof=vencido dañado perdido robo otro"`
	UnitCost  *decimal.Decimal `json:"unit_cost"`
	Notes     string           `json:"notes"`
}

// AssemblyRequest kits a bundle: consumes component stock FIFO and produces
// a lot of the bundle product.
type AssemblyRequest struct {
	BundleID string  `json:"bundle_id" validate:"required,uuid"`
	Quantity int     `json:"quantity"  validate:"required,min=1"`
	LotCode  *string `json:"lot_code"`
}

type AssemblyResponse struct {
	Lot LotResponse `json:"lot"`
}
