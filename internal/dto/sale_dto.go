package dto

import "github.com/shopspring/decimal"

type SaleItemRequest struct {
	ProductID string `json:"product_id" validate:"required,uuid"`
	Quantity  int    `json:"quantity"   validate:"required,min=1"`
}

type CreateSaleRequest struct {
	CustomerName string            `json:"customer_name" validate:"required"`
	Address      string            `json:"address"`
	Phone        string            `json:"phone"`
	SaleType     string            `json:"sale_type"     validate:"omitempty,oneof=con_despacho en_local"`
	SalesChannel string            `json:"sales_channel" validate:"omitempty,oneof=manual whatsapp shopify web mayorista"`
	Items        []SaleItemRequest `json:"items"         validate:"required,min=1,dive"`
	// InitialPayment optionally records a first payment inside the commit.
	InitialPayment *PaymentRequest `json:"initial_payment"`
	// AutoComplete: for en_local sales, record a single payment equal to the
	// total amount.
	AutoCompletePayment bool    `json:"auto_complete_payment"`
	ShopifyOrderID      *string `json:"shopify_order_id"`
}

type UpdateSaleRequest struct {
	CustomerName   *string `json:"customer_name"`
	Address        *string `json:"address"`
	Phone          *string `json:"phone"`
	DeliveryStatus *string `json:"delivery_status" validate:"omitempty,oneof=pendiente en_preparacion en_transito entregado con_observaciones cancelado"`
}

type PaymentRequest struct {
	Amount           decimal.Decimal `json:"amount"            validate:"required"`
	PaymentVia       string          `json:"payment_via"       validate:"required,oneof=efectivo transferencia cheque tarjeta otro"`
	PaymentReference *string         `json:"payment_reference"`
	Notes            string          `json:"notes"`
}

type SaleItemResponse struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type PaymentResponse struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentVia       string          `json:"payment_via"`
	PaymentReference *string         `json:"payment_reference"`
	Notes            string          `json:"notes"`
	CreatedAt        string          `json:"created_at"`
}

type SaleResponse struct {
	ID             string             `json:"id"`
	CustomerName   string             `json:"customer_name"`
	Address        string             `json:"address"`
	Phone          string             `json:"phone"`
	SaleType       string             `json:"sale_type"`
	SalesChannel   string             `json:"sales_channel"`
	DeliveryStatus string             `json:"delivery_status"`
	PaymentStatus  string             `json:"payment_status"`
	TotalAmount    decimal.Decimal    `json:"total_amount"`
	TotalPaid      decimal.Decimal    `json:"total_paid"`
	BalancePending decimal.Decimal    `json:"balance_pending"`
	Items          []SaleItemResponse `json:"items"`
	Payments       []PaymentResponse  `json:"payments"`
	ShopifyOrderID *string            `json:"shopify_order_id,omitempty"`
	DateDelivered  *string            `json:"date_delivered"`
	CreatedAt      string             `json:"created_at"`
}

type SaleFilter struct {
	Date           string `form:"date"` // YYYY-MM-DD
	DeliveryStatus string `form:"delivery_status"`
	PaymentStatus  string `form:"payment_status"`
	Channel        string `form:"channel"`
	Page           int    `form:"page,default=1"   validate:"min=1"`
	Limit          int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type SaleListResponse struct {
	Data  []SaleResponse `json:"data"`
	Total int64          `json:"total"`
	Page  int            `json:"page"`
	Limit int            `json:"limit"`
}
