package dto

// ShopifyOrderRequest is the normalized payload the webhook endpoint accepts.
// Line items reference products by SKU (Shopify's variant SKU must match the
// tenant catalog). Ingest is idempotent per (tenant, order id).
type ShopifyOrderRequest struct {
	Tenant       string `json:"tenant"   validate:"required"` // tenant slug
	OrderID      string `json:"order_id" validate:"required"`
	CustomerName string `json:"customer_name" validate:"required"`
	Address      string `json:"address"`
	Phone        string `json:"phone"`
	Items        []ShopifyLineItem `json:"items" validate:"required,min=1,dive"`
}

type ShopifyLineItem struct {
	SKU      string `json:"sku"      validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}
