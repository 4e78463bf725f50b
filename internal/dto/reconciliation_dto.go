package dto

import "github.com/shopspring/decimal"

type UploadResponse struct {
	Created    int `json:"created"`
	Duplicates int `json:"duplicates"`
	Skipped    int `json:"skipped"`
}

type TransactionResponse struct {
	ID              string          `json:"id"`
	Date            string          `json:"date"`
	Amount          decimal.Decimal `json:"amount"`
	Description     string          `json:"description"`
	Reference       string          `json:"reference"`
	TransactionType string          `json:"transaction_type"`
	Status          string          `json:"status"`
	MatchedSaleID   *string         `json:"matched_sale_id"`
	MatchType       *string         `json:"match_type"`
	SourceFile      string          `json:"source_file"`
	RowNumber       int             `json:"row_number"`
}

type TransactionFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type TransactionListResponse struct {
	Data  []TransactionResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}

// MatchSuggestion scores one candidate sale for a credit transaction.
type MatchSuggestion struct {
	SaleID       string          `json:"sale_id"`
	CustomerName string          `json:"customer_name"`
	TotalAmount  decimal.Decimal `json:"total_amount"`
	SaleDate     string          `json:"sale_date"`
	Confidence   int             `json:"confidence"`
}

type ManualMatchRequest struct {
	SaleID string `json:"sale_id" validate:"required,uuid"`
}

type IgnoreBatchRequest struct {
	TransactionIDs []string `json:"transaction_ids" validate:"required,min=1,dive,uuid"`
}

type AutoMatchResponse struct {
	Matched int `json:"matched"`
	Skipped int `json:"skipped"`
}
