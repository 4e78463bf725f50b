package dto

type ActivityFilter struct {
	Module string `form:"module"`
	Action string `form:"action"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type ActivityResponse struct {
	ID          string  `json:"id"`
	UserID      *string `json:"user_id"`
	Module      string  `json:"module"`
	Action      string  `json:"action"`
	Description string  `json:"description"`
	TargetID    *string `json:"target_id"`
	TargetType  *string `json:"target_type"`
	Details     string  `json:"details"`
	IPAddress   string  `json:"ip_address"`
	CreatedAt   string  `json:"created_at"`
}

type ActivityListResponse struct {
	Data  []ActivityResponse `json:"data"`
	Total int64              `json:"total"`
	Page  int                `json:"page"`
	Limit int                `json:"limit"`
}
