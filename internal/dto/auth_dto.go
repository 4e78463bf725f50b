package dto

type LoginRequest struct {
	Tenant   string `json:"tenant"   validate:"required"` // tenant slug
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresIn   int          `json:"expires_in"`
	User        UserResponse `json:"user"`
}

type PasswordResetRequest struct {
	Tenant   string `json:"tenant"   validate:"required"`
	Username string `json:"username" validate:"required"`
	Email    string `json:"email"    validate:"required,email"`
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,min=3"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"     validate:"required,oneof=admin manager warehouse sales driver"`
}

type UpdateUserRequest struct {
	Password *string `json:"password" validate:"omitempty,min=6"`
	Role     *string `json:"role"     validate:"omitempty,oneof=admin manager warehouse sales driver"`
	IsActive *bool   `json:"is_active"`
}

type UserResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}
