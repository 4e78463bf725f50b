package dto

type CreateSupplierRequest struct {
	Name         string  `json:"name"         validate:"required"`
	RUT          *string `json:"rut"`
	Abbreviation *string `json:"abbreviation" validate:"omitempty,max=10"`
	ContactInfo  string  `json:"contact_info"`
}

type UpdateSupplierRequest struct {
	Name         *string `json:"name"`
	RUT          *string `json:"rut"`
	Abbreviation *string `json:"abbreviation" validate:"omitempty,max=10"`
	ContactInfo  *string `json:"contact_info"`
	IsActive     *bool   `json:"is_active"`
}

type SupplierResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	RUT          *string `json:"rut"`
	Abbreviation *string `json:"abbreviation"`
	ContactInfo  string  `json:"contact_info"`
	IsActive     bool    `json:"is_active"`
}
