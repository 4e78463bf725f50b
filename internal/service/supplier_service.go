package service

import (
	"context"
	"fmt"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/permission"
	"distriflow/internal/repository"

	"github.com/google/uuid"
)

type SupplierService interface {
	CreateSupplier(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateSupplierRequest, ip string) (*dto.SupplierResponse, error)
	GetSupplier(ctx context.Context, tenantID, id uuid.UUID) (*dto.SupplierResponse, error)
	ListSuppliers(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]dto.SupplierResponse, error)
	UpdateSupplier(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateSupplierRequest, ip string) (*dto.SupplierResponse, error)
}

type supplierService struct {
	suppliers repository.SupplierRepository
	recorder  ActivityRecorder
}

func NewSupplierService(suppliers repository.SupplierRepository, recorder ActivityRecorder) SupplierService {
	return &supplierService{suppliers: suppliers, recorder: recorder}
}

func (s *supplierService) CreateSupplier(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateSupplierRequest, ip string) (*dto.SupplierResponse, error) {
	if req.RUT != nil && *req.RUT != "" {
		if _, err := s.suppliers.FindByRUT(ctx, tenantID, *req.RUT); err == nil {
			return nil, apierror.Duplicate(fmt.Sprintf("ya existe un proveedor con rut %s", *req.RUT))
		}
	}
	supplier := model.Supplier{
		TenantID:     tenantID,
		Name:         req.Name,
		RUT:          req.RUT,
		Abbreviation: req.Abbreviation,
		ContactInfo:  req.ContactInfo,
		IsActive:     true,
	}
	if err := s.suppliers.Create(ctx, &supplier); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Proveedor %s creado", supplier.Name),
		TargetID:    &supplier.ID,
		TargetType:  strPtr("supplier"),
		IPAddress:   ip,
	})

	return supplierToResponse(&supplier), nil
}

func (s *supplierService) GetSupplier(ctx context.Context, tenantID, id uuid.UUID) (*dto.SupplierResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("proveedor")
	}
	return supplierToResponse(supplier), nil
}

func (s *supplierService) ListSuppliers(ctx context.Context, tenantID uuid.UUID, includeInactive bool) ([]dto.SupplierResponse, error) {
	suppliers, err := s.suppliers.List(ctx, tenantID, includeInactive)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SupplierResponse, 0, len(suppliers))
	for i := range suppliers {
		out = append(out, *supplierToResponse(&suppliers[i]))
	}
	return out, nil
}

func (s *supplierService) UpdateSupplier(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateSupplierRequest, ip string) (*dto.SupplierResponse, error) {
	supplier, err := s.suppliers.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("proveedor")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apierror.Validation("name no puede quedar vacío")
		}
		supplier.Name = *req.Name
	}
	if req.RUT != nil {
		supplier.RUT = req.RUT
	}
	if req.Abbreviation != nil {
		supplier.Abbreviation = req.Abbreviation
	}
	if req.ContactInfo != nil {
		supplier.ContactInfo = *req.ContactInfo
	}
	if req.IsActive != nil {
		supplier.IsActive = *req.IsActive
	}
	if err := s.suppliers.Update(ctx, supplier); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Proveedor %s actualizado", supplier.Name),
		TargetID:    &supplier.ID,
		TargetType:  strPtr("supplier"),
		IPAddress:   ip,
	})

	return supplierToResponse(supplier), nil
}

func supplierToResponse(s *model.Supplier) *dto.SupplierResponse {
	return &dto.SupplierResponse{
		ID:           s.ID.String(),
		Name:         s.Name,
		RUT:          s.RUT,
		Abbreviation: s.Abbreviation,
		ContactInfo:  s.ContactInfo,
		IsActive:     s.IsActive,
	}
}
