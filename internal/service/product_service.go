package service

import (
	"context"
	"fmt"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/permission"
	"distriflow/internal/repository"

	"github.com/google/uuid"
)

type ProductService interface {
	CreateProduct(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateProductRequest, ip string) (*dto.ProductResponse, error)
	GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*dto.ProductResponse, error)
	ListProducts(ctx context.Context, tenantID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error)
	UpdateProduct(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateProductRequest, ip string) (*dto.ProductResponse, error)
	DeleteProduct(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error
	AddComponent(ctx context.Context, tenantID, userID, bundleID uuid.UUID, req dto.CreateComponentRequest, ip string) (*dto.ComponentResponse, error)
	ListComponents(ctx context.Context, tenantID, bundleID uuid.UUID) ([]dto.ComponentResponse, error)
	// StockAlerts lists products whose stock on hand is at or below their
	// critical threshold.
	StockAlerts(ctx context.Context, tenantID uuid.UUID) ([]dto.StockAlertResponse, error)
}

type productService struct {
	products  repository.ProductRepository
	ledger    *StockLedger
	inventory InventoryService
	recorder  ActivityRecorder
}

func NewProductService(
	products repository.ProductRepository,
	ledger *StockLedger,
	inventory InventoryService,
	recorder ActivityRecorder,
) ProductService {
	return &productService{
		products:  products,
		ledger:    ledger,
		inventory: inventory,
		recorder:  recorder,
	}
}

func (s *productService) CreateProduct(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateProductRequest, ip string) (*dto.ProductResponse, error) {
	if _, err := s.products.FindBySKU(ctx, tenantID, req.SKU); err == nil {
		return nil, apierror.Duplicate(fmt.Sprintf("ya existe un producto con sku %s", req.SKU))
	}

	product := model.Product{
		TenantID:      tenantID,
		SKU:           req.SKU,
		Name:          req.Name,
		Description:   req.Description,
		Category:      req.Category,
		BasePrice:     req.BasePrice,
		CriticalStock: req.CriticalStock,
	}
	if req.ExpiryDate != nil && *req.ExpiryDate != "" {
		parsed, err := time.Parse("2006-01-02", *req.ExpiryDate)
		if err != nil {
			return nil, apierror.Validation("expiry_date inválida, formato YYYY-MM-DD")
		}
		product.ExpiryDate = &parsed
	}
	if err := s.products.Create(ctx, &product); err != nil {
		return nil, err
	}

	if req.InitialStock != nil {
		if err := s.inventory.Adjust(ctx, tenantID, userID, dto.AdjustmentRequest{
			ProductID: product.ID.String(),
			Quantity:  req.InitialStock.Quantity,
			UnitCost:  &req.InitialStock.UnitCost,
			Notes:     "stock inicial",
		}, ip); err != nil {
			return nil, err
		}
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Producto %s (%s) creado", product.Name, product.SKU),
		TargetID:    &product.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})

	return s.toResponse(ctx, &product)
}

func (s *productService) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("producto")
	}
	return s.toResponse(ctx, product)
}

func (s *productService) ListProducts(ctx context.Context, tenantID uuid.UUID, filter dto.ProductFilter) (*dto.ProductListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	products, total, err := s.products.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		resp, err := s.toResponse(ctx, &products[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	return &dto.ProductListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *productService) UpdateProduct(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateProductRequest, ip string) (*dto.ProductResponse, error) {
	product, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("producto")
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, apierror.Validation("name no puede quedar vacío")
		}
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = req.Description
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.BasePrice != nil {
		if req.BasePrice.IsNegative() {
			return nil, apierror.Validation("base_price no puede ser negativo")
		}
		product.BasePrice = *req.BasePrice
	}
	if req.CriticalStock != nil {
		product.CriticalStock = *req.CriticalStock
	}
	if req.ExpiryDate != nil {
		if *req.ExpiryDate == "" {
			product.ExpiryDate = nil
		} else {
			parsed, err := time.Parse("2006-01-02", *req.ExpiryDate)
			if err != nil {
				return nil, apierror.Validation("expiry_date inválida, formato YYYY-MM-DD")
			}
			product.ExpiryDate = &parsed
		}
	}
	if err := s.products.Update(ctx, product); err != nil {
		return nil, err
	}

	if req.StockAdjustment != nil {
		if err := s.inventory.Adjust(ctx, tenantID, userID, dto.AdjustmentRequest{
			ProductID: product.ID.String(),
			Quantity:  req.StockAdjustment.Quantity,
			Reason:    req.StockAdjustment.Reason,
			Notes:     req.StockAdjustment.Notes,
		}, ip); err != nil {
			return nil, err
		}
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Producto %s (%s) actualizado", product.Name, product.SKU),
		TargetID:    &product.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})

	return s.toResponse(ctx, product)
}

func (s *productService) DeleteProduct(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error {
	product, err := s.products.FindByID(ctx, tenantID, id)
	if err != nil {
		return apierror.NotFound("producto")
	}
	stock, err := s.ledger.TotalStock(ctx, nil, tenantID, id)
	if err != nil {
		return err
	}
	if stock > 0 {
		return apierror.InvalidTransition("el producto tiene stock y no puede eliminarse")
	}
	if err := s.products.Delete(ctx, tenantID, id); err != nil {
		return err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionDelete,
		Description: fmt.Sprintf("Producto %s (%s) eliminado", product.Name, product.SKU),
		TargetID:    &product.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})
	return nil
}

func (s *productService) AddComponent(ctx context.Context, tenantID, userID, bundleID uuid.UUID, req dto.CreateComponentRequest, ip string) (*dto.ComponentResponse, error) {
	bundle, err := s.products.FindByID(ctx, tenantID, bundleID)
	if err != nil {
		return nil, apierror.NotFound("producto")
	}
	cid, err := uuid.Parse(req.ComponentID)
	if err != nil {
		return nil, apierror.Validation("component_id inválido")
	}
	if cid == bundleID {
		return nil, apierror.InvalidBundleGraph(bundle.Name)
	}
	component, err := s.products.FindByID(ctx, tenantID, cid)
	if err != nil {
		return nil, apierror.NotFound("producto componente")
	}

	cyclic, err := wouldCreateCycle(ctx, s.products, tenantID, bundleID, cid)
	if err != nil {
		return nil, err
	}
	if cyclic {
		return nil, apierror.InvalidBundleGraph(bundle.Name)
	}

	edge := model.BundleComponent{
		TenantID:    tenantID,
		BundleID:    bundleID,
		ComponentID: cid,
		Quantity:    req.Quantity,
	}
	if err := s.products.CreateComponent(ctx, &edge); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Componente %s agregado al paquete %s", component.Name, bundle.Name),
		TargetID:    &bundle.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})

	return &dto.ComponentResponse{
		ID:            edge.ID.String(),
		ComponentID:   component.ID.String(),
		ComponentSKU:  component.SKU,
		ComponentName: component.Name,
		Quantity:      edge.Quantity,
	}, nil
}

func (s *productService) ListComponents(ctx context.Context, tenantID, bundleID uuid.UUID) ([]dto.ComponentResponse, error) {
	if _, err := s.products.FindByID(ctx, tenantID, bundleID); err != nil {
		return nil, apierror.NotFound("producto")
	}
	edges, err := s.products.ComponentsOf(ctx, tenantID, bundleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ComponentResponse, 0, len(edges))
	for _, edge := range edges {
		resp := dto.ComponentResponse{
			ID:          edge.ID.String(),
			ComponentID: edge.ComponentID.String(),
			Quantity:    edge.Quantity,
		}
		if edge.Component != nil {
			resp.ComponentSKU = edge.Component.SKU
			resp.ComponentName = edge.Component.Name
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *productService) StockAlerts(ctx context.Context, tenantID uuid.UUID) ([]dto.StockAlertResponse, error) {
	products, _, err := s.products.List(ctx, tenantID, dto.ProductFilter{Page: 1, Limit: 10000})
	if err != nil {
		return nil, err
	}
	var alerts []dto.StockAlertResponse
	for i := range products {
		p := &products[i]
		stock, err := s.ledger.TotalStock(ctx, nil, tenantID, p.ID)
		if err != nil {
			return nil, err
		}
		if stock <= p.CriticalStock {
			alerts = append(alerts, dto.StockAlertResponse{
				ProductID:     p.ID.String(),
				SKU:           p.SKU,
				Name:          p.Name,
				TotalStock:    stock,
				CriticalStock: p.CriticalStock,
			})
		}
	}
	return alerts, nil
}

func (s *productService) toResponse(ctx context.Context, p *model.Product) (*dto.ProductResponse, error) {
	stock, err := s.ledger.TotalStock(ctx, nil, p.TenantID, p.ID)
	if err != nil {
		return nil, err
	}
	isBundle, err := s.products.IsBundle(ctx, p.TenantID, p.ID)
	if err != nil {
		return nil, err
	}
	return &dto.ProductResponse{
		ID:            p.ID.String(),
		SKU:           p.SKU,
		Name:          p.Name,
		Description:   p.Description,
		Category:      p.Category,
		BasePrice:     p.BasePrice,
		CriticalStock: p.CriticalStock,
		TotalStock:    stock,
		IsBundle:      isBundle,
		ShopifyID:     p.ShopifyID,
		CreatedAt:     p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}
