package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/permission"
	"distriflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryService groups the non-sale stock movements: wastage, manual
// adjustments and bundle assembly.
type InventoryService interface {
	RecordWastage(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateWastageRequest, ip string) (*dto.WastageResponse, error)
	ListWastage(ctx context.Context, tenantID uuid.UUID) ([]dto.WastageResponse, error)
	// DeleteWastage removes the audit row only; consumed stock stays consumed.
	DeleteWastage(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error
	Adjust(ctx context.Context, tenantID, userID uuid.UUID, req dto.AdjustmentRequest, ip string) error
	// Assemble kits a bundle: consumes component stock FIFO and produces a
	// lot of the bundle product costed at the consumed component cost.
	Assemble(ctx context.Context, tenantID, userID uuid.UUID, req dto.AssemblyRequest, ip string) (*dto.AssemblyResponse, error)
}

type inventoryService struct {
	wastages repository.WastageRepository
	orders   repository.OrderRepository
	products repository.ProductRepository
	ledger   *StockLedger
	recorder ActivityRecorder
}

func NewInventoryService(
	wastages repository.WastageRepository,
	orders repository.OrderRepository,
	products repository.ProductRepository,
	ledger *StockLedger,
	recorder ActivityRecorder,
) InventoryService {
	return &inventoryService{
		wastages: wastages,
		orders:   orders,
		products: products,
		ledger:   ledger,
		recorder: recorder,
	}
}

func (s *inventoryService) RecordWastage(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateWastageRequest, ip string) (*dto.WastageResponse, error) {
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apierror.Validation("product_id inválido")
	}
	product, err := s.products.FindByID(ctx, tenantID, pid)
	if err != nil {
		return nil, apierror.NotFound("producto")
	}
	if req.Quantity < 1 {
		return nil, apierror.Validation("cantidad inválida")
	}

	unlock := s.ledger.LockProduct(tenantID, pid)
	defer unlock()

	wastage := model.Wastage{
		TenantID:  tenantID,
		ProductID: pid,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}
	journal := NewRollbackJournal()
	txErr := runTx(ctx, s.wastages.DB(), func(tx *gorm.DB) error {
		available, err := s.ledger.TotalStock(ctx, tx, tenantID, pid)
		if err != nil {
			return err
		}
		if available < req.Quantity {
			return apierror.InsufficientStock(product.Name)
		}
		if _, err := s.ledger.ConsumeFIFO(ctx, tx, tenantID, pid, req.Quantity, journal); err != nil {
			return err
		}
		return s.wastages.CreateTx(tx, &wastage)
	})
	if txErr != nil {
		return nil, txErr
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleWastage,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Merma de %d x %s (%s)", req.Quantity, product.Name, req.Reason),
		TargetID:    &wastage.ID,
		TargetType:  strPtr("wastage"),
		IPAddress:   ip,
	})

	return wastageToResponse(&wastage), nil
}

func (s *inventoryService) ListWastage(ctx context.Context, tenantID uuid.UUID) ([]dto.WastageResponse, error) {
	rows, err := s.wastages.List(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.WastageResponse, 0, len(rows))
	for i := range rows {
		out = append(out, *wastageToResponse(&rows[i]))
	}
	return out, nil
}

func (s *inventoryService) DeleteWastage(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error {
	wastage, err := s.wastages.FindByID(ctx, tenantID, id)
	if err != nil {
		return apierror.NotFound("merma")
	}
	if err := s.wastages.Delete(ctx, tenantID, id); err != nil {
		return err
	}
	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleWastage,
		Action:      permission.ActionDelete,
		Description: fmt.Sprintf("Registro de merma eliminado (%d unidades, %s)", wastage.Quantity, wastage.Reason),
		TargetID:    &wastage.ID,
		TargetType:  strPtr("wastage"),
		IPAddress:   ip,
	})
	return nil
}

// adjustmentInvoice names the synthetic daily order that positive manual
// adjustments hang their lots from.
func adjustmentInvoice(now time.Time) string {
	return "AJUSTE-" + now.Format("20060102")
}

func (s *inventoryService) adjustmentOrder(ctx context.Context, tenantID uuid.UUID, now time.Time) (*model.InboundOrder, error) {
	invoice := adjustmentInvoice(now)
	if order, err := s.orders.FindAdjustmentOrder(ctx, tenantID, invoice); err == nil {
		return order, nil
	}
	order := model.InboundOrder{
		TenantID:      tenantID,
		SupplierName:  "Ajuste de Inventario",
		InvoiceNumber: invoice,
		Status:        model.OrderStatusReceived,
		Total:         decimal.Zero,
		DateReceived:  &now,
	}
	if err := s.orders.Create(ctx, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

// Adjust applies a signed manual correction. Positive quantities create a
// lot against the day's adjustment order; negative ones FIFO-consume and
// leave a wastage row so the decrease stays auditable.
func (s *inventoryService) Adjust(ctx context.Context, tenantID, userID uuid.UUID, req dto.AdjustmentRequest, ip string) error {
	if req.Quantity == 0 {
		return apierror.Validation("la cantidad del ajuste no puede ser cero")
	}
	pid, err := uuid.Parse(req.ProductID)
	if err != nil {
		return apierror.Validation("product_id inválido")
	}
	product, err := s.products.FindByID(ctx, tenantID, pid)
	if err != nil {
		return apierror.NotFound("producto")
	}

	unlock := s.ledger.LockProduct(tenantID, pid)
	defer unlock()

	now := time.Now()

	if req.Quantity > 0 {
		order, err := s.adjustmentOrder(ctx, tenantID, now)
		if err != nil {
			return err
		}
		unitCost := decimal.Zero
		if req.UnitCost != nil {
			if req.UnitCost.IsNegative() {
				return apierror.Validation("unit_cost no puede ser negativo")
			}
			unitCost = *req.UnitCost
		}
		lot := model.Lot{
			TenantID:        tenantID,
			ProductID:       pid,
			OrderID:         &order.ID,
			LotCode:         GenerateLotCode("AJU", product.SKU, now),
			QuantityInitial: req.Quantity,
			QuantityCurrent: req.Quantity,
			UnitCost:        unitCost,
		}
		if err := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
			return s.ledger.CreateLot(tx, &lot)
		}); err != nil {
			return err
		}
		record(ctx, s.recorder, model.ActivityLog{
			TenantID:    tenantID,
			UserID:      &userID,
			Module:      permission.ModuleProducts,
			Action:      permission.ActionEdit,
			Description: fmt.Sprintf("Ajuste +%d de %s", req.Quantity, product.Name),
			TargetID:    &product.ID,
			TargetType:  strPtr("product"),
			IPAddress:   ip,
		})
		return nil
	}

	qty := -req.Quantity
	reason := req.Reason
	if reason == "" {
		reason = model.WastageOther
	}
	wastage := model.Wastage{
		TenantID:  tenantID,
		ProductID: pid,
		Quantity:  qty,
		Reason:    reason,
		Notes:     req.Notes,
	}
	journal := NewRollbackJournal()
	txErr := runTx(ctx, s.wastages.DB(), func(tx *gorm.DB) error {
		available, err := s.ledger.TotalStock(ctx, tx, tenantID, pid)
		if err != nil {
			return err
		}
		if available < qty {
			return apierror.InsufficientStock(product.Name)
		}
		if _, err := s.ledger.ConsumeFIFO(ctx, tx, tenantID, pid, qty, journal); err != nil {
			return err
		}
		return s.wastages.CreateTx(tx, &wastage)
	})
	if txErr != nil {
		return txErr
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Ajuste -%d de %s (%s)", qty, product.Name, reason),
		TargetID:    &product.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})
	return nil
}

func (s *inventoryService) Assemble(ctx context.Context, tenantID, userID uuid.UUID, req dto.AssemblyRequest, ip string) (*dto.AssemblyResponse, error) {
	bid, err := uuid.Parse(req.BundleID)
	if err != nil {
		return nil, apierror.Validation("bundle_id inválido")
	}
	bundle, err := s.products.FindByID(ctx, tenantID, bid)
	if err != nil {
		return nil, apierror.NotFound("producto")
	}
	if err := validateBundleGraph(ctx, s.products, tenantID, bundle.ID, bundle.Name, map[uuid.UUID]bool{}); err != nil {
		return nil, err
	}
	edges, err := s.products.ComponentsOf(ctx, tenantID, bid)
	if err != nil {
		return nil, err
	}
	if len(edges) == 0 {
		return nil, apierror.Validationf("el producto %s no tiene componentes", bundle.Name)
	}

	// Lock the bundle and every component in deterministic order.
	lockIDs := []uuid.UUID{bid}
	for _, e := range edges {
		lockIDs = append(lockIDs, e.ComponentID)
	}
	for _, pid := range sortedUnique(lockIDs) {
		unlock := s.ledger.LockProduct(tenantID, pid)
		defer unlock()
	}

	now := time.Now()
	order, err := s.adjustmentOrder(ctx, tenantID, now)
	if err != nil {
		return nil, err
	}

	code := GenerateLotCode("ARM", bundle.SKU, now)
	if req.LotCode != nil && *req.LotCode != "" {
		code = *req.LotCode
	}
	lot := model.Lot{
		TenantID:        tenantID,
		ProductID:       bid,
		OrderID:         &order.ID,
		LotCode:         code,
		QuantityInitial: req.Quantity,
		QuantityCurrent: req.Quantity,
	}

	journal := NewRollbackJournal()
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		commit := func() error {
			totalCost := decimal.Zero
			for _, edge := range edges {
				need := req.Quantity * edge.Quantity
				available, err := s.ledger.TotalStock(ctx, tx, tenantID, edge.ComponentID)
				if err != nil {
					return err
				}
				if available < need {
					name := edge.ComponentID.String()
					if edge.Component != nil {
						name = edge.Component.Name
					}
					return apierror.InsufficientStock(name)
				}
				cost, err := s.ledger.ConsumeFIFO(ctx, tx, tenantID, edge.ComponentID, need, journal)
				if err != nil {
					return err
				}
				totalCost = totalCost.Add(cost)
			}

			lot.UnitCost = totalCost.Div(decimal.NewFromInt(int64(req.Quantity))).Round(2)
			return s.ledger.CreateLot(tx, &lot)
		}

		if err := commit(); err != nil {
			// Rollback: a later component may fail after earlier ones were
			// already consumed, so restore the journal in reverse.
			if rerr := s.ledger.Restore(tx, journal); rerr != nil {
				return apierror.Consistency("fallo al restaurar el libro de lotes: " + rerr.Error())
			}
			return err
		}
		return nil
	})
	if txErr != nil {
		return nil, txErr
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleProducts,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Armado de %d x %s", req.Quantity, bundle.Name),
		TargetID:    &bundle.ID,
		TargetType:  strPtr("product"),
		IPAddress:   ip,
	})

	resp := lotToResponse(&lot)
	return &dto.AssemblyResponse{Lot: resp}, nil
}

func sortedUnique(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]bool, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func wastageToResponse(w *model.Wastage) *dto.WastageResponse {
	return &dto.WastageResponse{
		ID:        w.ID.String(),
		ProductID: w.ProductID.String(),
		Quantity:  w.Quantity,
		Reason:    w.Reason,
		Notes:     w.Notes,
		CreatedAt: w.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
