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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderService interface {
	CreateOrder(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateOrderRequest, ip string) (*dto.OrderResponse, error)
	GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*dto.OrderResponse, error)
	ListOrders(ctx context.Context, tenantID uuid.UUID, filter dto.OrderFilter) (*dto.OrderListResponse, error)
	// ConfirmReception turns received entries into lots and advances the
	// order status. Partial receptions are allowed and repeatable.
	ConfirmReception(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.ReceiveRequest, ip string) (*dto.ReceiveResponse, error)
	MarkPaid(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) (*dto.OrderResponse, error)
	DeleteOrder(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error
}

type orderService struct {
	orders    repository.OrderRepository
	lots      repository.LotRepository
	products  repository.ProductRepository
	suppliers repository.SupplierRepository
	ledger    *StockLedger
	recorder  ActivityRecorder
}

func NewOrderService(
	orders repository.OrderRepository,
	lots repository.LotRepository,
	products repository.ProductRepository,
	suppliers repository.SupplierRepository,
	ledger *StockLedger,
	recorder ActivityRecorder,
) OrderService {
	return &orderService{
		orders:    orders,
		lots:      lots,
		products:  products,
		suppliers: suppliers,
		ledger:    ledger,
		recorder:  recorder,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateOrderRequest, ip string) (*dto.OrderResponse, error) {
	order := model.InboundOrder{
		TenantID:      tenantID,
		SupplierName:  req.SupplierName,
		InvoiceNumber: req.InvoiceNumber,
		Status:        model.OrderStatusPending,
		Total:         req.Total,
		Notes:         req.Notes,
	}

	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, apierror.Validation("supplier_id inválido")
		}
		supplier, err := s.suppliers.FindByID(ctx, tenantID, sid)
		if err != nil {
			return nil, apierror.NotFound("proveedor")
		}
		order.SupplierID = &supplier.ID
		if order.SupplierName == "" {
			order.SupplierName = supplier.Name
		}
	} else if order.SupplierName == "" {
		return nil, apierror.Validation("se requiere supplier_id o supplier_name")
	}

	itemsTotal := decimal.Zero
	for i, item := range req.Items {
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Validation("product_id inválido")
		}
		p, err := s.products.FindByID(ctx, tenantID, pid)
		if err != nil {
			return nil, apierror.NotFound("producto")
		}
		order.Items = append(order.Items, model.OrderItem{
			TenantID:        tenantID,
			ProductID:       p.ID,
			ProductName:     p.Name,
			ProductSKU:      p.SKU,
			QuantityOrdered: item.QuantityOrdered,
			UnitCost:        item.UnitCost,
			Position:        i,
		})
		itemsTotal = itemsTotal.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.QuantityOrdered))))
	}
	if order.Total.IsZero() {
		order.Total = itemsTotal
	}

	if err := s.orders.Create(ctx, &order); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Pedido %s de %s creado", order.InvoiceNumber, order.SupplierName),
		TargetID:    &order.ID,
		TargetType:  strPtr("order"),
		IPAddress:   ip,
	})

	return orderToResponse(&order), nil
}

func (s *orderService) GetOrder(ctx context.Context, tenantID, id uuid.UUID) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("pedido")
	}
	return orderToResponse(order), nil
}

func (s *orderService) ListOrders(ctx context.Context, tenantID uuid.UUID, filter dto.OrderFilter) (*dto.OrderListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	orders, total, err := s.orders.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(orders))
	for i := range orders {
		items = append(items, *orderToResponse(&orders[i]))
	}
	return &dto.OrderListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// ConfirmReception validates every entry, then inside one transaction creates
// the lots, bumps each line's received quantity (clamped at the ordered
// quantity) and derives the order status from the line totals.
func (s *orderService) ConfirmReception(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.ReceiveRequest, ip string) (*dto.ReceiveResponse, error) {
	order, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("pedido")
	}
	if order.Status == model.OrderStatusPaid {
		return nil, apierror.InvalidTransition("el pedido ya está pagado")
	}

	itemsByProduct := make(map[uuid.UUID]*model.OrderItem, len(order.Items))
	for i := range order.Items {
		itemsByProduct[order.Items[i].ProductID] = &order.Items[i]
	}

	var abbr string
	if order.SupplierID != nil {
		if supplier, err := s.suppliers.FindByID(ctx, tenantID, *order.SupplierID); err == nil && supplier.Abbreviation != nil {
			abbr = *supplier.Abbreviation
		}
	}

	now := time.Now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	type stagedLot struct {
		lot  model.Lot
		item *model.OrderItem
	}
	var staged []stagedLot

	for _, entry := range req.Entries {
		pid, err := uuid.Parse(entry.ProductID)
		if err != nil {
			return nil, apierror.Validation("product_id inválido")
		}
		// Entries may cover products the order never listed: they still
		// become lots under the order, they just don't move any counter.
		item := itemsByProduct[pid]
		product, err := s.products.FindByID(ctx, tenantID, pid)
		if err != nil {
			return nil, apierror.NotFound("producto")
		}

		unitCost := decimal.Zero
		if item != nil {
			unitCost = item.UnitCost
		}
		if entry.UnitCost != nil {
			if entry.UnitCost.IsNegative() {
				return nil, apierror.Validation("unit_cost no puede ser negativo")
			}
			unitCost = *entry.UnitCost
		}

		var expiry *time.Time
		if entry.ExpiryDate != nil && *entry.ExpiryDate != "" {
			parsed, err := time.ParseInLocation("2006-01-02", *entry.ExpiryDate, now.Location())
			if err != nil {
				return nil, apierror.Validation("expiry_date inválida, formato YYYY-MM-DD")
			}
			if parsed.Before(today) {
				return nil, apierror.Validation("expiry_date no puede ser anterior a hoy")
			}
			expiry = &parsed
		}

		code := GenerateLotCode(abbr, product.SKU, now)
		if entry.LotCode != nil && *entry.LotCode != "" {
			code = *entry.LotCode
		}

		staged = append(staged, stagedLot{
			lot: model.Lot{
				TenantID:        tenantID,
				ProductID:       pid,
				OrderID:         &order.ID,
				LotCode:         code,
				QuantityInitial: entry.Quantity,
				QuantityCurrent: entry.Quantity,
				UnitCost:        unitCost,
				ExpiryDate:      expiry,
			},
			item: item,
		})
	}

	created := make([]dto.LotResponse, 0, len(staged))
	txErr := runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		for i := range staged {
			st := &staged[i]
			if err := s.ledger.CreateLot(tx, &st.lot); err != nil {
				return err
			}
			if st.item != nil {
				received := st.item.QuantityReceived + st.lot.QuantityInitial
				if received > st.item.QuantityOrdered {
					received = st.item.QuantityOrdered
				}
				st.item.QuantityReceived = received
				if err := s.orders.UpdateItemReceivedTx(tx, tenantID, st.item.ID, received); err != nil {
					return err
				}
			}
			created = append(created, lotToResponse(&st.lot))
		}

		allReceived := true
		for i := range order.Items {
			if order.Items[i].QuantityReceived < order.Items[i].QuantityOrdered {
				allReceived = false
				break
			}
		}
		status := model.OrderStatusPartiallyReceived
		if allReceived {
			status = model.OrderStatusReceived
		}
		order.Status = status
		var dateReceived *time.Time
		if order.DateReceived == nil {
			dateReceived = &now
			order.DateReceived = &now
		}
		return s.orders.UpdateStatusTx(tx, tenantID, order.ID, status, dateReceived)
	})
	if txErr != nil {
		return nil, txErr
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionReceive,
		Description: fmt.Sprintf("Recepción de pedido %s: %d lotes creados", order.InvoiceNumber, len(created)),
		TargetID:    &order.ID,
		TargetType:  strPtr("order"),
		IPAddress:   ip,
	})

	return &dto.ReceiveResponse{Order: *orderToResponse(order), LotsCreated: created}, nil
}

func (s *orderService) MarkPaid(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) (*dto.OrderResponse, error) {
	order, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("pedido")
	}
	if order.Status != model.OrderStatusReceived {
		return nil, apierror.InvalidTransition("solo un pedido recibido puede marcarse como pagado")
	}
	order.Status = model.OrderStatusPaid
	if err := s.orders.UpdateStatusTx(nil, tenantID, order.ID, model.OrderStatusPaid, nil); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Pedido %s marcado como pagado", order.InvoiceNumber),
		TargetID:    &order.ID,
		TargetType:  strPtr("order"),
		IPAddress:   ip,
	})

	return orderToResponse(order), nil
}

// DeleteOrder refuses once any reception happened: lots referencing the
// order must keep their provenance.
func (s *orderService) DeleteOrder(ctx context.Context, tenantID, userID, id uuid.UUID, ip string) error {
	order, err := s.orders.FindByID(ctx, tenantID, id)
	if err != nil {
		return apierror.NotFound("pedido")
	}
	count, err := s.lots.CountByOrder(ctx, tenantID, order.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return apierror.InvalidTransition("el pedido tiene lotes asociados y no puede eliminarse")
	}
	if err := s.orders.Delete(ctx, tenantID, order.ID); err != nil {
		return err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleOrders,
		Action:      permission.ActionDelete,
		Description: fmt.Sprintf("Pedido %s eliminado", order.InvoiceNumber),
		TargetID:    &order.ID,
		TargetType:  strPtr("order"),
		IPAddress:   ip,
	})
	return nil
}

func orderToResponse(o *model.InboundOrder) *dto.OrderResponse {
	items := make([]dto.OrderItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, dto.OrderItemResponse{
			ProductID:        item.ProductID.String(),
			ProductName:      item.ProductName,
			ProductSKU:       item.ProductSKU,
			QuantityOrdered:  item.QuantityOrdered,
			QuantityReceived: item.QuantityReceived,
			UnitCost:         item.UnitCost,
		})
	}
	var supplierID *string
	if o.SupplierID != nil {
		v := o.SupplierID.String()
		supplierID = &v
	}
	var dateReceived *string
	if o.DateReceived != nil {
		v := o.DateReceived.Format("2006-01-02T15:04:05Z")
		dateReceived = &v
	}
	return &dto.OrderResponse{
		ID:            o.ID.String(),
		SupplierID:    supplierID,
		SupplierName:  o.SupplierName,
		InvoiceNumber: o.InvoiceNumber,
		Status:        o.Status,
		Total:         o.Total,
		Notes:         o.Notes,
		DateReceived:  dateReceived,
		Items:         items,
		CreatedAt:     o.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func lotToResponse(l *model.Lot) dto.LotResponse {
	var expiry *string
	if l.ExpiryDate != nil {
		v := l.ExpiryDate.Format("2006-01-02")
		expiry = &v
	}
	return dto.LotResponse{
		ID:              l.ID.String(),
		ProductID:       l.ProductID.String(),
		LotCode:         l.LotCode,
		QuantityInitial: l.QuantityInitial,
		QuantityCurrent: l.QuantityCurrent,
		UnitCost:        l.UnitCost,
		ExpiryDate:      expiry,
		CreatedAt:       l.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}
