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

type SaleService interface {
	CreateSale(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateSaleRequest, ip string) (*dto.SaleResponse, error)
	// CreateFromShopify ingests a webhook order, idempotent per
	// (tenant, shopify order id).
	CreateFromShopify(ctx context.Context, tenantID uuid.UUID, req dto.ShopifyOrderRequest, ip string) (*dto.SaleResponse, error)
	GetSale(ctx context.Context, tenantID, id uuid.UUID) (*dto.SaleResponse, error)
	UpdateSale(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateSaleRequest, ip string) (*dto.SaleResponse, error)
	ListSales(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error)
}

type saleService struct {
	sales    repository.SaleRepository
	products repository.ProductRepository
	payments repository.PaymentRepository
	ledger   *StockLedger
	recorder ActivityRecorder
}

func NewSaleService(
	sales repository.SaleRepository,
	products repository.ProductRepository,
	payments repository.PaymentRepository,
	ledger *StockLedger,
	recorder ActivityRecorder,
) SaleService {
	return &saleService{
		sales:    sales,
		products: products,
		payments: payments,
		ledger:   ledger,
		recorder: recorder,
	}
}

// ── Consumption planning ──────────────────────────────────────────────────────

// requirement is one aggregated ledger demand of a commit.
type requirement struct {
	productID uuid.UUID
	name      string
	quantity  int
}

// consumptionPlan aggregates demands per product, preserving first-appearance
// order so FIFO behavior stays deterministic.
type consumptionPlan struct {
	order []uuid.UUID
	byID  map[uuid.UUID]*requirement
}

func newConsumptionPlan() *consumptionPlan {
	return &consumptionPlan{byID: make(map[uuid.UUID]*requirement)}
}

func (p *consumptionPlan) add(productID uuid.UUID, name string, qty int) {
	if r, ok := p.byID[productID]; ok {
		r.quantity += qty
		return
	}
	p.byID[productID] = &requirement{productID: productID, name: name, quantity: qty}
	p.order = append(p.order, productID)
}

func (p *consumptionPlan) requirements() []*requirement {
	out := make([]*requirement, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.byID[id])
	}
	return out
}

// planProduct resolves one sale line into ledger demands. A bundle with
// enough kitted stock of its own is consumed directly; otherwise its
// component edges are expanded recursively down to leaves.
func (s *saleService) planProduct(ctx context.Context, tenantID uuid.UUID, p *model.Product, qty int, plan *consumptionPlan) error {
	edges, err := s.products.ComponentsOf(ctx, tenantID, p.ID)
	if err != nil {
		return err
	}
	if len(edges) == 0 {
		plan.add(p.ID, p.Name, qty)
		return nil
	}

	own, err := s.ledger.TotalStock(ctx, nil, tenantID, p.ID)
	if err != nil {
		return err
	}
	if own >= qty {
		plan.add(p.ID, p.Name, qty)
		return nil
	}

	for _, edge := range edges {
		component := edge.Component
		if component == nil {
			component, err = s.products.FindByID(ctx, tenantID, edge.ComponentID)
			if err != nil {
				return apierror.NotFound("producto componente")
			}
		}
		if err := s.planProduct(ctx, tenantID, component, qty*edge.Quantity, plan); err != nil {
			return err
		}
	}
	return nil
}

// ── CreateSale ────────────────────────────────────────────────────────────────
// Single logical transaction per sale:
//   1. Pre-flight: resolve products in-tenant, reject cyclic bundles, build
//      the consumption plan and price the items.
//   2. Acquire per-(tenant, product) locks in deterministic order.
//   3. In a transaction: persist the sale shell + items, FIFO-decrement each
//      requirement recording the rollback journal, record optional payments.
//   4. On any failure: walk the journal in reverse, delete the sale, return.

func (s *saleService) CreateSale(ctx context.Context, tenantID, userID uuid.UUID, req dto.CreateSaleRequest, ip string) (*dto.SaleResponse, error) {
	if req.CustomerName == "" {
		return nil, apierror.Validation("customer_name es requerido")
	}
	if len(req.Items) == 0 {
		return nil, apierror.Validation("la venta requiere al menos un item")
	}

	// Shopify de-duplication: re-ingesting the same order returns the
	// existing sale unchanged.
	if req.ShopifyOrderID != nil {
		if existing, err := s.sales.FindByShopifyOrderID(ctx, tenantID, *req.ShopifyOrderID); err == nil {
			return s.toResponse(ctx, existing)
		}
	}

	saleType := req.SaleType
	if saleType == "" {
		saleType = model.SaleTypeDelivery
	}
	channel := req.SalesChannel
	if channel == "" {
		channel = model.ChannelManual
	}

	// Pre-flight: resolve items, reject cycles, build the plan.
	type pricedItem struct {
		product  *model.Product
		quantity int
	}
	var priced []pricedItem
	plan := newConsumptionPlan()
	total := decimal.Zero

	for _, item := range req.Items {
		if item.Quantity < 1 {
			return nil, apierror.Validation("cantidad inválida")
		}
		pid, err := uuid.Parse(item.ProductID)
		if err != nil {
			return nil, apierror.Validation("product_id inválido")
		}
		p, err := s.products.FindByID(ctx, tenantID, pid)
		if err != nil {
			return nil, apierror.NotFound("producto")
		}
		if err := validateBundleGraph(ctx, s.products, tenantID, p.ID, p.Name, map[uuid.UUID]bool{}); err != nil {
			return nil, err
		}
		if err := s.planProduct(ctx, tenantID, p, item.Quantity, plan); err != nil {
			return nil, err
		}
		priced = append(priced, pricedItem{product: p, quantity: item.Quantity})
		total = total.Add(p.BasePrice.Mul(decimal.NewFromInt(int64(item.Quantity))))
	}

	// Serialize the stock phase: lock every touched product in deterministic
	// order and hold the locks until the transaction resolves.
	lockOrder := make([]uuid.UUID, len(plan.order))
	copy(lockOrder, plan.order)
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i].String() < lockOrder[j].String() })
	for _, pid := range lockOrder {
		unlock := s.ledger.LockProduct(tenantID, pid)
		defer unlock()
	}

	now := time.Now()
	sale := model.Sale{
		TenantID:       tenantID,
		CustomerName:   req.CustomerName,
		Address:        req.Address,
		Phone:          req.Phone,
		SaleType:       saleType,
		SalesChannel:   channel,
		DeliveryStatus: model.DeliveryPending,
		PaymentStatus:  model.PaymentPending,
		TotalAmount:    total,
		ShopifyOrderID: req.ShopifyOrderID,
	}
	if saleType == model.SaleTypeInStore {
		sale.DeliveryStatus = model.DeliveryDelivered
		sale.DateDelivered = &now
	}
	for i, item := range priced {
		sale.Items = append(sale.Items, model.SaleItem{
			TenantID:  tenantID,
			ProductID: item.product.ID,
			Quantity:  item.quantity,
			UnitPrice: item.product.BasePrice,
			Position:  i,
		})
	}

	journal := NewRollbackJournal()
	txErr := runTx(ctx, s.sales.DB(), func(tx *gorm.DB) error {
		if err := s.sales.CreateTx(tx, &sale); err != nil {
			return err
		}

		commit := func() error {
			for _, r := range plan.requirements() {
				available, err := s.ledger.TotalStock(ctx, tx, tenantID, r.productID)
				if err != nil {
					return err
				}
				if available < r.quantity {
					return apierror.InsufficientStock(r.name)
				}
				if _, err := s.ledger.ConsumeFIFO(ctx, tx, tenantID, r.productID, r.quantity, journal); err != nil {
					return err
				}
			}

			paid := decimal.Zero
			if req.InitialPayment != nil {
				if req.InitialPayment.Amount.LessThanOrEqual(decimal.Zero) {
					return apierror.Validation("el monto del pago debe ser positivo")
				}
				if req.InitialPayment.Amount.GreaterThan(total) {
					return apierror.Validation("el pago inicial excede el total de la venta")
				}
				payment := model.Payment{
					TenantID:         tenantID,
					SaleID:           sale.ID,
					Amount:           req.InitialPayment.Amount,
					PaymentVia:       req.InitialPayment.PaymentVia,
					PaymentReference: req.InitialPayment.PaymentReference,
					Notes:            req.InitialPayment.Notes,
				}
				if userID != uuid.Nil {
					payment.CreatedBy = &userID
				}
				if err := s.payments.CreateTx(tx, &payment); err != nil {
					return err
				}
				paid = paid.Add(payment.Amount)
			}
			if req.AutoCompletePayment && saleType == model.SaleTypeInStore {
				remaining := total.Sub(paid)
				if remaining.GreaterThan(decimal.Zero) {
					payment := model.Payment{
						TenantID:   tenantID,
						SaleID:     sale.ID,
						Amount:     remaining,
						PaymentVia: model.PayViaCash,
						Notes:      "pago completo en local",
					}
					if userID != uuid.Nil {
						payment.CreatedBy = &userID
					}
					if err := s.payments.CreateTx(tx, &payment); err != nil {
						return err
					}
					paid = paid.Add(payment.Amount)
				}
			}

			sale.PaymentStatus = computePaymentStatus(paid, total)
			return s.sales.UpdatePaymentStatusTx(tx, tenantID, sale.ID, sale.PaymentStatus)
		}

		if err := commit(); err != nil {
			// Rollback: restore every journaled lot in reverse, then remove
			// the sale shell with anything hanging off it.
			if rerr := s.ledger.Restore(tx, journal); rerr != nil {
				return apierror.Consistency("fallo al restaurar el libro de lotes: " + rerr.Error())
			}
			if derr := s.sales.DeleteTx(tx, tenantID, sale.ID); derr != nil {
				return apierror.Consistency("fallo al eliminar la venta revertida: " + derr.Error())
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
		Module:      permission.ModuleSales,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Venta de %s por %s (%d items)", sale.CustomerName, total, len(sale.Items)),
		TargetID:    &sale.ID,
		TargetType:  strPtr("sale"),
		IPAddress:   ip,
	})

	return s.toResponse(ctx, &sale)
}

// ── Shopify ingest ────────────────────────────────────────────────────────────

func (s *saleService) CreateFromShopify(ctx context.Context, tenantID uuid.UUID, req dto.ShopifyOrderRequest, ip string) (*dto.SaleResponse, error) {
	if existing, err := s.sales.FindByShopifyOrderID(ctx, tenantID, req.OrderID); err == nil {
		return s.toResponse(ctx, existing)
	}

	items := make([]dto.SaleItemRequest, 0, len(req.Items))
	for _, line := range req.Items {
		p, err := s.products.FindBySKU(ctx, tenantID, line.SKU)
		if err != nil {
			return nil, apierror.Newf(apierror.KindNotFound, "producto con sku %s no encontrado", line.SKU)
		}
		items = append(items, dto.SaleItemRequest{ProductID: p.ID.String(), Quantity: line.Quantity})
	}

	return s.CreateSale(ctx, tenantID, uuid.Nil, dto.CreateSaleRequest{
		CustomerName:   req.CustomerName,
		Address:        req.Address,
		Phone:          req.Phone,
		SaleType:       model.SaleTypeDelivery,
		SalesChannel:   model.ChannelShopify,
		Items:          items,
		ShopifyOrderID: &req.OrderID,
	}, ip)
}

// ── State transitions ─────────────────────────────────────────────────────────

var deliveryRank = map[string]int{
	model.DeliveryPending:   0,
	model.DeliveryPreparing: 1,
	model.DeliveryInTransit: 2,
	model.DeliveryDelivered: 3,
}

// canTransition applies the delivery state machine. Forward moves may skip
// intermediate states; cancelado only leaves live states; con_observaciones
// only follows en_transito or entregado. In-store sales never leave
// entregado.
func canTransition(saleType, from, to string) bool {
	if from == to {
		return true
	}
	if saleType == model.SaleTypeInStore {
		return false
	}
	switch to {
	case model.DeliveryCancelled:
		return from != model.DeliveryDelivered && from != model.DeliveryCancelled && from != model.DeliveryObservation
	case model.DeliveryObservation:
		return from == model.DeliveryInTransit || from == model.DeliveryDelivered
	}
	fromRank, okFrom := deliveryRank[from]
	toRank, okTo := deliveryRank[to]
	return okFrom && okTo && toRank > fromRank
}

func (s *saleService) UpdateSale(ctx context.Context, tenantID, userID, id uuid.UUID, req dto.UpdateSaleRequest, ip string) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("venta")
	}

	if req.CustomerName != nil {
		if *req.CustomerName == "" {
			return nil, apierror.Validation("customer_name no puede quedar vacío")
		}
		sale.CustomerName = *req.CustomerName
	}
	if req.Address != nil {
		sale.Address = *req.Address
	}
	if req.Phone != nil {
		sale.Phone = *req.Phone
	}

	if req.DeliveryStatus != nil && *req.DeliveryStatus != sale.DeliveryStatus {
		to := *req.DeliveryStatus
		if !canTransition(sale.SaleType, sale.DeliveryStatus, to) {
			return nil, apierror.InvalidTransition(
				fmt.Sprintf("transición de entrega %s → %s no permitida", sale.DeliveryStatus, to))
		}
		sale.DeliveryStatus = to
		if (to == model.DeliveryDelivered || to == model.DeliveryObservation) && sale.DateDelivered == nil {
			now := time.Now()
			sale.DateDelivered = &now
		}
	}

	if err := s.sales.Update(ctx, sale); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleSales,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Venta de %s actualizada (entrega: %s)", sale.CustomerName, sale.DeliveryStatus),
		TargetID:    &sale.ID,
		TargetType:  strPtr("sale"),
		IPAddress:   ip,
	})

	return s.toResponse(ctx, sale)
}

func (s *saleService) GetSale(ctx context.Context, tenantID, id uuid.UUID) (*dto.SaleResponse, error) {
	sale, err := s.sales.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, apierror.NotFound("venta")
	}
	return s.toResponse(ctx, sale)
}

func (s *saleService) ListSales(ctx context.Context, tenantID uuid.UUID, filter dto.SaleFilter) (*dto.SaleListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	sales, total, err := s.sales.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.SaleResponse, 0, len(sales))
	for i := range sales {
		resp, err := s.toResponse(ctx, &sales[i])
		if err != nil {
			return nil, err
		}
		items = append(items, *resp)
	}
	return &dto.SaleListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

func (s *saleService) toResponse(ctx context.Context, sale *model.Sale) (*dto.SaleResponse, error) {
	totalPaid, err := s.payments.SumBySale(ctx, sale.TenantID, sale.ID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.SaleItemResponse, 0, len(sale.Items))
	for _, item := range sale.Items {
		items = append(items, dto.SaleItemResponse{
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			Subtotal:  item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	payments := make([]dto.PaymentResponse, 0, len(sale.Payments))
	for i := range sale.Payments {
		payments = append(payments, paymentToResponse(&sale.Payments[i]))
	}

	var dateDelivered *string
	if sale.DateDelivered != nil {
		v := sale.DateDelivered.Format("2006-01-02T15:04:05Z")
		dateDelivered = &v
	}

	return &dto.SaleResponse{
		ID:             sale.ID.String(),
		CustomerName:   sale.CustomerName,
		Address:        sale.Address,
		Phone:          sale.Phone,
		SaleType:       sale.SaleType,
		SalesChannel:   sale.SalesChannel,
		DeliveryStatus: sale.DeliveryStatus,
		PaymentStatus:  sale.PaymentStatus,
		TotalAmount:    sale.TotalAmount,
		TotalPaid:      totalPaid,
		BalancePending: sale.TotalAmount.Sub(totalPaid),
		Items:          items,
		Payments:       payments,
		ShopifyOrderID: sale.ShopifyOrderID,
		DateDelivered:  dateDelivered,
		CreatedAt:      sale.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}, nil
}
