package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildOrderSvc() (OrderService, *stubOrderRepo, *stubLotRepo, *stubProductRepo, *stubSupplierRepo) {
	orders := newStubOrderRepo()
	lots := newStubLotRepo()
	products := newStubProductRepo()
	suppliers := newStubSupplierRepo()
	svc := NewOrderService(orders, lots, products, suppliers, NewStockLedger(lots), &stubRecorder{})
	return svc, orders, lots, products, suppliers
}

func TestCreateOrder_TotalFromItems(t *testing.T) {
	svc, _, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	harina := seedProduct(products, tenant, "HARINA-1K", "Harina 1kg", 1400)
	azucar := seedProduct(products, tenant, "AZUCAR-1K", "Azúcar 1kg", 1100)

	resp, err := svc.CreateOrder(context.Background(), tenant, uuid.New(), dto.CreateOrderRequest{
		SupplierName:  "Distribuidora Central",
		InvoiceNumber: "F-1001",
		Items: []dto.OrderItemRequest{
			{ProductID: harina.ID.String(), QuantityOrdered: 10, UnitCost: decimal.NewFromInt(900)},
			{ProductID: azucar.ID.String(), QuantityOrdered: 5, UnitCost: decimal.NewFromInt(700)},
		},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPending, resp.Status)
	assert.Equal(t, "12500", resp.Total.String())
	require.Len(t, resp.Items, 2)
	assert.Equal(t, "HARINA-1K", resp.Items[0].ProductSKU)
	assert.Equal(t, 0, resp.Items[0].QuantityReceived)
}

func TestCreateOrder_SupplierLookup(t *testing.T) {
	svc, _, _, _, suppliers := buildOrderSvc()
	tenant := uuid.New()
	supplier := &model.Supplier{ID: uuid.New(), TenantID: tenant, Name: "Comercial Andes", IsActive: true}
	suppliers.suppliers = append(suppliers.suppliers, supplier)

	sid := supplier.ID.String()
	resp, err := svc.CreateOrder(context.Background(), tenant, uuid.New(), dto.CreateOrderRequest{
		SupplierID:    &sid,
		InvoiceNumber: "F-1002",
	}, "")
	require.NoError(t, err)
	assert.Equal(t, "Comercial Andes", resp.SupplierName)
	require.NotNil(t, resp.SupplierID)
	assert.Equal(t, sid, *resp.SupplierID)
}

func TestCreateOrder_RequiresSupplier(t *testing.T) {
	svc, _, _, _, _ := buildOrderSvc()
	_, err := svc.CreateOrder(context.Background(), uuid.New(), uuid.New(), dto.CreateOrderRequest{
		InvoiceNumber: "F-1003",
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestConfirmReception_PartialThenFull(t *testing.T) {
	svc, orders, lots, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "LECHE-1L", "Leche Entera 1L", 1300)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Lácteos del Sur",
		InvoiceNumber: "F-2001",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 10, UnitCost: decimal.NewFromInt(800)},
		},
	}, "")
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	first, err := svc.ConfirmReception(context.Background(), tenant, user, orderID, dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 4}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusPartiallyReceived, first.Order.Status)
	require.Len(t, first.LotsCreated, 1)
	assert.Equal(t, 4, first.LotsCreated[0].QuantityCurrent)
	assert.Equal(t, "800", first.LotsCreated[0].UnitCost.String())
	assert.Equal(t, 4, first.Order.Items[0].QuantityReceived)
	require.NotNil(t, first.Order.DateReceived)

	stored, err := orders.FindByID(context.Background(), tenant, orderID)
	require.NoError(t, err)
	firstReception := *stored.DateReceived

	// Over-receiving clamps at the ordered quantity; the order flips to
	// received and DateReceived stays at the first reception.
	second, err := svc.ConfirmReception(context.Background(), tenant, user, orderID, dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 10}},
	}, "")
	require.NoError(t, err)

	assert.Equal(t, model.OrderStatusReceived, second.Order.Status)
	assert.Equal(t, 10, second.Order.Items[0].QuantityReceived)
	assert.True(t, stored.DateReceived.Equal(firstReception))

	total, err := lots.TotalStock(context.Background(), nil, tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 14, total) // two physical lots of 4 and 10
}

func TestConfirmReception_OverridesUnitCostAndLotCode(t *testing.T) {
	svc, _, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "QUESO-500", "Queso Gauda 500g", 5500)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Lácteos del Sur",
		InvoiceNumber: "F-2002",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 6, UnitCost: decimal.NewFromInt(3000)},
		},
	}, "")
	require.NoError(t, err)

	cost := decimal.NewFromInt(3200)
	code := "QG-2026-08"
	resp, err := svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{
			ProductID: p.ID.String(),
			Quantity:  6,
			UnitCost:  &cost,
			LotCode:   &code,
		}},
	}, "")
	require.NoError(t, err)
	require.Len(t, resp.LotsCreated, 1)
	assert.Equal(t, "3200", resp.LotsCreated[0].UnitCost.String())
	assert.Equal(t, "QG-2026-08", resp.LotsCreated[0].LotCode)
}

func TestConfirmReception_SupplierAbbrInLotCode(t *testing.T) {
	svc, _, _, products, suppliers := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	abbr := "DIS"
	supplier := &model.Supplier{ID: uuid.New(), TenantID: tenant, Name: "Distribuidora", Abbreviation: &abbr, IsActive: true}
	suppliers.suppliers = append(suppliers.suppliers, supplier)
	p := seedProduct(products, tenant, "FIDEOS-400", "Fideos 400g", 1200)

	sid := supplier.ID.String()
	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierID:    &sid,
		InvoiceNumber: "F-2003",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 3, UnitCost: decimal.NewFromInt(700)},
		},
	}, "")
	require.NoError(t, err)

	resp, err := svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 3}},
	}, "")
	require.NoError(t, err)
	require.Len(t, resp.LotsCreated, 1)
	assert.True(t, strings.HasPrefix(resp.LotsCreated[0].LotCode, "LOT-DIS-FIDEOS-400-"))
}

func TestConfirmReception_PastExpiryRejected(t *testing.T) {
	svc, _, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "YOGUR-125", "Yogur 125g", 500)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Lácteos del Sur",
		InvoiceNumber: "F-2004",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 12, UnitCost: decimal.NewFromInt(250)},
		},
	}, "")
	require.NoError(t, err)

	yesterday := time.Now().AddDate(0, 0, -1).Format("2006-01-02")
	_, err = svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 12, ExpiryDate: &yesterday}},
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestConfirmReception_ForeignProductRejected(t *testing.T) {
	svc, _, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "CAFE-250", "Café 250g", 5000)
	foreign := seedProduct(products, uuid.New(), "MATE-500", "Mate 500g", 3800)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Importadora",
		InvoiceNumber: "F-2005",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 5, UnitCost: decimal.NewFromInt(3000)},
		},
	}, "")
	require.NoError(t, err)

	_, err = svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: foreign.ID.String(), Quantity: 5}},
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindNotFound, apierror.KindOf(err))
}

func TestConfirmReception_UnlistedProductCreatesLot(t *testing.T) {
	svc, _, lots, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "CAFE-250", "Café 250g", 5000)
	extra := seedProduct(products, tenant, "MATE-500", "Mate 500g", 3800)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Importadora",
		InvoiceNumber: "F-2006",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 5, UnitCost: decimal.NewFromInt(3000)},
		},
	}, "")
	require.NoError(t, err)

	// The supplier shipped something the order never listed: it enters as a
	// lot under the order without touching any line counter.
	cost := decimal.NewFromInt(2100)
	resp, err := svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: extra.ID.String(), Quantity: 3, UnitCost: &cost}},
	}, "")
	require.NoError(t, err)

	require.Len(t, resp.LotsCreated, 1)
	assert.Equal(t, "2100", resp.LotsCreated[0].UnitCost.String())
	assert.Equal(t, model.OrderStatusPartiallyReceived, resp.Order.Status)
	assert.Equal(t, 0, resp.Order.Items[0].QuantityReceived)

	total, err := lots.TotalStock(context.Background(), nil, tenant, extra.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
}

func TestConfirmReception_NoLineItemsGoesReceived(t *testing.T) {
	svc, _, lots, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "TE-20U", "Té 20 bolsitas", 1600)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Importadora",
		InvoiceNumber: "F-2007",
	}, "")
	require.NoError(t, err)

	cost := decimal.NewFromInt(950)
	resp, err := svc.ConfirmReception(context.Background(), tenant, user, uuid.MustParse(created.ID), dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 6, UnitCost: &cost}},
	}, "")
	require.NoError(t, err)

	// Without line items there is nothing left to satisfy.
	assert.Equal(t, model.OrderStatusReceived, resp.Order.Status)
	require.Len(t, resp.LotsCreated, 1)
	require.NotNil(t, resp.Order.DateReceived)

	total, err := lots.TotalStock(context.Background(), nil, tenant, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 6, total)
}

func TestMarkPaid_OnlyFromReceived(t *testing.T) {
	svc, _, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "VINAGRE-500", "Vinagre 500ml", 900)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Comercial Andes",
		InvoiceNumber: "F-3001",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 8, UnitCost: decimal.NewFromInt(400)},
		},
	}, "")
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	// Pending orders cannot be paid.
	_, err = svc.MarkPaid(context.Background(), tenant, user, orderID, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(err))

	_, err = svc.ConfirmReception(context.Background(), tenant, user, orderID, dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 8}},
	}, "")
	require.NoError(t, err)

	paid, err := svc.MarkPaid(context.Background(), tenant, user, orderID, "")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusPaid, paid.Status)

	// Paid orders reject further receptions.
	_, err = svc.ConfirmReception(context.Background(), tenant, user, orderID, dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 1}},
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(err))
}

func TestDeleteOrder_WithLotsRejected(t *testing.T) {
	svc, orders, _, products, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()
	p := seedProduct(products, tenant, "GALLETAS-150", "Galletas 150g", 1000)

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Comercial Andes",
		InvoiceNumber: "F-3002",
		Items: []dto.OrderItemRequest{
			{ProductID: p.ID.String(), QuantityOrdered: 20, UnitCost: decimal.NewFromInt(500)},
		},
	}, "")
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	_, err = svc.ConfirmReception(context.Background(), tenant, user, orderID, dto.ReceiveRequest{
		Entries: []dto.ReceiveEntry{{ProductID: p.ID.String(), Quantity: 20}},
	}, "")
	require.NoError(t, err)

	err = svc.DeleteOrder(context.Background(), tenant, user, orderID, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(err))

	// Still there.
	_, err = orders.FindByID(context.Background(), tenant, orderID)
	assert.NoError(t, err)
}

func TestDeleteOrder_PendingSucceeds(t *testing.T) {
	svc, orders, _, _, _ := buildOrderSvc()
	tenant := uuid.New()
	user := uuid.New()

	created, err := svc.CreateOrder(context.Background(), tenant, user, dto.CreateOrderRequest{
		SupplierName:  "Comercial Andes",
		InvoiceNumber: "F-3003",
	}, "")
	require.NoError(t, err)
	orderID := uuid.MustParse(created.ID)

	require.NoError(t, svc.DeleteOrder(context.Background(), tenant, user, orderID, ""))
	_, err = orders.FindByID(context.Background(), tenant, orderID)
	assert.Error(t, err)
}
