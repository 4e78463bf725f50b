package service

import (
	"context"
	"errors"
	"time"

	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory repositories for service tests. DB() returns nil so runTx calls
// the closure directly, without a real transaction.

var errStubNotFound = errors.New("not found")

// ── Lots ─────────────────────────────────────────────────────────────────────

type stubLotRepo struct {
	lots []*model.Lot
	seq  int
}

func newStubLotRepo() *stubLotRepo { return &stubLotRepo{} }

func (r *stubLotRepo) CreateTx(_ *gorm.DB, l *model.Lot) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	// Strictly increasing CreatedAt keeps FIFO order deterministic.
	r.seq++
	l.CreatedAt = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(r.seq) * time.Second)
	r.lots = append(r.lots, l)
	return nil
}

func (r *stubLotRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Lot, error) {
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.ID == id {
			return l, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubLotRepo) FindFIFO(_ context.Context, _ *gorm.DB, tenantID, productID uuid.UUID) ([]model.Lot, error) {
	var out []model.Lot
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.ProductID == productID && l.QuantityCurrent > 0 {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (r *stubLotRepo) SetQuantityTx(_ *gorm.DB, tenantID, lotID uuid.UUID, quantity int) error {
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.ID == lotID {
			l.QuantityCurrent = quantity
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubLotRepo) TotalStock(_ context.Context, _ *gorm.DB, tenantID, productID uuid.UUID) (int, error) {
	total := 0
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.ProductID == productID {
			total += l.QuantityCurrent
		}
	}
	return total, nil
}

func (r *stubLotRepo) CountByOrder(_ context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	for _, l := range r.lots {
		if l.TenantID == tenantID && l.OrderID != nil && *l.OrderID == orderID {
			count++
		}
	}
	return count, nil
}

func (r *stubLotRepo) DB() *gorm.DB { return nil }

var _ repository.LotRepository = (*stubLotRepo)(nil)

// ── Products ─────────────────────────────────────────────────────────────────

type stubProductRepo struct {
	products []*model.Product
	edges    []*model.BundleComponent
}

func newStubProductRepo() *stubProductRepo { return &stubProductRepo{} }

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.products = append(r.products, p)
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Product, error) {
	for _, p := range r.products {
		if p.TenantID == tenantID && p.ID == id {
			return p, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubProductRepo) FindBySKU(_ context.Context, tenantID uuid.UUID, sku string) (*model.Product, error) {
	for _, p := range r.products {
		if p.TenantID == tenantID && p.SKU == sku {
			return p, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubProductRepo) List(_ context.Context, tenantID uuid.UUID, _ dto.ProductFilter) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range r.products {
		if p.TenantID == tenantID {
			out = append(out, *p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubProductRepo) Update(_ context.Context, p *model.Product) error {
	for _, existing := range r.products {
		if existing.ID == p.ID {
			*existing = *p
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubProductRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	for i, p := range r.products {
		if p.TenantID == tenantID && p.ID == id {
			r.products = append(r.products[:i], r.products[i+1:]...)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubProductRepo) CreateComponent(_ context.Context, e *model.BundleComponent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	r.edges = append(r.edges, e)
	return nil
}

func (r *stubProductRepo) ComponentsOf(_ context.Context, tenantID, bundleID uuid.UUID) ([]model.BundleComponent, error) {
	var out []model.BundleComponent
	for _, e := range r.edges {
		if e.TenantID == tenantID && e.BundleID == bundleID {
			edge := *e
			if component, err := r.FindByID(context.Background(), tenantID, e.ComponentID); err == nil {
				edge.Component = component
			}
			out = append(out, edge)
		}
	}
	return out, nil
}

func (r *stubProductRepo) IsBundle(_ context.Context, tenantID, productID uuid.UUID) (bool, error) {
	for _, e := range r.edges {
		if e.TenantID == tenantID && e.BundleID == productID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

var _ repository.ProductRepository = (*stubProductRepo)(nil)

// ── Sales ────────────────────────────────────────────────────────────────────

type stubSaleRepo struct {
	sales []*model.Sale
}

func newStubSaleRepo() *stubSaleRepo { return &stubSaleRepo{} }

func (r *stubSaleRepo) CreateTx(_ *gorm.DB, s *model.Sale) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	for i := range s.Items {
		if s.Items[i].ID == uuid.Nil {
			s.Items[i].ID = uuid.New()
		}
		s.Items[i].SaleID = s.ID
	}
	r.sales = append(r.sales, s)
	return nil
}

func (r *stubSaleRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Sale, error) {
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.ID == id {
			return s, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubSaleRepo) FindByShopifyOrderID(_ context.Context, tenantID uuid.UUID, orderID string) (*model.Sale, error) {
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.ShopifyOrderID != nil && *s.ShopifyOrderID == orderID {
			return s, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubSaleRepo) List(_ context.Context, tenantID uuid.UUID, _ dto.SaleFilter) ([]model.Sale, int64, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.TenantID == tenantID {
			out = append(out, *s)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubSaleRepo) FindUnpaidInWindow(_ context.Context, tenantID uuid.UUID, from, to time.Time) ([]model.Sale, error) {
	var out []model.Sale
	for _, s := range r.sales {
		if s.TenantID != tenantID || s.PaymentStatus == model.PaymentPaid {
			continue
		}
		if s.CreatedAt.Before(from) || s.CreatedAt.After(to) {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (r *stubSaleRepo) Update(_ context.Context, s *model.Sale) error {
	for _, existing := range r.sales {
		if existing.ID == s.ID {
			*existing = *s
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubSaleRepo) UpdatePaymentStatusTx(_ *gorm.DB, tenantID, id uuid.UUID, status string) error {
	for _, s := range r.sales {
		if s.TenantID == tenantID && s.ID == id {
			s.PaymentStatus = status
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubSaleRepo) DeleteTx(_ *gorm.DB, tenantID, id uuid.UUID) error {
	for i, s := range r.sales {
		if s.TenantID == tenantID && s.ID == id {
			r.sales = append(r.sales[:i], r.sales[i+1:]...)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubSaleRepo) DB() *gorm.DB { return nil }

var _ repository.SaleRepository = (*stubSaleRepo)(nil)

// ── Payments ─────────────────────────────────────────────────────────────────

type stubPaymentRepo struct {
	payments []*model.Payment
}

func newStubPaymentRepo() *stubPaymentRepo { return &stubPaymentRepo{} }

func (r *stubPaymentRepo) CreateTx(_ *gorm.DB, p *model.Payment) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	r.payments = append(r.payments, p)
	return nil
}

func (r *stubPaymentRepo) ListBySale(_ context.Context, tenantID, saleID uuid.UUID) ([]model.Payment, error) {
	var out []model.Payment
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.SaleID == saleID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubPaymentRepo) SumBySale(_ context.Context, tenantID, saleID uuid.UUID) (decimal.Decimal, error) {
	total := decimal.Zero
	for _, p := range r.payments {
		if p.TenantID == tenantID && p.SaleID == saleID {
			total = total.Add(p.Amount)
		}
	}
	return total, nil
}

func (r *stubPaymentRepo) DeleteByReference(_ context.Context, tenantID, saleID uuid.UUID, reference string) error {
	for i, p := range r.payments {
		if p.TenantID == tenantID && p.SaleID == saleID &&
			p.PaymentReference != nil && *p.PaymentReference == reference {
			r.payments = append(r.payments[:i], r.payments[i+1:]...)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubPaymentRepo) DB() *gorm.DB { return nil }

var _ repository.PaymentRepository = (*stubPaymentRepo)(nil)

// ── Orders ───────────────────────────────────────────────────────────────────

type stubOrderRepo struct {
	orders []*model.InboundOrder
}

func newStubOrderRepo() *stubOrderRepo { return &stubOrderRepo{} }

func (r *stubOrderRepo) Create(_ context.Context, o *model.InboundOrder) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	for i := range o.Items {
		if o.Items[i].ID == uuid.Nil {
			o.Items[i].ID = uuid.New()
		}
		o.Items[i].OrderID = o.ID
	}
	r.orders = append(r.orders, o)
	return nil
}

func (r *stubOrderRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.InboundOrder, error) {
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.ID == id {
			return o, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubOrderRepo) List(_ context.Context, tenantID uuid.UUID, _ dto.OrderFilter) ([]model.InboundOrder, int64, error) {
	var out []model.InboundOrder
	for _, o := range r.orders {
		if o.TenantID == tenantID {
			out = append(out, *o)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubOrderRepo) UpdateStatusTx(_ *gorm.DB, tenantID, id uuid.UUID, status string, dateReceived *time.Time) error {
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.ID == id {
			o.Status = status
			if dateReceived != nil {
				o.DateReceived = dateReceived
			}
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubOrderRepo) UpdateItemReceivedTx(_ *gorm.DB, tenantID, itemID uuid.UUID, quantityReceived int) error {
	for _, o := range r.orders {
		if o.TenantID != tenantID {
			continue
		}
		for i := range o.Items {
			if o.Items[i].ID == itemID {
				o.Items[i].QuantityReceived = quantityReceived
				return nil
			}
		}
	}
	return errStubNotFound
}

func (r *stubOrderRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	for i, o := range r.orders {
		if o.TenantID == tenantID && o.ID == id {
			r.orders = append(r.orders[:i], r.orders[i+1:]...)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubOrderRepo) FindAdjustmentOrder(_ context.Context, tenantID uuid.UUID, invoiceNumber string) (*model.InboundOrder, error) {
	for _, o := range r.orders {
		if o.TenantID == tenantID && o.InvoiceNumber == invoiceNumber {
			return o, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubOrderRepo) DB() *gorm.DB { return nil }

var _ repository.OrderRepository = (*stubOrderRepo)(nil)

// ── Suppliers ────────────────────────────────────────────────────────────────

type stubSupplierRepo struct {
	suppliers []*model.Supplier
}

func newStubSupplierRepo() *stubSupplierRepo { return &stubSupplierRepo{} }

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	r.suppliers = append(r.suppliers, s)
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Supplier, error) {
	for _, s := range r.suppliers {
		if s.TenantID == tenantID && s.ID == id {
			return s, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubSupplierRepo) FindByRUT(_ context.Context, tenantID uuid.UUID, rut string) (*model.Supplier, error) {
	for _, s := range r.suppliers {
		if s.TenantID == tenantID && s.RUT != nil && *s.RUT == rut {
			return s, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubSupplierRepo) List(_ context.Context, tenantID uuid.UUID, includeInactive bool) ([]model.Supplier, error) {
	var out []model.Supplier
	for _, s := range r.suppliers {
		if s.TenantID == tenantID && (includeInactive || s.IsActive) {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r *stubSupplierRepo) Update(_ context.Context, s *model.Supplier) error {
	for _, existing := range r.suppliers {
		if existing.ID == s.ID {
			*existing = *s
			return nil
		}
	}
	return errStubNotFound
}

var _ repository.SupplierRepository = (*stubSupplierRepo)(nil)

// ── Wastage ──────────────────────────────────────────────────────────────────

type stubWastageRepo struct {
	rows []*model.Wastage
}

func newStubWastageRepo() *stubWastageRepo { return &stubWastageRepo{} }

func (r *stubWastageRepo) CreateTx(_ *gorm.DB, w *model.Wastage) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	r.rows = append(r.rows, w)
	return nil
}

func (r *stubWastageRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.Wastage, error) {
	for _, w := range r.rows {
		if w.TenantID == tenantID && w.ID == id {
			return w, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubWastageRepo) List(_ context.Context, tenantID uuid.UUID) ([]model.Wastage, error) {
	var out []model.Wastage
	for _, w := range r.rows {
		if w.TenantID == tenantID {
			out = append(out, *w)
		}
	}
	return out, nil
}

func (r *stubWastageRepo) Delete(_ context.Context, tenantID, id uuid.UUID) error {
	for i, w := range r.rows {
		if w.TenantID == tenantID && w.ID == id {
			r.rows = append(r.rows[:i], r.rows[i+1:]...)
			return nil
		}
	}
	return errStubNotFound
}

func (r *stubWastageRepo) DB() *gorm.DB { return nil }

var _ repository.WastageRepository = (*stubWastageRepo)(nil)

// ── Bank transactions ────────────────────────────────────────────────────────

type stubBankTxRepo struct {
	txs []*model.BankTransaction
}

func newStubBankTxRepo() *stubBankTxRepo { return &stubBankTxRepo{} }

func (r *stubBankTxRepo) Create(_ context.Context, tx *model.BankTransaction) error {
	if tx.ID == uuid.Nil {
		tx.ID = uuid.New()
	}
	r.txs = append(r.txs, tx)
	return nil
}

func (r *stubBankTxRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.BankTransaction, error) {
	for _, tx := range r.txs {
		if tx.TenantID == tenantID && tx.ID == id {
			return tx, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubBankTxRepo) Exists(_ context.Context, tenantID uuid.UUID, date time.Time, amount decimal.Decimal, description string) (bool, error) {
	for _, tx := range r.txs {
		if tx.TenantID == tenantID && tx.Date.Equal(date) && tx.Amount.Equal(amount) && tx.Description == description {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubBankTxRepo) List(_ context.Context, tenantID uuid.UUID, filter dto.TransactionFilter) ([]model.BankTransaction, int64, error) {
	var out []model.BankTransaction
	for _, tx := range r.txs {
		if tx.TenantID != tenantID {
			continue
		}
		if filter.Status != "" && tx.Status != filter.Status {
			continue
		}
		out = append(out, *tx)
	}
	return out, int64(len(out)), nil
}

func (r *stubBankTxRepo) FindPendingCredits(_ context.Context, tenantID uuid.UUID) ([]model.BankTransaction, error) {
	var out []model.BankTransaction
	for _, tx := range r.txs {
		if tx.TenantID == tenantID && tx.Status == model.TxPending && tx.TransactionType == model.TxTypeCredit {
			out = append(out, *tx)
		}
	}
	return out, nil
}

func (r *stubBankTxRepo) CountMatchedBySale(_ context.Context, tenantID, saleID uuid.UUID) (int64, error) {
	var count int64
	for _, tx := range r.txs {
		if tx.TenantID == tenantID && tx.Status == model.TxMatched &&
			tx.MatchedSaleID != nil && *tx.MatchedSaleID == saleID {
			count++
		}
	}
	return count, nil
}

func (r *stubBankTxRepo) Update(_ context.Context, tx *model.BankTransaction) error {
	for _, existing := range r.txs {
		if existing.ID == tx.ID {
			*existing = *tx
			return nil
		}
	}
	return errStubNotFound
}

var _ repository.BankTransactionRepository = (*stubBankTxRepo)(nil)

// ── Users and tenants ────────────────────────────────────────────────────────

type stubUserRepo struct {
	users []*model.User
}

func newStubUserRepo() *stubUserRepo { return &stubUserRepo{} }

func (r *stubUserRepo) Create(_ context.Context, u *model.User) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	r.users = append(r.users, u)
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, tenantID, id uuid.UUID) (*model.User, error) {
	for _, u := range r.users {
		if u.TenantID == tenantID && u.ID == id {
			return u, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubUserRepo) FindByUsername(_ context.Context, tenantID uuid.UUID, username string) (*model.User, error) {
	for _, u := range r.users {
		if u.TenantID == tenantID && u.Username == username {
			return u, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubUserRepo) List(_ context.Context, tenantID uuid.UUID) ([]model.User, error) {
	var out []model.User
	for _, u := range r.users {
		if u.TenantID == tenantID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *stubUserRepo) Update(_ context.Context, u *model.User) error {
	for _, existing := range r.users {
		if existing.ID == u.ID {
			*existing = *u
			return nil
		}
	}
	return errStubNotFound
}

var _ repository.UserRepository = (*stubUserRepo)(nil)

type stubTenantRepo struct {
	tenants []*model.Tenant
}

func newStubTenantRepo() *stubTenantRepo { return &stubTenantRepo{} }

func (r *stubTenantRepo) Create(_ context.Context, t *model.Tenant) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	r.tenants = append(r.tenants, t)
	return nil
}

func (r *stubTenantRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.ID == id {
			return t, nil
		}
	}
	return nil, errStubNotFound
}

func (r *stubTenantRepo) FindBySlug(_ context.Context, slug string) (*model.Tenant, error) {
	for _, t := range r.tenants {
		if t.Slug == slug {
			return t, nil
		}
	}
	return nil, errStubNotFound
}

var _ repository.TenantRepository = (*stubTenantRepo)(nil)

// ── Activity recorder ────────────────────────────────────────────────────────

// stubRecorder captures audit entries synchronously for assertion.
type stubRecorder struct {
	entries []model.ActivityLog
}

func (r *stubRecorder) Record(_ context.Context, entry model.ActivityLog) {
	r.entries = append(r.entries, entry)
}

var _ ActivityRecorder = (*stubRecorder)(nil)

// ── Mailer ───────────────────────────────────────────────────────────────────

type stubMailer struct {
	sent []string // recipient addresses
}

func (m *stubMailer) EnqueueEmail(_ context.Context, to, _, _ string) error {
	m.sent = append(m.sent, to)
	return nil
}

var _ EmailEnqueuer = (*stubMailer)(nil)

// ── Seed helpers ─────────────────────────────────────────────────────────────

func seedProduct(repo *stubProductRepo, tenantID uuid.UUID, sku, name string, price float64) *model.Product {
	p := &model.Product{
		ID:        uuid.New(),
		TenantID:  tenantID,
		SKU:       sku,
		Name:      name,
		BasePrice: decimal.NewFromFloat(price),
	}
	repo.products = append(repo.products, p)
	return p
}

func seedLot(repo *stubLotRepo, tenantID, productID uuid.UUID, qty int, unitCost float64) *model.Lot {
	l := &model.Lot{
		TenantID:        tenantID,
		ProductID:       productID,
		LotCode:         "LOT-TEST",
		QuantityInitial: qty,
		QuantityCurrent: qty,
		UnitCost:        decimal.NewFromFloat(unitCost),
	}
	_ = repo.CreateTx(nil, l)
	return l
}

func seedBundleEdge(repo *stubProductRepo, tenantID, bundleID, componentID uuid.UUID, qty int) {
	repo.edges = append(repo.edges, &model.BundleComponent{
		ID:          uuid.New(),
		TenantID:    tenantID,
		BundleID:    bundleID,
		ComponentID: componentID,
		Quantity:    qty,
	})
}
