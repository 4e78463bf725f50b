package service

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/model"
	"distriflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockLedger owns all lot arithmetic. Quantity on hand is always the live
// sum over lots; consumption is FIFO by (created_at, id) and every decrement
// is recorded in a RollbackJournal so a failed commit can restore the exact
// pre-commit quantities.
//
// Writes for one (tenant, product) pair are serialized with a keyed mutex for
// the duration of a commit's stock phase, so two concurrent sales can never
// jointly consume more than the current lot sum.
type StockLedger struct {
	lots repository.LotRepository

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStockLedger(lots repository.LotRepository) *StockLedger {
	return &StockLedger{lots: lots, locks: make(map[string]*sync.Mutex)}
}

// LockProduct serializes stock writes on (tenant, product). The returned
// function releases the lock.
func (l *StockLedger) LockProduct(tenantID, productID uuid.UUID) func() {
	key := tenantID.String() + "/" + productID.String()

	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}

// TotalStock is the ledger sum for a product, never a cached counter. Pass
// the open transaction so a commit observes its own decrements.
func (l *StockLedger) TotalStock(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID) (int, error) {
	return l.lots.TotalStock(ctx, tx, tenantID, productID)
}

// journalEntry remembers one lot's quantity before a decrement.
type journalEntry struct {
	tenantID uuid.UUID
	lotID    uuid.UUID
	prevQty  int
}

// RollbackJournal is append-only within a commit and walked in reverse by
// Restore.
type RollbackJournal struct {
	entries []journalEntry
}

func NewRollbackJournal() *RollbackJournal { return &RollbackJournal{} }

func (j *RollbackJournal) record(tenantID, lotID uuid.UUID, prevQty int) {
	j.entries = append(j.entries, journalEntry{tenantID: tenantID, lotID: lotID, prevQty: prevQty})
}

// Len reports the number of recorded decrements.
func (j *RollbackJournal) Len() int { return len(j.entries) }

// ConsumeFIFO decrements quantity units across the product's lots, oldest
// first, recording every touched lot in the journal. It returns the total
// cost of the consumed units. Shortfall is a hard failure: the caller is
// expected to have checked TotalStock under the product lock, so running out
// of lots mid-walk is a ledger consistency error.
func (l *StockLedger) ConsumeFIFO(ctx context.Context, tx *gorm.DB, tenantID, productID uuid.UUID, quantity int, journal *RollbackJournal) (decimal.Decimal, error) {
	if quantity <= 0 {
		return decimal.Zero, apierror.Validation("la cantidad a consumir debe ser positiva")
	}

	lots, err := l.lots.FindFIFO(ctx, tx, tenantID, productID)
	if err != nil {
		return decimal.Zero, err
	}

	remaining := quantity
	cost := decimal.Zero
	for _, lot := range lots {
		if remaining == 0 {
			break
		}
		take := lot.QuantityCurrent
		if take > remaining {
			take = remaining
		}
		journal.record(tenantID, lot.ID, lot.QuantityCurrent)
		if err := l.lots.SetQuantityTx(tx, tenantID, lot.ID, lot.QuantityCurrent-take); err != nil {
			return decimal.Zero, err
		}
		cost = cost.Add(lot.UnitCost.Mul(decimal.NewFromInt(int64(take))))
		remaining -= take
	}

	if remaining > 0 {
		return decimal.Zero, apierror.Consistency(
			fmt.Sprintf("el libro de lotes quedó corto por %d unidades durante el consumo", remaining))
	}
	return cost, nil
}

// Restore walks the journal in reverse and puts every touched lot back to
// its pre-commit quantity.
func (l *StockLedger) Restore(tx *gorm.DB, journal *RollbackJournal) error {
	for i := len(journal.entries) - 1; i >= 0; i-- {
		e := journal.entries[i]
		if err := l.lots.SetQuantityTx(tx, e.tenantID, e.lotID, e.prevQty); err != nil {
			return err
		}
	}
	return nil
}

// CreateLot appends a new batch to the ledger.
func (l *StockLedger) CreateLot(tx *gorm.DB, lot *model.Lot) error {
	if lot.QuantityInitial < 0 || lot.QuantityCurrent < 0 || lot.QuantityCurrent > lot.QuantityInitial {
		return apierror.Consistency("cantidades de lote inválidas")
	}
	return l.lots.CreateTx(tx, lot)
}

const lotCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateLotCode builds the default human-readable lot code:
// LOT-{supplierAbbr|GEN}-{sku|PROD}-{yymmdd}-{random4}.
func GenerateLotCode(supplierAbbr, sku string, now time.Time) string {
	abbr := strings.ToUpper(strings.TrimSpace(supplierAbbr))
	if abbr == "" {
		abbr = "GEN"
	}
	s := strings.ToUpper(strings.TrimSpace(sku))
	if s == "" {
		s = "PROD"
	}
	suffix := make([]byte, 4)
	for i := range suffix {
		suffix[i] = lotCodeAlphabet[rand.Intn(len(lotCodeAlphabet))]
	}
	return fmt.Sprintf("LOT-%s-%s-%s-%s", abbr, s, now.Format("060102"), suffix)
}
