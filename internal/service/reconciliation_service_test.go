package service

import (
	"context"
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

func buildReconSvc() (ReconciliationService, *stubBankTxRepo, *stubSaleRepo, *stubPaymentRepo) {
	txs := newStubBankTxRepo()
	sales := newStubSaleRepo()
	payments := newStubPaymentRepo()
	paySvc := NewPaymentService(payments, sales, nil)
	svc := NewReconciliationService(txs, sales, paySvc, &stubRecorder{})
	return svc, txs, sales, payments
}

func seedCreditTx(repo *stubBankTxRepo, tenantID uuid.UUID, date time.Time, amount float64) *model.BankTransaction {
	tx := &model.BankTransaction{
		TenantID:        tenantID,
		Date:            date,
		Amount:          decimal.NewFromFloat(amount),
		Description:     "TRANSFERENCIA DE TERCEROS",
		TransactionType: model.TxTypeCredit,
		Status:          model.TxPending,
	}
	_ = repo.Create(context.Background(), tx)
	return tx
}

func seedUnpaidSale(repo *stubSaleRepo, tenantID uuid.UUID, customer string, total float64, createdAt time.Time) *model.Sale {
	s := &model.Sale{
		TenantID:       tenantID,
		CustomerName:   customer,
		SaleType:       model.SaleTypeDelivery,
		DeliveryStatus: model.DeliveryDelivered,
		PaymentStatus:  model.PaymentPending,
		TotalAmount:    decimal.NewFromFloat(total),
		CreatedAt:      createdAt,
	}
	_ = repo.CreateTx(nil, s)
	return s
}

func TestSuggestMatches_ConfidenceScoring(t *testing.T) {
	svc, txs, sales, _ := buildReconSvc()
	tenant := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	tx := seedCreditTx(txs, tenant, day, 100000)

	exact := seedUnpaidSale(sales, tenant, "Exacta", 100000, day)
	dayOff := seedUnpaidSale(sales, tenant, "Un Día Antes", 100000, day.AddDate(0, 0, -1))
	amountOff := seedUnpaidSale(sales, tenant, "Medio Punto", 100500, day)

	suggestions, err := svc.SuggestMatches(context.Background(), tenant, tx.ID)
	require.NoError(t, err)
	require.Len(t, suggestions, 3)

	// Sorted by confidence: 100, then 97 (0.5% amount diff × 5), then 90
	// (one day × 10).
	assert.Equal(t, exact.ID.String(), suggestions[0].SaleID)
	assert.Equal(t, 100, suggestions[0].Confidence)
	assert.Equal(t, amountOff.ID.String(), suggestions[1].SaleID)
	assert.Equal(t, 97, suggestions[1].Confidence)
	assert.Equal(t, dayOff.ID.String(), suggestions[2].SaleID)
	assert.Equal(t, 90, suggestions[2].Confidence)
}

func TestSuggestMatches_WindowFilters(t *testing.T) {
	svc, txs, sales, _ := buildReconSvc()
	tenant := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	tx := seedCreditTx(txs, tenant, day, 100000)

	seedUnpaidSale(sales, tenant, "Muy Lejana", 100000, day.AddDate(0, 0, -4)) // outside ±3 days
	seedUnpaidSale(sales, tenant, "Monto Distinto", 102500, day)               // 2.5% off
	paid := seedUnpaidSale(sales, tenant, "Ya Pagada", 100000, day)
	paid.PaymentStatus = model.PaymentPaid

	suggestions, err := svc.SuggestMatches(context.Background(), tenant, tx.ID)
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestSuggestMatches_DebitRejected(t *testing.T) {
	svc, txs, _, _ := buildReconSvc()
	tenant := uuid.New()
	tx := &model.BankTransaction{
		TenantID:        tenant,
		Date:            time.Now(),
		Amount:          decimal.NewFromInt(5000),
		TransactionType: model.TxTypeDebit,
		Status:          model.TxPending,
	}
	require.NoError(t, txs.Create(context.Background(), tx))

	_, err := svc.SuggestMatches(context.Background(), tenant, tx.ID)
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}

func TestAutoMatch_PaysAndMarksTransaction(t *testing.T) {
	svc, txs, sales, payments := buildReconSvc()
	tenant := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	tx := seedCreditTx(txs, tenant, day, 85000)
	sale := seedUnpaidSale(sales, tenant, "Ferretería Lagos", 85000, day.AddDate(0, 0, -1))

	resp, err := svc.AutoMatch(context.Background(), tenant, uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Matched)
	assert.Equal(t, 0, resp.Skipped)

	assert.Equal(t, model.TxMatched, tx.Status)
	require.NotNil(t, tx.MatchedSaleID)
	assert.Equal(t, sale.ID, *tx.MatchedSaleID)
	require.NotNil(t, tx.MatchType)
	assert.Equal(t, model.MatchAuto, *tx.MatchType)
	assert.NotNil(t, tx.MatchedAt)

	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus)
	require.Len(t, payments.payments, 1)
	p := payments.payments[0]
	assert.Equal(t, model.PayViaTransfer, p.PaymentVia)
	assert.Equal(t, "conciliación bancaria", p.Notes)
	require.NotNil(t, p.PaymentReference)
	assert.Equal(t, reconciliationReference(tx.ID), *p.PaymentReference)
}

func TestAutoMatch_SkipsBelowThreshold(t *testing.T) {
	svc, txs, sales, payments := buildReconSvc()
	tenant := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	tx := seedCreditTx(txs, tenant, day, 60000)
	// Three days of distance: confidence 70, inside the window but below the
	// unattended threshold.
	seedUnpaidSale(sales, tenant, "Al Límite", 60000, day.AddDate(0, 0, -3))

	resp, err := svc.AutoMatch(context.Background(), tenant, uuid.New(), "")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Matched)
	assert.Equal(t, 1, resp.Skipped)
	assert.Equal(t, model.TxPending, tx.Status)
	assert.Empty(t, payments.payments)
}

func TestAutoMatch_FallsThroughToNextCandidate(t *testing.T) {
	svc, txs, sales, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	// A partial transfer already reconciled against the best-scoring sale
	// keeps it unpaid, so it still shows up first in the suggestions.
	taken := seedUnpaidSale(sales, tenant, "Almacén Tomado", 60000, day)
	prior := seedCreditTx(txs, tenant, day, 30000)
	_, err := svc.ManualMatch(context.Background(), tenant, user, prior.ID, dto.ManualMatchRequest{
		SaleID: taken.ID.String(),
	}, "")
	require.NoError(t, err)

	free := seedUnpaidSale(sales, tenant, "Almacén Libre", 60000, day.AddDate(0, 0, -1))
	tx := seedCreditTx(txs, tenant, day, 60000)

	resp, err := svc.AutoMatch(context.Background(), tenant, user, "")
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Matched)
	assert.Equal(t, 0, resp.Skipped)

	// The taken sale (confidence 100) was passed over in favor of the next
	// candidate above the threshold.
	assert.Equal(t, model.TxMatched, tx.Status)
	require.NotNil(t, tx.MatchedSaleID)
	assert.Equal(t, free.ID, *tx.MatchedSaleID)
	assert.Equal(t, model.PaymentPaid, free.PaymentStatus)
	assert.Equal(t, model.PaymentPartial, taken.PaymentStatus)
}

func TestManualMatch_SaleExclusivity(t *testing.T) {
	svc, txs, sales, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	first := seedCreditTx(txs, tenant, day, 45000)
	second := seedCreditTx(txs, tenant, day.AddDate(0, 0, 1), 45000)
	sale := seedUnpaidSale(sales, tenant, "Panadería San José", 45000, day)

	_, err := svc.ManualMatch(context.Background(), tenant, user, first.ID, dto.ManualMatchRequest{
		SaleID: sale.ID.String(),
	}, "")
	require.NoError(t, err)

	// The sale is already reconciled against another movement.
	_, err = svc.ManualMatch(context.Background(), tenant, user, second.ID, dto.ManualMatchRequest{
		SaleID: sale.ID.String(),
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindDuplicateResource, apierror.KindOf(err))
	assert.Equal(t, model.TxPending, second.Status)
}

func TestManualMatch_OnlyPendingCredits(t *testing.T) {
	svc, txs, sales, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	sale := seedUnpaidSale(sales, tenant, "Cliente", 10000, day)

	matched := seedCreditTx(txs, tenant, day, 10000)
	matched.Status = model.TxMatched
	_, err := svc.ManualMatch(context.Background(), tenant, user, matched.ID, dto.ManualMatchRequest{
		SaleID: sale.ID.String(),
	}, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(err))
}

func TestUnmatch_RestoresPendingState(t *testing.T) {
	svc, txs, sales, payments := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)
	tx := seedCreditTx(txs, tenant, day, 32000)
	sale := seedUnpaidSale(sales, tenant, "Verdulería Norte", 32000, day)

	_, err := svc.ManualMatch(context.Background(), tenant, user, tx.ID, dto.ManualMatchRequest{
		SaleID: sale.ID.String(),
	}, "")
	require.NoError(t, err)
	require.Len(t, payments.payments, 1)
	assert.Equal(t, model.PaymentPaid, sale.PaymentStatus)

	resp, err := svc.Unmatch(context.Background(), tenant, user, tx.ID, "")
	require.NoError(t, err)

	assert.Equal(t, model.TxPending, resp.Status)
	assert.Nil(t, tx.MatchedSaleID)
	assert.Nil(t, tx.MatchType)
	assert.Nil(t, tx.MatchedAt)
	assert.Empty(t, payments.payments)
	assert.Equal(t, model.PaymentPending, sale.PaymentStatus)
}

func TestIgnore_PendingOnly(t *testing.T) {
	svc, txs, _, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	tx := seedCreditTx(txs, tenant, day, 1000)
	resp, err := svc.Ignore(context.Background(), tenant, user, tx.ID, "")
	require.NoError(t, err)
	assert.Equal(t, model.TxIgnored, resp.Status)

	// Already ignored.
	_, err = svc.Ignore(context.Background(), tenant, user, tx.ID, "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindInvalidTransition, apierror.KindOf(err))
}

func TestIgnoreBatch_CountsSuccesses(t *testing.T) {
	svc, txs, _, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()
	day := time.Date(2026, 8, 10, 12, 0, 0, 0, time.UTC)

	a := seedCreditTx(txs, tenant, day, 1000)
	b := seedCreditTx(txs, tenant, day, 2000)
	b.Status = model.TxMatched

	ignored, err := svc.IgnoreBatch(context.Background(), tenant, user, dto.IgnoreBatchRequest{
		TransactionIDs: []string{a.ID.String(), b.ID.String(), "no-es-uuid"},
	}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, ignored)
	assert.Equal(t, model.TxIgnored, a.Status)
}

func TestUpload_ImportsAndDeduplicates(t *testing.T) {
	svc, txs, _, _ := buildReconSvc()
	tenant := uuid.New()
	user := uuid.New()

	statement := []byte("Fecha;Descripción;Monto\n" +
		"10/08/2026;TRANSFERENCIA DE CLIENTE;$150.000\n" +
		"11/08/2026;PAGO PROVEEDOR;-50000\n")

	resp, err := svc.Upload(context.Background(), tenant, user, "cartola_agosto.csv", statement, "")
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Created)
	assert.Equal(t, 0, resp.Duplicates)

	credits, err := txs.FindPendingCredits(context.Background(), tenant)
	require.NoError(t, err)
	require.Len(t, credits, 1)
	assert.Equal(t, "150000", credits[0].Amount.String())
	assert.Equal(t, "cartola_agosto.csv", credits[0].SourceFile)

	// Re-uploading the same file creates nothing new.
	resp, err = svc.Upload(context.Background(), tenant, user, "cartola_agosto.csv", statement, "")
	require.NoError(t, err)
	assert.Equal(t, 0, resp.Created)
	assert.Equal(t, 2, resp.Duplicates)
}

func TestUpload_UnparsableFile(t *testing.T) {
	svc, _, _, _ := buildReconSvc()
	_, err := svc.Upload(context.Background(), uuid.New(), uuid.New(), "basura.csv", []byte("sin;encabezado;reconocible\n1;2;3\n"), "")
	require.Error(t, err)
	assert.Equal(t, apierror.KindValidation, apierror.KindOf(err))
}
