package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"distriflow/internal/apierror"
	"distriflow/internal/bankfile"
	"distriflow/internal/dto"
	"distriflow/internal/model"
	"distriflow/internal/permission"
	"distriflow/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// matchWindowDays bounds the sale-date distance of a candidate.
	matchWindowDays = 3
	// matchAmountTolerance bounds the relative amount difference.
	matchAmountTolerance = 0.01
	// autoMatchThreshold is the minimum confidence for unattended matching.
	autoMatchThreshold = 80
	// maxSuggestions caps the candidate list per transaction.
	maxSuggestions = 10
)

type ReconciliationService interface {
	// Upload imports a bank statement file. Rows already present for the
	// tenant (same date, amount and description) count as duplicates.
	Upload(ctx context.Context, tenantID, userID uuid.UUID, filename string, data []byte, ip string) (*dto.UploadResponse, error)
	ListTransactions(ctx context.Context, tenantID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error)
	SuggestMatches(ctx context.Context, tenantID, txID uuid.UUID) ([]dto.MatchSuggestion, error)
	// AutoMatch pairs every pending credit with its best candidate when the
	// confidence clears the threshold and the sale is not already matched.
	AutoMatch(ctx context.Context, tenantID, userID uuid.UUID, ip string) (*dto.AutoMatchResponse, error)
	ManualMatch(ctx context.Context, tenantID, userID, txID uuid.UUID, req dto.ManualMatchRequest, ip string) (*dto.TransactionResponse, error)
	// Unmatch reverses a match: removes the reconciliation payment and
	// returns the transaction to pending.
	Unmatch(ctx context.Context, tenantID, userID, txID uuid.UUID, ip string) (*dto.TransactionResponse, error)
	Ignore(ctx context.Context, tenantID, userID, txID uuid.UUID, ip string) (*dto.TransactionResponse, error)
	IgnoreBatch(ctx context.Context, tenantID, userID uuid.UUID, req dto.IgnoreBatchRequest, ip string) (int, error)
}

type reconciliationService struct {
	transactions repository.BankTransactionRepository
	sales        repository.SaleRepository
	payments     PaymentService
	recorder     ActivityRecorder
}

func NewReconciliationService(
	transactions repository.BankTransactionRepository,
	sales repository.SaleRepository,
	payments PaymentService,
	recorder ActivityRecorder,
) ReconciliationService {
	return &reconciliationService{
		transactions: transactions,
		sales:        sales,
		payments:     payments,
		recorder:     recorder,
	}
}

func (s *reconciliationService) Upload(ctx context.Context, tenantID, userID uuid.UUID, filename string, data []byte, ip string) (*dto.UploadResponse, error) {
	rows, err := bankfile.Parse(filename, data)
	if err != nil {
		return nil, apierror.Validation("no se pudo interpretar el archivo: " + err.Error())
	}

	resp := &dto.UploadResponse{}
	for _, row := range rows {
		exists, err := s.transactions.Exists(ctx, tenantID, row.Date, row.Amount, row.Description)
		if err != nil {
			return nil, err
		}
		if exists {
			resp.Duplicates++
			continue
		}
		txType := model.TxTypeDebit
		if row.Credit {
			txType = model.TxTypeCredit
		}
		tx := model.BankTransaction{
			TenantID:        tenantID,
			Date:            row.Date,
			Amount:          row.Amount,
			Description:     row.Description,
			Reference:       row.Reference,
			TransactionType: txType,
			Status:          model.TxPending,
			SourceFile:      filename,
			RowNumber:       row.RowNumber,
		}
		if err := s.transactions.Create(ctx, &tx); err != nil {
			resp.Skipped++
			continue
		}
		resp.Created++
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleReconciliation,
		Action:      permission.ActionCreate,
		Description: fmt.Sprintf("Cartola %s importada: %d movimientos nuevos, %d duplicados", filename, resp.Created, resp.Duplicates),
		IPAddress:   ip,
	})

	return resp, nil
}

func (s *reconciliationService) ListTransactions(ctx context.Context, tenantID uuid.UUID, filter dto.TransactionFilter) (*dto.TransactionListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 50
	}
	txs, total, err := s.transactions.List(ctx, tenantID, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.TransactionResponse, 0, len(txs))
	for i := range txs {
		items = append(items, transactionToResponse(&txs[i]))
	}
	return &dto.TransactionListResponse{Data: items, Total: total, Page: filter.Page, Limit: filter.Limit}, nil
}

// confidence scores a (transaction, sale) pair: 100 minus 5 points per
// percent of amount difference minus 10 points per day of date distance,
// clamped to [0, 100].
func confidence(tx *model.BankTransaction, sale *model.Sale) int {
	if tx.Amount.IsZero() {
		return 0
	}
	amountDiffPct := sale.TotalAmount.Sub(tx.Amount).Abs().
		Div(tx.Amount).
		Mul(decimal.NewFromInt(100)).
		InexactFloat64()
	dayDiff := tx.Date.Sub(sale.CreatedAt) / (24 * time.Hour)
	if dayDiff < 0 {
		dayDiff = -dayDiff
	}
	score := 100.0 - 5.0*amountDiffPct - 10.0*float64(dayDiff)
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return int(score)
}

// withinWindow applies the hard candidate filters before scoring.
func withinWindow(tx *model.BankTransaction, sale *model.Sale) bool {
	dayDiff := tx.Date.Sub(sale.CreatedAt)
	if dayDiff < 0 {
		dayDiff = -dayDiff
	}
	if dayDiff > matchWindowDays*24*time.Hour {
		return false
	}
	if tx.Amount.IsZero() {
		return false
	}
	diffPct := sale.TotalAmount.Sub(tx.Amount).Abs().Div(tx.Amount).InexactFloat64()
	return diffPct <= matchAmountTolerance
}

func (s *reconciliationService) candidates(ctx context.Context, tenantID uuid.UUID, tx *model.BankTransaction) ([]dto.MatchSuggestion, map[string]*model.Sale, error) {
	from := tx.Date.AddDate(0, 0, -matchWindowDays)
	to := tx.Date.AddDate(0, 0, matchWindowDays+1)
	sales, err := s.sales.FindUnpaidInWindow(ctx, tenantID, from, to)
	if err != nil {
		return nil, nil, err
	}

	var suggestions []dto.MatchSuggestion
	byID := make(map[string]*model.Sale)
	for i := range sales {
		sale := &sales[i]
		if !withinWindow(tx, sale) {
			continue
		}
		score := confidence(tx, sale)
		suggestions = append(suggestions, dto.MatchSuggestion{
			SaleID:       sale.ID.String(),
			CustomerName: sale.CustomerName,
			TotalAmount:  sale.TotalAmount,
			SaleDate:     sale.CreatedAt.Format("2006-01-02"),
			Confidence:   score,
		})
		byID[sale.ID.String()] = sale
	}
	sort.SliceStable(suggestions, func(i, j int) bool { return suggestions[i].Confidence > suggestions[j].Confidence })
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, byID, nil
}

func (s *reconciliationService) SuggestMatches(ctx context.Context, tenantID, txID uuid.UUID) ([]dto.MatchSuggestion, error) {
	tx, err := s.transactions.FindByID(ctx, tenantID, txID)
	if err != nil {
		return nil, apierror.NotFound("movimiento bancario")
	}
	if tx.TransactionType != model.TxTypeCredit {
		return nil, apierror.Validation("solo los abonos pueden conciliarse con ventas")
	}
	suggestions, _, err := s.candidates(ctx, tenantID, tx)
	if err != nil {
		return nil, err
	}
	return suggestions, nil
}

// reconciliationReference derives the payment reference from the
// transaction id so Unmatch can find the payment again.
func reconciliationReference(txID uuid.UUID) string {
	id := txID.String()
	return "reconciliación #" + id[len(id)-6:]
}

func (s *reconciliationService) match(ctx context.Context, tenantID, userID uuid.UUID, tx *model.BankTransaction, sale *model.Sale, matchType, ip string) error {
	matched, err := s.transactions.CountMatchedBySale(ctx, tenantID, sale.ID)
	if err != nil {
		return err
	}
	if matched > 0 {
		return apierror.Duplicate("la venta ya está conciliada con otro movimiento")
	}

	reference := reconciliationReference(tx.ID)
	if _, err := s.payments.AddPayment(ctx, tenantID, sale.ID, userID, dto.PaymentRequest{
		Amount:           tx.Amount,
		PaymentVia:       model.PayViaTransfer,
		PaymentReference: &reference,
		Notes:            "conciliación bancaria",
	}, ip); err != nil {
		return err
	}

	now := time.Now()
	tx.Status = model.TxMatched
	tx.MatchedSaleID = &sale.ID
	tx.MatchType = &matchType
	tx.MatchedAt = &now
	if userID != uuid.Nil {
		tx.MatchedBy = &userID
	}
	return s.transactions.Update(ctx, tx)
}

func (s *reconciliationService) AutoMatch(ctx context.Context, tenantID, userID uuid.UUID, ip string) (*dto.AutoMatchResponse, error) {
	pending, err := s.transactions.FindPendingCredits(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	resp := &dto.AutoMatchResponse{}
	for i := range pending {
		tx := &pending[i]
		suggestions, byID, err := s.candidates(ctx, tenantID, tx)
		if err != nil {
			return nil, err
		}
		matched := false
		for _, sug := range suggestions {
			if sug.Confidence < autoMatchThreshold {
				break
			}
			err := s.match(ctx, tenantID, userID, tx, byID[sug.SaleID], model.MatchAuto, ip)
			if err == nil {
				matched = true
				break
			}
			// A sale taken by an earlier transaction is not a dead end:
			// try the next candidate above the threshold.
			if apierror.KindOf(err) == apierror.KindDuplicateResource {
				continue
			}
			break
		}
		if matched {
			resp.Matched++
		} else {
			resp.Skipped++
		}
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleReconciliation,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Conciliación automática: %d movimientos conciliados, %d omitidos", resp.Matched, resp.Skipped),
		IPAddress:   ip,
	})

	return resp, nil
}

func (s *reconciliationService) ManualMatch(ctx context.Context, tenantID, userID, txID uuid.UUID, req dto.ManualMatchRequest, ip string) (*dto.TransactionResponse, error) {
	tx, err := s.transactions.FindByID(ctx, tenantID, txID)
	if err != nil {
		return nil, apierror.NotFound("movimiento bancario")
	}
	if tx.Status != model.TxPending {
		return nil, apierror.InvalidTransition("solo un movimiento pendiente puede conciliarse")
	}
	if tx.TransactionType != model.TxTypeCredit {
		return nil, apierror.Validation("solo los abonos pueden conciliarse con ventas")
	}
	saleID, err := uuid.Parse(req.SaleID)
	if err != nil {
		return nil, apierror.Validation("sale_id inválido")
	}
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, apierror.NotFound("venta")
	}

	if err := s.match(ctx, tenantID, userID, tx, sale, model.MatchManual, ip); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleReconciliation,
		Action:      permission.ActionEdit,
		Description: fmt.Sprintf("Movimiento conciliado manualmente con venta de %s", sale.CustomerName),
		TargetID:    &tx.ID,
		TargetType:  strPtr("bank_transaction"),
		IPAddress:   ip,
	})

	resp := transactionToResponse(tx)
	return &resp, nil
}

func (s *reconciliationService) Unmatch(ctx context.Context, tenantID, userID, txID uuid.UUID, ip string) (*dto.TransactionResponse, error) {
	tx, err := s.transactions.FindByID(ctx, tenantID, txID)
	if err != nil {
		return nil, apierror.NotFound("movimiento bancario")
	}
	if tx.Status != model.TxMatched || tx.MatchedSaleID == nil {
		return nil, apierror.InvalidTransition("el movimiento no está conciliado")
	}

	if err := s.payments.RemoveByReference(ctx, tenantID, *tx.MatchedSaleID, reconciliationReference(tx.ID)); err != nil {
		return nil, err
	}

	tx.Status = model.TxPending
	tx.MatchedSaleID = nil
	tx.MatchType = nil
	tx.MatchedAt = nil
	tx.MatchedBy = nil
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleReconciliation,
		Action:      permission.ActionEdit,
		Description: "Conciliación revertida",
		TargetID:    &tx.ID,
		TargetType:  strPtr("bank_transaction"),
		IPAddress:   ip,
	})

	resp := transactionToResponse(tx)
	return &resp, nil
}

func (s *reconciliationService) Ignore(ctx context.Context, tenantID, userID, txID uuid.UUID, ip string) (*dto.TransactionResponse, error) {
	tx, err := s.transactions.FindByID(ctx, tenantID, txID)
	if err != nil {
		return nil, apierror.NotFound("movimiento bancario")
	}
	if tx.Status != model.TxPending {
		return nil, apierror.InvalidTransition("solo un movimiento pendiente puede ignorarse")
	}
	tx.Status = model.TxIgnored
	if err := s.transactions.Update(ctx, tx); err != nil {
		return nil, err
	}

	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleReconciliation,
		Action:      permission.ActionEdit,
		Description: "Movimiento bancario ignorado",
		TargetID:    &tx.ID,
		TargetType:  strPtr("bank_transaction"),
		IPAddress:   ip,
	})

	resp := transactionToResponse(tx)
	return &resp, nil
}

func (s *reconciliationService) IgnoreBatch(ctx context.Context, tenantID, userID uuid.UUID, req dto.IgnoreBatchRequest, ip string) (int, error) {
	ignored := 0
	for _, raw := range req.TransactionIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		if _, err := s.Ignore(ctx, tenantID, userID, id, ip); err == nil {
			ignored++
		}
	}
	return ignored, nil
}

func transactionToResponse(t *model.BankTransaction) dto.TransactionResponse {
	var matchedSaleID *string
	if t.MatchedSaleID != nil {
		v := t.MatchedSaleID.String()
		matchedSaleID = &v
	}
	return dto.TransactionResponse{
		ID:              t.ID.String(),
		Date:            t.Date.Format("2006-01-02"),
		Amount:          t.Amount,
		Description:     t.Description,
		Reference:       t.Reference,
		TransactionType: t.TransactionType,
		Status:          t.Status,
		MatchedSaleID:   matchedSaleID,
		MatchType:       t.MatchType,
		SourceFile:      t.SourceFile,
		RowNumber:       t.RowNumber,
	}
}
