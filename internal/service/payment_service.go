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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// computePaymentStatus derives the sale's payment status from the ledger:
// pagado when nothing is pending, parcial when partly covered, pendiente
// otherwise.
func computePaymentStatus(totalPaid, totalAmount decimal.Decimal) string {
	if totalAmount.Sub(totalPaid).LessThanOrEqual(decimal.Zero) {
		return model.PaymentPaid
	}
	if totalPaid.GreaterThan(decimal.Zero) {
		return model.PaymentPartial
	}
	return model.PaymentPending
}

type PaymentService interface {
	AddPayment(ctx context.Context, tenantID, saleID, userID uuid.UUID, req dto.PaymentRequest, ip string) (*dto.PaymentResponse, error)
	ListPayments(ctx context.Context, tenantID, saleID uuid.UUID) ([]dto.PaymentResponse, error)
	// RemoveByReference deletes the payment carrying a reference string and
	// recomputes the sale's status; used by reconciliation unmatch.
	RemoveByReference(ctx context.Context, tenantID, saleID uuid.UUID, reference string) error
}

type paymentService struct {
	payments repository.PaymentRepository
	sales    repository.SaleRepository
	recorder ActivityRecorder
}

func NewPaymentService(payments repository.PaymentRepository, sales repository.SaleRepository, recorder ActivityRecorder) PaymentService {
	return &paymentService{payments: payments, sales: sales, recorder: recorder}
}

func (s *paymentService) AddPayment(ctx context.Context, tenantID, saleID, userID uuid.UUID, req dto.PaymentRequest, ip string) (*dto.PaymentResponse, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, apierror.Validation("el monto del pago debe ser positivo")
	}

	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, apierror.NotFound("venta")
	}

	totalPaid, err := s.payments.SumBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	if totalPaid.Add(req.Amount).GreaterThan(sale.TotalAmount) {
		return nil, apierror.Validationf("el pago excede el saldo pendiente de %s", sale.TotalAmount.Sub(totalPaid))
	}

	payment := model.Payment{
		TenantID:         tenantID,
		SaleID:           saleID,
		Amount:           req.Amount,
		PaymentVia:       req.PaymentVia,
		PaymentReference: req.PaymentReference,
		Notes:            req.Notes,
	}
	if userID != uuid.Nil {
		payment.CreatedBy = &userID
	}

	txErr := runTx(ctx, s.payments.DB(), func(tx *gorm.DB) error {
		if err := s.payments.CreateTx(tx, &payment); err != nil {
			return err
		}
		newStatus := computePaymentStatus(totalPaid.Add(req.Amount), sale.TotalAmount)
		return s.sales.UpdatePaymentStatusTx(tx, tenantID, saleID, newStatus)
	})
	if txErr != nil {
		return nil, txErr
	}

	balance := sale.TotalAmount.Sub(totalPaid).Sub(req.Amount)
	record(ctx, s.recorder, model.ActivityLog{
		TenantID:    tenantID,
		UserID:      &userID,
		Module:      permission.ModuleSales,
		Action:      "payment",
		Description: fmt.Sprintf("Pago de %s registrado para venta de %s; saldo pendiente %s", req.Amount, sale.CustomerName, balance),
		TargetID:    &saleID,
		TargetType:  strPtr("sale"),
		IPAddress:   ip,
	})

	resp := paymentToResponse(&payment)
	return &resp, nil
}

func (s *paymentService) ListPayments(ctx context.Context, tenantID, saleID uuid.UUID) ([]dto.PaymentResponse, error) {
	if _, err := s.sales.FindByID(ctx, tenantID, saleID); err != nil {
		return nil, apierror.NotFound("venta")
	}
	payments, err := s.payments.ListBySale(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PaymentResponse, 0, len(payments))
	for _, p := range payments {
		out = append(out, paymentToResponse(&p))
	}
	return out, nil
}

func (s *paymentService) RemoveByReference(ctx context.Context, tenantID, saleID uuid.UUID, reference string) error {
	if err := s.payments.DeleteByReference(ctx, tenantID, saleID, reference); err != nil {
		return err
	}
	sale, err := s.sales.FindByID(ctx, tenantID, saleID)
	if err != nil {
		return apierror.NotFound("venta")
	}
	totalPaid, err := s.payments.SumBySale(ctx, tenantID, saleID)
	if err != nil {
		return err
	}
	return s.sales.UpdatePaymentStatusTx(nil, tenantID, saleID, computePaymentStatus(totalPaid, sale.TotalAmount))
}

func paymentToResponse(p *model.Payment) dto.PaymentResponse {
	return dto.PaymentResponse{
		ID:               p.ID.String(),
		Amount:           p.Amount,
		PaymentVia:       p.PaymentVia,
		PaymentReference: p.PaymentReference,
		Notes:            p.Notes,
		CreatedAt:        p.CreatedAt.Format("2006-01-02T15:04:05Z"),
	}
}

func strPtr(s string) *string { return &s }
