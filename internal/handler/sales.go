package handler

import (
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

type SalesHandler struct {
	sales    service.SaleService
	payments service.PaymentService
}

func NewSalesHandler(sales service.SaleService, payments service.PaymentService) *SalesHandler {
	return &SalesHandler{sales: sales, payments: payments}
}

// Create commits a sale atomically: stock decrements, optional payments and
// the sale itself land together or not at all.
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.CreateSale(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.sales.GetSale(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) List(c *gin.Context) {
	var filter dto.SaleFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("parámetros de consulta inválidos"))
		return
	}
	resp, err := h.sales.ListSales(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateSaleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.sales.UpdateSale(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *SalesHandler) AddPayment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.PaymentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.payments.AddPayment(c.Request.Context(), middleware.GetTenantID(c), id, middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *SalesHandler) ListPayments(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.payments.ListPayments(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
