package handler

import (
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct{ svc service.OrderService }

func NewOrdersHandler(svc service.OrderService) *OrdersHandler { return &OrdersHandler{svc: svc} }

func (h *OrdersHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateOrder(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetOrder(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.ListOrders(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Receive confirms a (possibly partial) reception and creates the lots.
func (h *OrdersHandler) Receive(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ReceiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ConfirmReception(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) MarkPaid(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.MarkPaid(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *OrdersHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP()); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
