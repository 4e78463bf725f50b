package handler

import (
	"net/http"

	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

type WastageHandler struct{ svc service.InventoryService }

func NewWastageHandler(svc service.InventoryService) *WastageHandler {
	return &WastageHandler{svc: svc}
}

func (h *WastageHandler) Create(c *gin.Context) {
	var req dto.CreateWastageRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.RecordWastage(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *WastageHandler) List(c *gin.Context) {
	resp, err := h.svc.ListWastage(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Delete removes the audit row only; the stock stays consumed.
func (h *WastageHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteWastage(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP()); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Adjust applies a signed manual stock correction.
func (h *WastageHandler) Adjust(c *gin.Context) {
	var req dto.AdjustmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Adjust(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP()); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Assemble kits a bundle from component stock.
func (h *WastageHandler) Assemble(c *gin.Context) {
	var req dto.AssemblyRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Assemble(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
