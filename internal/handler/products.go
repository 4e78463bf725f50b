package handler

import (
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) Create(c *gin.Context) {
	var req dto.CreateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.CreateProduct(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.GetProduct(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.ListProducts(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.UpdateProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateProduct(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteProduct(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP()); err != nil {
		respondErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddComponent registers a bundle edge; cyclic edges are rejected.
func (h *ProductsHandler) AddComponent(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.CreateComponentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddComponent(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *ProductsHandler) ListComponents(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.ListComponents(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ProductsHandler) Alerts(c *gin.Context) {
	resp, err := h.svc.StockAlerts(c.Request.Context(), middleware.GetTenantID(c))
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
