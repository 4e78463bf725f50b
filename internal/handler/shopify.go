package handler

import (
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/repository"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

// ShopifyHandler ingests webhook orders. The route is guarded by a static
// bearer token, so the tenant comes from the payload slug instead of JWT
// claims.
type ShopifyHandler struct {
	sales   service.SaleService
	tenants repository.TenantRepository
}

func NewShopifyHandler(sales service.SaleService, tenants repository.TenantRepository) *ShopifyHandler {
	return &ShopifyHandler{sales: sales, tenants: tenants}
}

func (h *ShopifyHandler) CreateOrder(c *gin.Context) {
	var req dto.ShopifyOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenant, err := h.tenants.FindBySlug(c.Request.Context(), req.Tenant)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.NotFound("tenant"))
		return
	}
	resp, err := h.sales.CreateFromShopify(c.Request.Context(), tenant.ID, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
