package handler

import (
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

type ActivityHandler struct{ svc service.ActivityService }

func NewActivityHandler(svc service.ActivityService) *ActivityHandler {
	return &ActivityHandler{svc: svc}
}

func (h *ActivityHandler) List(c *gin.Context) {
	var filter dto.ActivityFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.List(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
