package handler

import (
	"io"
	"net/http"

	"distriflow/internal/apierror"
	"distriflow/internal/dto"
	"distriflow/internal/middleware"
	"distriflow/internal/service"

	"github.com/gin-gonic/gin"
)

// maxUploadBytes bounds statement uploads (10 MB).
const maxUploadBytes = 10 << 20

type ReconciliationHandler struct{ svc service.ReconciliationService }

func NewReconciliationHandler(svc service.ReconciliationService) *ReconciliationHandler {
	return &ReconciliationHandler{svc: svc}
}

// Upload imports a bank statement (CSV or XLSX) as multipart form field "file".
func (h *ReconciliationHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("campo de archivo 'file' requerido"))
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.JSON(http.StatusBadRequest, apierror.Validation("el archivo excede el tamaño máximo de 10MB"))
		return
	}
	f, err := fileHeader.Open()
	if err != nil {
		respondErr(c, err)
		return
	}
	defer f.Close()
	data, err := io.ReadAll(io.LimitReader(f, maxUploadBytes))
	if err != nil {
		respondErr(c, err)
		return
	}

	resp, err := h.svc.Upload(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), fileHeader.Filename, data, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) List(c *gin.Context) {
	var filter dto.TransactionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.Validation("parámetros de consulta inválidos"))
		return
	}
	resp, err := h.svc.ListTransactions(c.Request.Context(), middleware.GetTenantID(c), filter)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) Suggestions(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.SuggestMatches(c.Request.Context(), middleware.GetTenantID(c), id)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) AutoMatch(c *gin.Context) {
	resp, err := h.svc.AutoMatch(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) ManualMatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var req dto.ManualMatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ManualMatch(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) Unmatch(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Unmatch(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) Ignore(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.svc.Ignore(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), id, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *ReconciliationHandler) IgnoreBatch(c *gin.Context) {
	var req dto.IgnoreBatchRequest
	if !bindAndValidate(c, &req) {
		return
	}
	ignored, err := h.svc.IgnoreBatch(c.Request.Context(), middleware.GetTenantID(c), middleware.GetUserID(c), req, c.ClientIP())
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ignored": ignored})
}
