package handler

import (
	"net/http"

	"copycorner/internal/service"
	"copycorner/pkg/pagination"
	"copycorner/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.GET("/audit-logs", h.GetAuditLogs)
}

// GetAuditLogs retrieves paginated records with the acting user preloaded
// @Summary      Get audit logs
// @Description  Retrieves the audit trail, newest first
// @Tags         audit
// @Produce      json
// @Param        page      query     int  false  "Page number (default 1)"
// @Param        per_page  query     int  false  "Number of items per page (default 10)"
// @Success      200       {object}  response.Response{data=object}
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	page := pagination.Parse(c)

	logs, total, err := h.auditService.List(c.Request.Context(), &page)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, pagination.Envelope("logs", logs, total, &page)))
}
