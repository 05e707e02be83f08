package handlers

import (
	"net/http"
	"time"

	"cannaclub/internal/common"
	"cannaclub/internal/models"
	"cannaclub/internal/services"

	"github.com/labstack/echo/v4"
)

type AuditLogsHandlers struct {
	auditLogsService services.AuditLogsService
}

func NewAuditLogsHandlers(auditLogsService services.AuditLogsService) *AuditLogsHandlers {
	return &AuditLogsHandlers{auditLogsService: auditLogsService}
}

// ListAuditLogs handles GET /audit-logs
func (h *AuditLogsHandlers) ListAuditLogs(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	filters := &models.AuditLogFilters{
		Limit:  limit,
		Offset: offset,
	}
	if raw := c.QueryParam("table_name"); raw != "" {
		filters.TableName = &raw
	}
	if raw := c.QueryParam("record_id"); raw != "" {
		filters.RecordID = &raw
	}
	if raw := c.QueryParam("action"); raw != "" {
		filters.Action = &raw
	}
	if raw := c.QueryParam("changed_by"); raw != "" {
		changedBy, err := common.ValidateUUID(raw, "changed_by")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		filters.ChangedBy = &changedBy
	}
	if raw := c.QueryParam("start_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return common.SendClientError(c, "start_date must be YYYY-MM-DD")
		}
		filters.StartDate = &t
	}
	if raw := c.QueryParam("end_date"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return common.SendClientError(c, "end_date must be YYYY-MM-DD")
		}
		filters.EndDate = &t
	}

	logs, err := h.auditLogsService.ListAuditLogs(c.Request().Context(), tenantID, filters)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"audit_logs": logs})
}
