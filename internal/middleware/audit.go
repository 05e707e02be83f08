package middleware

import (
	"time"

	"cannaclub/internal/common"
	"cannaclub/internal/models"
	"cannaclub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// AuditMiddleware records successful mutating requests into the audit log.
// Ledger writes carry their own trail in the transaction tables; this covers
// everything else (catalog edits, member onboarding, wallet creation).
type AuditMiddleware struct {
	auditService services.AuditLogsService
}

func NewAuditMiddleware(auditService services.AuditLogsService) *AuditMiddleware {
	return &AuditMiddleware{auditService: auditService}
}

var methodActions = map[string]string{
	"POST":   models.ActionInsert,
	"PUT":    models.ActionUpdate,
	"PATCH":  models.ActionUpdate,
	"DELETE": models.ActionDelete,
}

func (m *AuditMiddleware) AuditMutations() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			err := next(c)

			action, mutating := methodActions[c.Request().Method]
			if !mutating || err != nil || c.Response().Status >= 400 {
				return err
			}

			ctx := c.Request().Context()
			tenantID, ok := common.GetTenantIDFromContext(ctx)
			if !ok {
				return err
			}
			var userPtr *uuid.UUID
			if userID, ok := common.GetUserIDFromContext(ctx); ok {
				userPtr = &userID
			}

			recordID := c.Param("id")
			if recordID == "" {
				recordID = c.Path()
			}
			values := models.JSONB{
				"method":    c.Request().Method,
				"path":      c.Path(),
				"ip":        c.RealIP(),
				"timestamp": time.Now().Format(time.RFC3339),
			}

			// Audit failures never fail the request.
			_ = m.auditService.LogActivity(ctx, tenantID, "http_requests", recordID, action, userPtr, values)

			return err
		}
	}
}
