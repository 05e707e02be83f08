package handlers

import (
	"net/http"

	"cannaclub/internal/common"
	"cannaclub/internal/services"

	"github.com/labstack/echo/v4"
)

type TenantHandlers struct {
	tenantService services.TenantServiceInterface
}

func NewTenantHandlers(tenantService services.TenantServiceInterface) *TenantHandlers {
	return &TenantHandlers{tenantService: tenantService}
}

// CreateTenant handles POST /tenants. Unauthenticated; this is club signup.
func (h *TenantHandlers) CreateTenant(c echo.Context) error {
	var req services.CreateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	tenant, err := h.tenantService.Create(c.Request().Context(), &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, tenant)
}

// GetTenant handles GET /tenants/:id
func (h *TenantHandlers) GetTenant(c echo.Context) error {
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	tenant, err := h.tenantService.GetByID(c.Request().Context(), tenantID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// GetTenantBySubdomain handles GET /tenants/by-subdomain/:subdomain
func (h *TenantHandlers) GetTenantBySubdomain(c echo.Context) error {
	tenant, err := h.tenantService.GetBySubdomain(c.Request().Context(), c.Param("subdomain"))
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, tenant)
}

// UpdateTenant handles PUT /tenants/:id
func (h *TenantHandlers) UpdateTenant(c echo.Context) error {
	_, authTenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	tenantID, err := common.ValidateUUID(c.Param("id"), "tenant id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	if tenantID != authTenantID {
		return echo.NewHTTPError(http.StatusForbidden, "Cannot update another tenant")
	}

	var req services.UpdateTenantRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	req.ID = tenantID

	if err := h.tenantService.Update(c.Request().Context(), &req); err != nil {
		return respondDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
