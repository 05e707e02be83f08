package handlers

import (
	"net/http"
	"time"

	"cannaclub/internal/common"
	"cannaclub/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

type MemberHandlers struct {
	memberService services.MemberServiceInterface
	jwtSecret     string
	tokenTTL      time.Duration
}

func NewMemberHandlers(memberService services.MemberServiceInterface, jwtSecret string, tokenTTL time.Duration) *MemberHandlers {
	return &MemberHandlers{
		memberService: memberService,
		jwtSecret:     jwtSecret,
		tokenTTL:      tokenTTL,
	}
}

// Login handles POST /auth/login. The tenant is resolved from the subdomain
// by the caller and passed as tenant_id.
func (h *MemberHandlers) Login(c echo.Context) error {
	var req struct {
		TenantID string `json:"tenant_id"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	tenantID, err := common.ValidateUUID(req.TenantID, "tenant_id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	user, err := h.memberService.Authenticate(c.Request().Context(), tenantID, req.Email, req.Password)
	if err != nil {
		return respondDomainError(c, err)
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": user.ID.String(),
		"iat": now.Unix(),
		"exp": now.Add(h.tokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(h.jwtSecret))
	if err != nil {
		return common.SendServerError(c, "Could not issue token")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"access_token": signed,
		"token_type":   "Bearer",
		"expires_in":   int(h.tokenTTL.Seconds()),
		"user":         user,
	})
}

// CreateMember handles POST /members
func (h *MemberHandlers) CreateMember(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req services.CreateMemberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	user, err := h.memberService.CreateMember(c.Request().Context(), tenantID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, user)
}

// GetMember handles GET /members/:id
func (h *MemberHandlers) GetMember(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	memberID, err := common.ValidateUUID(c.Param("id"), "member id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	user, err := h.memberService.GetMember(c.Request().Context(), tenantID, memberID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// UpdateMember handles PUT /members/:id
func (h *MemberHandlers) UpdateMember(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	memberID, err := common.ValidateUUID(c.Param("id"), "member id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req services.UpdateMemberRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	user, err := h.memberService.UpdateMember(c.Request().Context(), tenantID, memberID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, user)
}

// ListMembers handles GET /members, optionally filtered by role.
func (h *MemberHandlers) ListMembers(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	users, err := h.memberService.ListMembers(c.Request().Context(), tenantID, c.QueryParam("role"), limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"members": users})
}
