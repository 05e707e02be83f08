package handlers

import (
	"errors"
	"net/http"

	"cannaclub/internal/common"
	"cannaclub/internal/ledger"
	"cannaclub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

// respondDomainError maps the service error taxonomy onto HTTP. Validation is
// the caller's fault (400), domain rule failures are unprocessable (422),
// races surface as conflicts (409), everything else is a server error.
func respondDomainError(c echo.Context, err error) error {
	var validationErr *ledger.ValidationError
	if errors.As(err, &validationErr) {
		return common.SendValidationError(c, validationErr.Field, validationErr.Message)
	}

	var fundsErr *ledger.InsufficientFundsError
	if errors.As(err, &fundsErr) {
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("INSUFFICIENT_FUNDS", fundsErr.Error(), map[string]string{
			"required":  fundsErr.Required.StringFixed(2),
			"available": fundsErr.Available.StringFixed(2),
		}))
	}

	var stockErr *ledger.InsufficientStockError
	if errors.As(err, &stockErr) {
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("INSUFFICIENT_STOCK", stockErr.Error(), map[string]string{
			"product_id": stockErr.ProductID.String(),
			"requested":  stockErr.Requested.StringFixed(3),
			"available":  stockErr.Available.StringFixed(3),
		}))
	}

	var sessionErr *services.DuplicateActiveSessionError
	if errors.As(err, &sessionErr) {
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("DUPLICATE_ACTIVE_SESSION", sessionErr.Error(), nil))
	}

	var incompleteErr *services.IncompleteStockCheckError
	if errors.As(err, &incompleteErr) {
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("INCOMPLETE_STOCK_CHECK", incompleteErr.Error(), nil))
	}

	switch {
	case errors.Is(err, ledger.ErrProductNotFound):
		return common.SendNotFoundError(c, "Product")
	case errors.Is(err, ledger.ErrWalletNotFound):
		return common.SendNotFoundError(c, "Wallet")
	case errors.Is(err, services.ErrOrderNotFound):
		return common.SendNotFoundError(c, "Order")
	case errors.Is(err, services.ErrStockCheckNotFound):
		return common.SendNotFoundError(c, "Stock check")
	case errors.Is(err, services.ErrUserNotFound):
		return common.SendNotFoundError(c, "User")
	case errors.Is(err, services.ErrTenantNotFound):
		return common.SendNotFoundError(c, "Tenant")
	case errors.Is(err, services.ErrStockCheckCompleted):
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("STOCK_CHECK_COMPLETED", err.Error(), nil))
	case errors.Is(err, services.ErrStockCheckNotEmpty):
		return c.JSON(http.StatusUnprocessableEntity, common.CreateErrorResponse("STOCK_CHECK_NOT_EMPTY", err.Error(), nil))
	case errors.Is(err, services.ErrStockCheckItemExists):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("STOCK_CHECK_ITEM_EXISTS", err.Error(), nil))
	case errors.Is(err, services.ErrWalletExists):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("WALLET_EXISTS", err.Error(), nil))
	case errors.Is(err, ledger.ErrConstraintViolation):
		return c.JSON(http.StatusConflict, common.CreateErrorResponse("CONSTRAINT_VIOLATION", "Conflicting concurrent update, retry the request", nil))
	case errors.Is(err, services.ErrInvalidCredentials):
		return common.SendUnauthorizedError(c)
	}

	return common.SendServerError(c, "Internal server error")
}

// requestIdentity pulls the authenticated user and tenant out of the request
// context. Both are set by the JWT middleware.
func requestIdentity(c echo.Context) (userID, tenantID uuid.UUID, err error) {
	ctx := c.Request().Context()
	userID, ok := common.GetUserIDFromContext(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	tenantID, ok = common.GetTenantIDFromContext(ctx)
	if !ok {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusUnauthorized, "Tenant not found")
	}
	return userID, tenantID, nil
}
