package handlers

import (
	"net/http"

	"cannaclub/internal/common"
	"cannaclub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type WalletHandlers struct {
	walletService services.WalletServiceInterface
}

func NewWalletHandlers(walletService services.WalletServiceInterface) *WalletHandlers {
	return &WalletHandlers{walletService: walletService}
}

// CreateWallet handles POST /wallets
func (h *WalletHandlers) CreateWallet(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req struct {
		UserID uuid.UUID `json:"user_id"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.UserID == uuid.Nil {
		return common.SendValidationError(c, "user_id", "user_id is required")
	}

	wallet, err := h.walletService.CreateWallet(c.Request().Context(), tenantID, req.UserID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, wallet)
}

// GetWallet handles GET /wallets/:id
func (h *WalletHandlers) GetWallet(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	walletID, err := common.ValidateUUID(c.Param("id"), "wallet id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	wallet, err := h.walletService.GetWallet(c.Request().Context(), tenantID, walletID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, wallet)
}

// GetMyWallet handles GET /wallets/me, the member's own balance view.
func (h *WalletHandlers) GetMyWallet(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	wallet, err := h.walletService.GetWalletByUser(c.Request().Context(), tenantID, userID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, wallet)
}

// ListWallets handles GET /wallets
func (h *WalletHandlers) ListWallets(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	wallets, err := h.walletService.ListWallets(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"wallets": wallets})
}

type walletMovementRequest struct {
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	Reference     *string         `json:"reference"`
}

// Deposit handles POST /wallets/:id/deposit
func (h *WalletHandlers) Deposit(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	walletID, err := common.ValidateUUID(c.Param("id"), "wallet id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req walletMovementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	entry, err := h.walletService.Deposit(c.Request().Context(), tenantID, userID, walletID, req.Amount, req.PaymentMethod, req.Reference)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// Withdraw handles POST /wallets/:id/withdraw
func (h *WalletHandlers) Withdraw(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	walletID, err := common.ValidateUUID(c.Param("id"), "wallet id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req walletMovementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	entry, err := h.walletService.Withdraw(c.Request().Context(), tenantID, userID, walletID, req.Amount, req.Reference)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// ListTransactions handles GET /wallets/:id/transactions
func (h *WalletHandlers) ListTransactions(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	walletID, err := common.ValidateUUID(c.Param("id"), "wallet id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	limit, offset := common.ParsePagination(c)

	entries, err := h.walletService.ListTransactions(c.Request().Context(), tenantID, walletID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": entries})
}
