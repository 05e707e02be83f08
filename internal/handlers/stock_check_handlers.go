package handlers

import (
	"net/http"

	"cannaclub/internal/common"
	"cannaclub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

type StockCheckHandlers struct {
	stockCheckService services.StockCheckServiceInterface
}

func NewStockCheckHandlers(stockCheckService services.StockCheckServiceInterface) *StockCheckHandlers {
	return &StockCheckHandlers{stockCheckService: stockCheckService}
}

// StartStockCheck handles POST /stock-checks
func (h *StockCheckHandlers) StartStockCheck(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req struct {
		Type       string  `json:"type"`
		StartNotes *string `json:"start_notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	check, err := h.stockCheckService.StartStockCheck(c.Request().Context(), tenantID, userID, req.Type, req.StartNotes)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, check)
}

// GetStockCheck handles GET /stock-checks/:id
func (h *StockCheckHandlers) GetStockCheck(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	checkID, err := common.ValidateUUID(c.Param("id"), "stock check id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	check, items, err := h.stockCheckService.GetStockCheck(c.Request().Context(), tenantID, checkID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"stock_check": check, "items": items})
}

// ListStockChecks handles GET /stock-checks
func (h *StockCheckHandlers) ListStockChecks(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	checks, err := h.stockCheckService.ListStockChecks(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"stock_checks": checks})
}

// DeleteStockCheck handles DELETE /stock-checks/:id
func (h *StockCheckHandlers) DeleteStockCheck(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	checkID, err := common.ValidateUUID(c.Param("id"), "stock check id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.stockCheckService.DeleteStockCheck(c.Request().Context(), tenantID, checkID); err != nil {
		return respondDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// AddItem handles POST /stock-checks/:id/items
func (h *StockCheckHandlers) AddItem(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	checkID, err := common.ValidateUUID(c.Param("id"), "stock check id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		ProductID      uuid.UUID        `json:"product_id"`
		ActualQuantity *decimal.Decimal `json:"actual_quantity"`
		Notes          *string          `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	if req.ProductID == uuid.Nil {
		return common.SendValidationError(c, "product_id", "product_id is required")
	}

	item, err := h.stockCheckService.AddItem(c.Request().Context(), tenantID, checkID, req.ProductID, req.ActualQuantity, req.Notes)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, item)
}

// UpdateItem handles PUT /stock-checks/items/:item_id
func (h *StockCheckHandlers) UpdateItem(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	itemID, err := common.ValidateUUID(c.Param("item_id"), "stock check item id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		ActualQuantity decimal.Decimal `json:"actual_quantity"`
		Notes          *string         `json:"notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	item, err := h.stockCheckService.UpdateItemCount(c.Request().Context(), tenantID, itemID, req.ActualQuantity, req.Notes)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}

// CompleteStockCheck handles POST /stock-checks/:id/complete
func (h *StockCheckHandlers) CompleteStockCheck(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	checkID, err := common.ValidateUUID(c.Param("id"), "stock check id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req struct {
		EndNotes *string `json:"end_notes"`
	}
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	check, err := h.stockCheckService.CompleteStockCheck(c.Request().Context(), tenantID, checkID, userID, req.EndNotes)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, check)
}
