package handlers

import (
	"net/http"

	"cannaclub/internal/common"
	"cannaclub/internal/services"

	"github.com/labstack/echo/v4"
)

type OrderHandlers struct {
	orderService services.OrderServiceInterface
}

func NewOrderHandlers(orderService services.OrderServiceInterface) *OrderHandlers {
	return &OrderHandlers{orderService: orderService}
}

// CreateOrder handles POST /orders. The acting staff member comes from the
// token, not the payload.
func (h *OrderHandlers) CreateOrder(c echo.Context) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req services.CreateOrderRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}
	req.StaffID = userID

	order, err := h.orderService.CreateOrder(c.Request().Context(), tenantID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, order)
}

// GetOrder handles GET /orders/:id
func (h *OrderHandlers) GetOrder(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	orderID, err := common.ValidateUUID(c.Param("id"), "order id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	order, err := h.orderService.GetOrderByID(c.Request().Context(), tenantID, orderID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, order)
}

// ListOrders handles GET /orders, optionally filtered by member.
func (h *OrderHandlers) ListOrders(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	if raw := c.QueryParam("member_id"); raw != "" {
		memberID, err := common.ValidateUUID(raw, "member_id")
		if err != nil {
			return common.SendClientError(c, err.Error())
		}
		orders, err := h.orderService.ListOrdersByMember(c.Request().Context(), tenantID, memberID, limit, offset)
		if err != nil {
			return respondDomainError(c, err)
		}
		return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders})
	}

	orders, err := h.orderService.ListOrders(c.Request().Context(), tenantID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"orders": orders})
}
