package handlers

import (
	"context"
	"net/http"
	"strings"

	"cannaclub/internal/common"
	"cannaclub/internal/models"
	"cannaclub/internal/services"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// ProductHandlers handles HTTP requests for the product catalog and its
// stock movements.
type ProductHandlers struct {
	productService services.ProductServiceInterface
}

func NewProductHandlers(productService services.ProductServiceInterface) *ProductHandlers {
	return &ProductHandlers{productService: productService}
}

// CreateProduct handles POST /products
func (h *ProductHandlers) CreateProduct(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}

	var req services.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	product, err := h.productService.CreateProduct(c.Request().Context(), tenantID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, product)
}

// GetProduct handles GET /products/:id
func (h *ProductHandlers) GetProduct(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	productID, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	product, err := h.productService.GetProductByID(c.Request().Context(), tenantID, productID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// UpdateProduct handles PUT /products/:id
func (h *ProductHandlers) UpdateProduct(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	productID, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req services.UpdateProductRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	product, err := h.productService.UpdateProduct(c.Request().Context(), tenantID, productID, &req)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, product)
}

// DeactivateProduct handles DELETE /products/:id
func (h *ProductHandlers) DeactivateProduct(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	productID, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	if err := h.productService.DeactivateProduct(c.Request().Context(), tenantID, productID); err != nil {
		return respondDomainError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// ListProducts handles GET /products. With a query, price bounds or
// low_stock=true it runs a filtered search, otherwise a plain page.
func (h *ProductHandlers) ListProducts(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	limit, offset := common.ParsePagination(c)

	filter := &models.ProductSearchFilter{
		Query:     strings.TrimSpace(c.QueryParam("q")),
		LowStock:  c.QueryParam("low_stock") == "true",
		SortBy:    c.QueryParam("sort_by"),
		SortOrder: c.QueryParam("sort_order"),
		Limit:     limit,
		Offset:    offset,
	}
	if raw := c.QueryParam("min_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return common.SendClientError(c, "min_price must be a decimal")
		}
		filter.MinPrice = &p
	}
	if raw := c.QueryParam("max_price"); raw != "" {
		p, err := decimal.NewFromString(raw)
		if err != nil {
			return common.SendClientError(c, "max_price must be a decimal")
		}
		filter.MaxPrice = &p
	}
	if raw := c.QueryParam("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}

	var products []*models.Product
	if filter.Query != "" || filter.MinPrice != nil || filter.MaxPrice != nil || filter.LowStock || filter.Active != nil {
		products, err = h.productService.SearchProducts(c.Request().Context(), tenantID, filter)
	} else {
		products, err = h.productService.ListProducts(c.Request().Context(), tenantID, limit, offset)
	}
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"products": products})
}

// LowStockProducts handles GET /products/low-stock
func (h *ProductHandlers) LowStockProducts(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	products, err := h.productService.ListLowStockProducts(c.Request().Context(), tenantID)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"products": products})
}

type stockMovementRequest struct {
	Quantity  decimal.Decimal `json:"quantity"`
	Reference *string         `json:"reference"`
}

type stockMovementFunc func(ctx context.Context, tenantID, actorID, productID uuid.UUID, quantity decimal.Decimal, reference *string) (*models.InventoryTransaction, error)

// ReceiveStock handles POST /products/:id/receive
func (h *ProductHandlers) ReceiveStock(c echo.Context) error {
	return h.applyMovement(c, h.productService.ReceiveStock)
}

// ReturnStock handles POST /products/:id/return
func (h *ProductHandlers) ReturnStock(c echo.Context) error {
	return h.applyMovement(c, h.productService.ReturnStock)
}

// AdjustStock handles POST /products/:id/adjust
func (h *ProductHandlers) AdjustStock(c echo.Context) error {
	return h.applyMovement(c, h.productService.AdjustStock)
}

func (h *ProductHandlers) applyMovement(c echo.Context, apply stockMovementFunc) error {
	userID, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	productID, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}

	var req stockMovementRequest
	if err := c.Bind(&req); err != nil {
		return common.SendClientError(c, "Invalid request format")
	}

	entry, err := apply(c.Request().Context(), tenantID, userID, productID, req.Quantity, req.Reference)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusCreated, entry)
}

// ListProductTransactions handles GET /products/:id/transactions
func (h *ProductHandlers) ListProductTransactions(c echo.Context) error {
	_, tenantID, err := requestIdentity(c)
	if err != nil {
		return err
	}
	productID, err := common.ValidateUUID(c.Param("id"), "product id")
	if err != nil {
		return common.SendClientError(c, err.Error())
	}
	limit, offset := common.ParsePagination(c)

	entries, err := h.productService.ListProductTransactions(c.Request().Context(), tenantID, productID, limit, offset)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"transactions": entries})
}
