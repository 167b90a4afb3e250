package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/velora-store/velora-backend-go/models"
)

// GetCart returns the session's cart, empty if none was persisted yet.
func (h *Handler) GetCart(c echo.Context) error {
	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}

	return c.JSON(http.StatusOK, models.Cart{
		Items:      store.Items(),
		TotalPrice: store.TotalPrice(),
	})
}

// AddToCart merges the posted item into the cart, deduplicating on the
// (productId, size) identity key.
func (h *Handler) AddToCart(c echo.Context) error {
	var item models.CartItem
	if err := c.Bind(&item); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}
	if item.ProductID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Product ID is required"})
	}

	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}
	if err := store.AddItem(c.Request().Context(), item); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save cart"})
	}

	return c.JSON(http.StatusOK, models.Cart{Items: store.Items(), TotalPrice: store.TotalPrice()})
}

// RemoveFromCart drops a line item. Removing an absent item succeeds.
func (h *Handler) RemoveFromCart(c echo.Context) error {
	productID := c.Param("productId")
	size := c.QueryParam("size")

	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}
	if err := store.RemoveItem(c.Request().Context(), productID, size); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save cart"})
	}

	return c.JSON(http.StatusOK, models.Cart{Items: store.Items(), TotalPrice: store.TotalPrice()})
}

// UpdateCartItemQuantity replaces a line's quantity, clamped to ≥1.
func (h *Handler) UpdateCartItemQuantity(c echo.Context) error {
	var req struct {
		ProductID string `json:"productId"`
		Size      string `json:"size"`
		Quantity  int    `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request format"})
	}

	store, err := h.loadCart(c)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to load cart"})
	}
	if err := store.SetQuantity(c.Request().Context(), req.ProductID, req.Size, req.Quantity); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save cart"})
	}

	return c.JSON(http.StatusOK, models.Cart{Items: store.Items(), TotalPrice: store.TotalPrice()})
}
