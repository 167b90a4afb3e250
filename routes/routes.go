package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/velora-store/velora-backend-go/handlers"
	"github.com/velora-store/velora-backend-go/metrics"
	customMiddleware "github.com/velora-store/velora-backend-go/middleware"
)

func SetupRoutes(e *echo.Echo, h *handlers.Handler, m *metrics.StoreMetrics) {
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})
	e.GET("/health/events", h.EventListenerHealth)
	e.GET("/metrics", echo.WrapHandler(m.Handler()))

	// Public auth routes
	e.POST("/api/auth/signup", h.SignUp)
	e.POST("/api/auth/login", h.Login)

	api := e.Group("/api")

	// Storefront catalog
	api.GET("/products", h.GetProducts)
	api.GET("/products/:id", h.GetProduct)

	// Session cart
	api.GET("/cart", h.GetCart)
	api.POST("/cart/items", h.AddToCart)
	api.DELETE("/cart/items/:productId", h.RemoveFromCart)
	api.PUT("/cart/items/quantity", h.UpdateCartItemQuantity)

	// Checkout and payment
	api.POST("/checkout", h.Checkout)
	api.POST("/create-payment-intent", h.CreatePaymentIntent)
	api.POST("/orders/:id/pay", h.PayOrder)

	// Customer order view (read-only, live)
	api.GET("/orders", h.ListMyOrders, customMiddleware.AuthMiddleware)
	api.GET("/orders/:id", h.GetOrder)
	api.GET("/orders/:id/stream", h.StreamOrder)

	// Admin console
	admin := api.Group("/admin", customMiddleware.AuthMiddleware, customMiddleware.AdminMiddleware)
	admin.GET("/orders", h.ListOrders)
	admin.PUT("/orders/:id/status", h.UpdateOrderStatus)
	admin.POST("/products", h.CreateProduct)
	admin.PUT("/products/:id", h.UpdateProduct)
	admin.DELETE("/products/:id", h.DeleteProduct)
}
