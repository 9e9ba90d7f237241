package routes

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"food-ordering-api/handlers"
	"food-ordering-api/middleware"
	"food-ordering-api/models"
)

// SetupRoutes registers every API route on r.
func SetupRoutes(r *gin.Engine, h *handlers.Handler, tokens *middleware.TokenIssuer, db *gorm.DB, uploadDir string) {
	handlers.ConfigureBinding()

	r.GET("/health", handlers.Health)
	r.Static("/"+handlers.UploadPrefix, uploadDir)

	authRequired := middleware.AuthRequired(tokens, db)
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		public.POST("/register", h.Register)
		public.POST("/login", h.Login)

		public.GET("/products", h.ListProducts)
		public.GET("/products/:id", h.GetProduct)

		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(authRequired)
	{
		auth.GET("/orders", h.GetMyOrders)
		auth.POST("/orders", h.PlaceOrder)
		auth.GET("/orders/:id", h.GetOrderDetail)

		auth.GET("/user/profile", h.GetProfile)
		auth.PUT("/user/profile", h.UpdateProfile)
		auth.POST("/user/change-password", h.ChangePassword)
		auth.DELETE("/user/account", h.DeleteAccount)
	}

	// ── Admin: catalogue and accounts ──────────────────────────────
	manage := r.Group("/api")
	manage.Use(authRequired, adminOnly)
	{
		manage.POST("/products", h.CreateProduct)
		manage.PUT("/products/:id", h.UpdateProduct)
		manage.DELETE("/products/:id", h.DeleteProduct)

		manage.GET("/users", h.AdminGetAllUsers)
		manage.PUT("/users/:id", h.AdminUpdateUser)
		manage.DELETE("/users/:id", h.AdminDeleteUser)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, adminOnly)
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.POST("/orders/status", h.UpdateOrderStatus)
		admin.POST("/orders/location", h.UpdateOrderLocation)
		admin.DELETE("/orders/:id", h.DeleteOrder)

		admin.GET("/stats", h.GetDashboardStats)
		admin.GET("/sales-report", h.GetSalesReport)
	}
}
