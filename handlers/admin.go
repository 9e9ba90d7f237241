package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/services"
	"food-ordering-api/statemachine"
)

type UpdateStatusRequest struct {
	OrderID   uint   `json:"order_id" binding:"required"`
	NewStatus string `json:"new_status" binding:"required"`
}

type UpdateLocationRequest struct {
	OrderID      uint     `json:"order_id" binding:"required"`
	Latitude     *float64 `json:"latitude" binding:"required"`
	Longitude    *float64 `json:"longitude" binding:"required"`
	LocationName string   `json:"location_name" binding:"required"`
}

type AdminUserRequest struct {
	FullName string `json:"full_name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=customer admin"`
}

// AdminGetAllOrders returns every order with tracking, grouped by status
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	status := models.OrderStatus(c.Query("status"))
	if status != "" && !statemachine.Known(status) {
		fail(c, http.StatusBadRequest, "Unknown status filter: "+string(status))
		return
	}
	orders, err := h.orders.ListAllOrders(c.Request.Context(), status)
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// UpdateOrderStatus advances an order one step along the ladder
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	change, err := h.orders.AdvanceStatus(c.Request.Context(), middleware.GetUserID(c), req.OrderID, models.OrderStatus(req.NewStatus))
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Order status updated to " + string(change.CurrentStatus),
		"order":   change,
	})
}

// UpdateOrderLocation records the rider's current position for an order
func (h *Handler) UpdateOrderLocation(c *gin.Context) {
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	row, err := h.orders.UpdateCurrentLocation(c.Request.Context(), req.OrderID, *req.Latitude, *req.Longitude, req.LocationName)
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Location updated", "tracking": row})
}

// DeleteOrder hard-deletes an order and everything attached to it
func (h *Handler) DeleteOrder(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.orders.DeleteOrder(c.Request.Context(), orderID); err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Order deleted"})
}

// AdminGetAllUsers returns all users, optionally filtered by role
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// AdminUpdateUser edits another account
func (h *Handler) AdminUpdateUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req AdminUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	user, err := h.users.AdminUpdate(c.Request.Context(), id, services.AdminUserInput{
		FullName: req.FullName,
		Email:    req.Email,
		Role:     models.UserRole(req.Role),
	})
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User updated", "user": user})
}

// AdminDeleteUser removes another account along with its orders
func (h *Handler) AdminDeleteUser(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	picture, err := h.users.AdminDelete(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, "ADMIN", err)
		return
	}
	h.uploads.Remove(picture)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "User deleted"})
}

// GetDashboardStats returns weekly or monthly sales figures
func (h *Handler) GetDashboardStats(c *gin.Context) {
	stats, err := h.reports.Stats(c.Request.Context(), c.DefaultQuery("view", services.ViewWeekly))
	if err != nil {
		respondError(c, "REPORT", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}

// GetSalesReport returns the revenue summary, top items and recent orders
func (h *Handler) GetSalesReport(c *gin.Context) {
	report, err := h.reports.SalesReport(c.Request.Context())
	if err != nil {
		respondError(c, "REPORT", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"summary":      report.Summary,
		"topItems":     report.TopItems,
		"recentOrders": report.RecentOrders,
	})
}
