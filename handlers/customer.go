package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"food-ordering-api/middleware"
	"food-ordering-api/models"
	"food-ordering-api/services"
)

// OrderItemRequest accepts either id or product_id. A client price is accepted and ignored.
type OrderItemRequest struct {
	ID        uint             `json:"id"`
	ProductID uint             `json:"product_id"`
	Quantity  int              `json:"quantity" binding:"required,min=1"`
	Price     *decimal.Decimal `json:"price"`
}

type PlaceOrderRequest struct {
	Items           []OrderItemRequest     `json:"items" binding:"required,min=1,dive"`
	PaymentMethod   string                 `json:"payment_method" binding:"required,oneof=cod gcash card"`
	PaymentDetails  map[string]interface{} `json:"payment_details"`
	DeliveryAddress string                 `json:"delivery_address" binding:"required"`
	Latitude        *float64               `json:"latitude"`
	Longitude       *float64               `json:"longitude"`
}

func (r PlaceOrderRequest) input() services.PlaceOrderInput {
	lines := make([]services.OrderLine, len(r.Items))
	for i, item := range r.Items {
		id := item.ProductID
		if id == 0 {
			id = item.ID
		}
		lines[i] = services.OrderLine{ProductID: id, Quantity: item.Quantity}
	}
	return services.PlaceOrderInput{
		Items:           lines,
		PaymentMethod:   models.PaymentMethod(r.PaymentMethod),
		PaymentDetails:  r.PaymentDetails,
		DeliveryAddress: r.DeliveryAddress,
		Latitude:        r.Latitude,
		Longitude:       r.Longitude,
	}
}

// PlaceOrder creates a new order for the caller
func (h *Handler) PlaceOrder(c *gin.Context) {
	userID := middleware.GetUserID(c)

	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	placed, err := h.orders.PlaceOrder(c.Request.Context(), userID, req.input())
	if err != nil {
		respondError(c, "ORDER", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":  true,
		"message":  "Order placed successfully",
		"order_id": placed.OrderID,
		"total":    models.Money(placed.Total),
	})
}

// GetMyOrders lists a customer's orders with tracking. Customers may only ask for their own
// user_id; admins may ask for anyone's.
func (h *Handler) GetMyOrders(c *gin.Context) {
	callerID := middleware.GetUserID(c)
	targetID := callerID
	if raw := c.Query("user_id"); raw != "" {
		parsed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil || parsed == 0 {
			fail(c, http.StatusBadRequest, "Invalid user_id")
			return
		}
		targetID = uint(parsed)
	}
	if targetID != callerID && middleware.GetRole(c) != models.RoleAdmin {
		fail(c, http.StatusForbidden, "You can only view your own orders")
		return
	}

	orders, err := h.orders.ListOrdersForUser(c.Request.Context(), targetID)
	if err != nil {
		respondError(c, "ORDER", err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrderDetail returns a single order's full detail with history
func (h *Handler) GetOrderDetail(c *gin.Context) {
	orderID, ok := idParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(c.Request.Context(), orderID, middleware.GetUserID(c), middleware.GetRole(c))
	if err != nil {
		respondError(c, "ORDER", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "order": order})
}
