package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-ordering-api/models"
	"food-ordering-api/statemachine"
)

// GetStateMachineInfo returns the full state machine for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"ladder":          statemachine.Ladder(),
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCanceled},
		"description":     "Food Ordering Order Lifecycle State Machine",
	})
}

// Health is the liveness probe.
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "Food Ordering API",
		"version": "1.0.0",
	})
}
