package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/analytica/storefront/internal/api/middleware"
	"github.com/analytica/storefront/pkg/errors"
)

// FlowEventResponse represents one recorded order flow transition
type FlowEventResponse struct {
	ID        string                 `json:"id"`
	OrderID   string                 `json:"order_id"`
	EventType string                 `json:"event_type"`
	EventData map[string]interface{} `json:"event_data,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// HandleOrderEvents handles GET /api/orders/:id/events
func HandleOrderEvents(d *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get session from context
		sess, ok := middleware.GetSessionFromContext(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		orderID := c.Param("id")
		events, err := d.Flows.History(c.Request.Context(), sess.UserID, orderID)
		if err != nil {
			if errors.IsNotFound(err) {
				c.JSON(http.StatusNotFound, gin.H{"error": "order not found"})
				return
			}
			d.Logger.Error("Failed to get order events", zap.String("order_id", orderID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}

		response := make([]FlowEventResponse, 0, len(events))
		for _, event := range events {
			response = append(response, FlowEventResponse{
				ID:        event.ID.String(),
				OrderID:   event.OrderID,
				EventType: event.EventType,
				EventData: event.EventData,
				CreatedAt: event.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
			})
		}

		c.JSON(http.StatusOK, gin.H{"order_id": orderID, "events": response})
	}
}
