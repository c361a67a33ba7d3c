package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/WaelAlfnan/OrderDelivery-sub000/metrics"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
	"github.com/WaelAlfnan/OrderDelivery-sub000/realtime"
)

type OrderStatusHandler struct {
	svc orderpkg.Service
	hub *realtime.Hub
}

func NewOrderStatusHandler(svc orderpkg.Service, hub *realtime.Hub) *OrderStatusHandler {
	return &OrderStatusHandler{svc: svc, hub: hub}
}

func (h *OrderStatusHandler) update(target entity.OrderStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		updated, err := h.svc.UpdateStatus(ctx, orderID, target, &driverID)
		if err != nil {
			orderError(c, err)
			return
		}
		metrics.OrderStatusChanges.WithLabelValues(string(updated.Status)).Inc()
		if h.hub != nil {
			_ = h.hub.NotifyMerchant(updated.MerchantID.String(), "order.status", realtime.OrderStatusPayload{
				OrderID: updated.ID.String(),
				Status:  string(updated.Status),
			})
		}
		c.JSON(http.StatusOK, updated)
	}
}

func (h *OrderStatusHandler) Accept() gin.HandlerFunc    { return h.update(entity.OrderAccepted) }
func (h *OrderStatusHandler) Decline() gin.HandlerFunc   { return h.update(entity.OrderDeclined) }
func (h *OrderStatusHandler) Picked() gin.HandlerFunc    { return h.update(entity.OrderPickedUp) }
func (h *OrderStatusHandler) Delivered() gin.HandlerFunc { return h.update(entity.OrderDelivered) }
