package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	dispatchsvc "github.com/WaelAlfnan/OrderDelivery-sub000/dispatch"
	"github.com/WaelAlfnan/OrderDelivery-sub000/metrics"
	orderpkg "github.com/WaelAlfnan/OrderDelivery-sub000/order"
	"github.com/WaelAlfnan/OrderDelivery-sub000/realtime"
)

type OrderHandler struct {
	service  orderpkg.Service
	dispatch dispatchsvc.Service
	hub      *realtime.Hub
}

func NewOrderHandler(svc orderpkg.Service, dispatch dispatchsvc.Service, hub *realtime.Hub) *OrderHandler {
	return &OrderHandler{service: svc, dispatch: dispatch, hub: hub}
}

type createOrderPayload struct {
	ReceiverPhone  string `json:"receiver_phone" binding:"required"`
	PickupAddress  string `json:"pickup_address" binding:"required"`
	DropoffAddress string `json:"dropoff_address" binding:"required"`
	PriceCents     int64  `json:"price_cents" binding:"required"`
}

// CreateOrder creates a pending order owned by the authenticated merchant.
func (h *OrderHandler) CreateOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		var p createOrderPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		o, err := h.service.CreateOrder(ctx, orderpkg.CreateOrderRequest{
			MerchantID:     merchantID,
			ReceiverPhone:  p.ReceiverPhone,
			PickupAddress:  p.PickupAddress,
			DropoffAddress: p.DropoffAddress,
			PriceCents:     p.PriceCents,
		})
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create order"})
			return
		}
		metrics.OrdersCreated.Inc()
		// best effort: offer the new order to a driver right away
		if h.dispatch != nil {
			if assigned, _, err := h.dispatch.FindAndAssign(ctx, o.ID); err == nil {
				o = assigned
			}
		}
		c.JSON(http.StatusCreated, o)
	}
}

// ListMine returns the authenticated merchant's orders.
func (h *OrderHandler) ListMine() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		list, err := h.service.ListForMerchant(ctx, merchantID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list orders"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"orders": list})
	}
}

// Active returns the authenticated driver's current order, if any.
func (h *OrderHandler) Active() gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		o, err := h.service.ActiveForDriver(ctx, driverID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load active order"})
			return
		}
		if o == nil {
			c.JSON(http.StatusOK, gin.H{"order": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"order": o})
	}
}

type assignPayload struct {
	DriverID string `json:"driver_id" binding:"required"`
}

// Assign offers the order to a driver and pushes a websocket notification.
func (h *OrderHandler) Assign() gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order id"})
			return
		}
		var p assignPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		driverID, err := uuid.Parse(p.DriverID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid driver_id"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		o, err := h.service.AssignDriver(ctx, orderID, driverID)
		if err != nil {
			orderError(c, err)
			return
		}
		if h.hub != nil {
			_ = h.hub.NotifyDriver(driverID.String(), "order.assigned", realtime.AssignmentPayload{
				OrderID:    o.ID.String(),
				MerchantID: o.MerchantID.String(),
			})
		}
		c.JSON(http.StatusOK, o)
	}
}

// CancelByMerchant cancels one of the merchant's own orders.
func (h *OrderHandler) CancelByMerchant() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID, ok := contextUserID(c)
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
		o, err := h.service.CancelByMerchant(ctx, orderID, merchantID)
		if err != nil {
			orderError(c, err)
			return
		}
		if h.hub != nil && o.AssignedDriver != nil {
			_ = h.hub.NotifyDriver(o.AssignedDriver.String(), "order.status", realtime.OrderStatusPayload{
				OrderID: o.ID.String(), Status: string(o.Status),
			})
		}
		c.JSON(http.StatusOK, o)
	}
}

// CancelByDriver cancels the driver's accepted order.
func (h *OrderHandler) CancelByDriver() gin.HandlerFunc {
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
		o, err := h.service.CancelByDriver(ctx, orderID, driverID)
		if err != nil {
			orderError(c, err)
			return
		}
		if h.hub != nil {
			_ = h.hub.NotifyMerchant(o.MerchantID.String(), "order.status", realtime.OrderStatusPayload{
				OrderID: o.ID.String(), Status: string(o.Status),
			})
		}
		c.JSON(http.StatusOK, o)
	}
}

func orderError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, orderpkg.ErrOrderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, orderpkg.ErrInvalidTransition),
		errors.Is(err, orderpkg.ErrOrderNotCancelable):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, orderpkg.ErrNotAssignedDriver),
		errors.Is(err, orderpkg.ErrNotOrderOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "order operation failed"})
	}
}
