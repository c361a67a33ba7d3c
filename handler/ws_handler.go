package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/WaelAlfnan/OrderDelivery-sub000/realtime"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

type WSHandler struct {
	hub              *realtime.Hub
	onDriverLocation func(driverUserID string, lat, lng *float64)
	orders           interface { // minimal interface to avoid an import cycle
		ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error)
	}
}

func NewWSHandler(hub *realtime.Hub) *WSHandler { return &WSHandler{hub: hub} }

func (h *WSHandler) WithDriverLocationHandler(fn func(driverUserID string, lat, lng *float64)) *WSHandler {
	h.onDriverLocation = fn
	return h
}

// WithOrders wires an order reader for the initial sync on merchant connect.
func (h *WSHandler) WithOrders(orders interface {
	ListForMerchant(ctx context.Context, merchantID uuid.UUID) ([]entity.Order, error)
}) *WSHandler {
	h.orders = orders
	return h
}

// DriverSocket upgrades to WS and registers the driver connection. Inbound
// location.update events feed the location handler.
func (h *WSHandler) DriverSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		// auth + role middleware run before this handler
		driverID := c.GetString("user_id")
		if driverID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "user_id missing in context"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		h.hub.RegisterDriver(driverID, conn)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				h.hub.UnregisterDriver(driverID)
				break
			}
			var msg struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Event {
			case "location.update":
				var p struct {
					Latitude  *float64 `json:"latitude"`
					Longitude *float64 `json:"longitude"`
				}
				if err := json.Unmarshal(msg.Data, &p); err == nil && h.onDriverLocation != nil {
					h.onDriverLocation(driverID, p.Latitude, p.Longitude)
				}
			default:
				// ignore
			}
		}
	}
}

// MerchantSocket upgrades to WS and registers the merchant connection. On
// connect the merchant gets an order snapshot.
func (h *WSHandler) MerchantSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		merchantID := c.GetString("user_id")
		if merchantID == "" {
			c.JSON(http.StatusForbidden, gin.H{"error": "user_id missing in context"})
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		h.hub.RegisterMerchant(merchantID, conn)
		if h.orders != nil {
			type snapshot struct {
				Orders []entity.Order `json:"orders"`
			}
			if id, err := uuid.Parse(merchantID); err == nil {
				ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
				defer cancel()
				if list, err := h.orders.ListForMerchant(ctx, id); err == nil {
					_ = h.hub.NotifyMerchant(merchantID, "order.sync", snapshot{Orders: list})
				}
			}
		}
		// no inbound merchant events yet; hold the connection until closed
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.hub.UnregisterMerchant(merchantID)
				break
			}
		}
	}
}
