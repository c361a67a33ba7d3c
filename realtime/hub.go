package realtime

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Hub tracks live websocket connections keyed by user id, one pool for
// drivers and one for merchants. A reconnect replaces the old connection.
type Hub struct {
	mu         sync.RWMutex
	byDriver   map[string]*wsConn
	byMerchant map[string]*wsConn
	log        *zap.Logger
}

func NewHub(log *zap.Logger) *Hub {
	return &Hub{
		byDriver:   make(map[string]*wsConn),
		byMerchant: make(map[string]*wsConn),
		log:        log,
	}
}

// wsConn wraps a websocket connection with a write mutex to serialize writes.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (h *Hub) RegisterDriver(driverID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.byDriver[driverID]; ok {
		old.conn.Close()
	}
	h.byDriver[driverID] = &wsConn{conn: conn}
}

func (h *Hub) UnregisterDriver(driverID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.byDriver[driverID]; ok {
		c.conn.Close()
		delete(h.byDriver, driverID)
	}
}

// NotifyDriver sends a typed event payload to the driver if connected.
// A disconnected driver just misses the event.
func (h *Hub) NotifyDriver(driverID string, event string, payload any) error {
	h.mu.RLock()
	wc, ok := h.byDriver[driverID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("ws driver not connected", zap.String("driver_id", driverID), zap.String("event", event))
		return nil
	}
	return h.write(wc, event, payload)
}

func (h *Hub) RegisterMerchant(merchantID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.byMerchant[merchantID]; ok {
		old.conn.Close()
	}
	h.byMerchant[merchantID] = &wsConn{conn: conn}
}

func (h *Hub) UnregisterMerchant(merchantID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c, ok := h.byMerchant[merchantID]; ok {
		c.conn.Close()
		delete(h.byMerchant, merchantID)
	}
}

// NotifyMerchant sends an event to the merchant if connected.
func (h *Hub) NotifyMerchant(merchantID string, event string, payload any) error {
	h.mu.RLock()
	wc, ok := h.byMerchant[merchantID]
	h.mu.RUnlock()
	if !ok {
		h.log.Debug("ws merchant not connected", zap.String("merchant_id", merchantID), zap.String("event", event))
		return nil
	}
	return h.write(wc, event, payload)
}

func (h *Hub) write(wc *wsConn, event string, payload any) error {
	msg := map[string]any{"event": event, "data": payload}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if err := wc.conn.WriteJSON(msg); err != nil {
		h.log.Warn("ws write failed", zap.String("event", event), zap.Error(err))
		return err
	}
	return nil
}

// AssignmentPayload is sent to drivers when an order is offered to them.
type AssignmentPayload struct {
	OrderID    string `json:"order_id"`
	MerchantID string `json:"merchant_id"`
}

// OrderStatusPayload is sent to merchants on status changes.
type OrderStatusPayload struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}
