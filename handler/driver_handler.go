package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	driverpkg "github.com/WaelAlfnan/OrderDelivery-sub000/driver"
)

type DriverHandler struct {
	service driverpkg.Service
}

func NewDriverHandler(svc driverpkg.Service) *DriverHandler {
	return &DriverHandler{service: svc}
}

// Profile returns the authenticated driver's profile with vehicle and residence.
func (h *DriverHandler) Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		d, err := h.service.ProfileByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, driverpkg.ErrDriverNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load driver profile"})
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

type availabilityPayload struct {
	Available *bool `json:"available" binding:"required"`
}

// SetAvailability toggles whether the driver receives order offers.
func (h *DriverHandler) SetAvailability() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		var p availabilityPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.SetAvailability(ctx, userID, *p.Available); err != nil {
			if errors.Is(err, driverpkg.ErrDriverNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update availability"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"available": *p.Available})
	}
}

type locationPayload struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// UpdateLocation records the driver's position over plain HTTP; the
// websocket location.update event is the steady-state path.
func (h *DriverHandler) UpdateLocation() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		var p locationPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.UpdateLocation(ctx, userID, p.Latitude, p.Longitude); err != nil {
			if errors.Is(err, driverpkg.ErrDriverNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update location"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "location updated"})
	}
}
