package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	authpkg "github.com/WaelAlfnan/OrderDelivery-sub000/auth"
	"github.com/WaelAlfnan/OrderDelivery-sub000/metrics"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
)

type AuthHandler struct {
	service authpkg.Service
}

func NewAuthHandler(svc authpkg.Service) *AuthHandler { return &AuthHandler{service: svc} }

type loginPayload struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p loginPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		pair, err := h.service.Login(ctx, p.Phone, p.Password, c.ClientIP())
		if err != nil {
			if errors.Is(err, authpkg.ErrInvalidCredentials) {
				metrics.LoginsFailed.Inc()
				c.JSON(http.StatusUnauthorized, gin.H{"error": authpkg.ErrInvalidCredentials.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
			return
		}
		metrics.LoginsOK.Inc()
		c.JSON(http.StatusOK, pair)
	}
}

type refreshPayload struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

func (h *AuthHandler) Refresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p refreshPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		pair, err := h.service.Refresh(ctx, p.RefreshToken, c.ClientIP())
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired refresh token"})
			return
		}
		metrics.TokenRefreshes.Inc()
		c.JSON(http.StatusOK, pair)
	}
}

func (h *AuthHandler) Logout() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.Logout(ctx, userID); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "logout failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "logged out"})
	}
}

func (h *AuthHandler) Profile() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := contextUserID(c)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		profile, err := h.service.Profile(ctx, userID)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusOK, profile)
	}
}

type forgotPayload struct {
	Phone string `json:"phone" binding:"required"`
}

// ForgotPassword answers identically whether or not the phone is registered.
func (h *AuthHandler) ForgotPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p forgotPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		ticket, err := h.service.ForgotPassword(ctx, p.Phone)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start password reset"})
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

type resendPayload struct {
	SessionToken string `json:"session_token" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
}

func (h *AuthHandler) ResendCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p resendPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		ticket, err := h.service.ResendCode(ctx, p.SessionToken, p.Phone)
		if err != nil {
			var cd *authpkg.CooldownError
			if errors.As(err, &cd) {
				c.JSON(http.StatusTooManyRequests, gin.H{
					"error":         cd.Error(),
					"retry_after_s": int(cd.Wait.Seconds()) + 1,
				})
				return
			}
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

type verifyCodePayload struct {
	SessionToken string `json:"session_token" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Code         string `json:"code" binding:"required"`
}

func (h *AuthHandler) VerifyCode() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p verifyCodePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		ticket, err := h.service.VerifyCode(ctx, p.SessionToken, p.Phone, p.Code)
		if err != nil {
			switch {
			case errors.Is(err, otp.ErrCodeMismatch), errors.Is(err, otp.ErrCodeExpired), errors.Is(err, otp.ErrCodeNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
			}
			return
		}
		c.JSON(http.StatusOK, ticket)
	}
}

type setNewPasswordPayload struct {
	SessionToken string `json:"session_token" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	Code         string `json:"code" binding:"required"`
	NewPassword  string `json:"new_password" binding:"required"`
}

func (h *AuthHandler) SetNewPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p setNewPasswordPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.SetNewPassword(ctx, p.SessionToken, p.Phone, p.Code, p.NewPassword); err != nil {
			switch {
			case errors.Is(err, authpkg.ErrWeakPassword):
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			case errors.Is(err, otp.ErrCodeMismatch), errors.Is(err, otp.ErrCodeExpired), errors.Is(err, otp.ErrCodeNotFound):
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
			default:
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired session token"})
			}
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password updated"})
	}
}

// contextUserID pulls the authenticated user id placed by the auth middleware.
func contextUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString("user_id")
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
