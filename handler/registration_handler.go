package api

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	"github.com/WaelAlfnan/OrderDelivery-sub000/metrics"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
	regpkg "github.com/WaelAlfnan/OrderDelivery-sub000/registration"
	"github.com/WaelAlfnan/OrderDelivery-sub000/sms"
	"github.com/WaelAlfnan/OrderDelivery-sub000/storage"
)

// maxPhotoBytes bounds a single uploaded photo.
const maxPhotoBytes = 10 << 20

type RegistrationHandler struct {
	service regpkg.Service
}

func NewRegistrationHandler(svc regpkg.Service) *RegistrationHandler {
	return &RegistrationHandler{service: svc}
}

type phonePayload struct {
	Phone string `json:"phone" binding:"required"`
}

func (h *RegistrationHandler) Start() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p phonePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
		defer cancel()
		if err := h.service.StartRegistration(ctx, p.Phone); err != nil {
			registrationError(c, err)
			return
		}
		metrics.RegistrationsStarted.Inc()
		metrics.CodesIssued.WithLabelValues(string(otp.PurposeRegister)).Inc()
		c.JSON(http.StatusOK, gin.H{"message": "verification code sent"})
	}
}

type verifyPhonePayload struct {
	Phone string `json:"phone" binding:"required"`
	Code  string `json:"code" binding:"required"`
}

func (h *RegistrationHandler) VerifyPhone() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p verifyPhonePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.VerifyPhone(ctx, p.Phone, p.Code); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "phone verified"})
	}
}

type setPasswordPayload struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *RegistrationHandler) SetPassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p setPasswordPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.SetPassword(ctx, p.Phone, p.Password); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "password set"})
	}
}

type setRolePayload struct {
	Phone string `json:"phone" binding:"required"`
	Role  string `json:"role" binding:"required"`
}

func (h *RegistrationHandler) SetRole() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p setRolePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		if err := h.service.SetRole(ctx, p.Phone, entity.RegistrationRole(p.Role)); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "role set"})
	}
}

// SetBasicInfo takes a multipart form: full_name, national_id and three
// photo files (personal_photo, id_front_photo, id_back_photo).
func (h *RegistrationHandler) SetBasicInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.PostForm("phone")
		fullName := c.PostForm("full_name")
		nationalID := c.PostForm("national_id")
		if phone == "" || fullName == "" || nationalID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone, full_name and national_id are required"})
			return
		}
		personal, err := formPhoto(c, "personal_photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		idFront, err := formPhoto(c, "id_front_photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		idBack, err := formPhoto(c, "id_back_photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		if err := h.service.SetBasicInfo(ctx, phone, fullName, nationalID, personal, idFront, idBack); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "basic info saved"})
	}
}

type merchantInfoPayload struct {
	Phone        string   `json:"phone" binding:"required"`
	StoreName    string   `json:"store_name" binding:"required"`
	BusinessType string   `json:"business_type" binding:"required"`
	StoreAddress string   `json:"store_address" binding:"required"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
}

func (h *RegistrationHandler) SetMerchantInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p merchantInfoPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		info := regpkg.MerchantInfo{
			StoreName:    p.StoreName,
			BusinessType: p.BusinessType,
			StoreAddress: p.StoreAddress,
			Latitude:     p.Latitude,
			Longitude:    p.Longitude,
		}
		if err := h.service.SetMerchantInfo(ctx, p.Phone, info); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "merchant info saved"})
	}
}

type driverInfoPayload struct {
	Phone         string     `json:"phone" binding:"required"`
	LicenseNumber string     `json:"license_number" binding:"required"`
	LicenseExpiry *time.Time `json:"license_expiry"`
}

func (h *RegistrationHandler) SetDriverInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p driverInfoPayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		info := regpkg.DriverInfo{LicenseNumber: p.LicenseNumber, LicenseExpiry: p.LicenseExpiry}
		if err := h.service.SetDriverInfo(ctx, p.Phone, info); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "driver info saved"})
	}
}

// SetVehicleInfo takes a multipart form: phone, type, model, plate_number,
// color and two photo files (front_photo, side_photo).
func (h *RegistrationHandler) SetVehicleInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		phone := c.PostForm("phone")
		vehicleType := c.PostForm("type")
		model := c.PostForm("model")
		plate := c.PostForm("plate_number")
		if phone == "" || vehicleType == "" || model == "" || plate == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "phone, type, model and plate_number are required"})
			return
		}
		front, err := formPhoto(c, "front_photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		side, err := formPhoto(c, "side_photo")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		req := regpkg.SetVehicleInfoRequest{
			Type:        entity.VehicleType(vehicleType),
			Model:       model,
			PlateNumber: plate,
			Color:       c.PostForm("color"),
			FrontPhoto:  front,
			SidePhoto:   side,
		}
		if err := h.service.SetVehicleInfo(ctx, phone, req); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "vehicle info saved"})
	}
}

type residencePayload struct {
	Phone   string `json:"phone" binding:"required"`
	Region  string `json:"region" binding:"required"`
	City    string `json:"city" binding:"required"`
	Street  string `json:"street" binding:"required"`
	Details string `json:"details"`
}

func (h *RegistrationHandler) SetResidenceInfo() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p residencePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
		defer cancel()
		info := regpkg.ResidenceInfo{Region: p.Region, City: p.City, Street: p.Street, Details: p.Details}
		if err := h.service.SetResidenceInfo(ctx, p.Phone, info); err != nil {
			registrationError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "residence info saved"})
	}
}

func (h *RegistrationHandler) Complete() gin.HandlerFunc {
	return func(c *gin.Context) {
		var p phonePayload
		if err := c.ShouldBindJSON(&p); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request payload", "detail": err.Error()})
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()
		user, err := h.service.CompleteRegistration(ctx, p.Phone)
		if err != nil {
			registrationError(c, err)
			return
		}
		roles := make([]string, 0, len(user.Roles))
		for _, r := range user.Roles {
			roles = append(roles, r.Name)
		}
		if len(roles) > 0 {
			metrics.RegistrationsCompleted.WithLabelValues(roles[0]).Inc()
		}
		c.JSON(http.StatusCreated, gin.H{"user": user})
	}
}

// formPhoto reads one uploaded file from the multipart form.
func formPhoto(c *gin.Context, field string) (regpkg.Photo, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return regpkg.Photo{}, errors.New(field + " file is required")
	}
	if fh.Size > maxPhotoBytes {
		return regpkg.Photo{}, errors.New(field + " exceeds the size limit")
	}
	data, err := readAll(fh)
	if err != nil {
		return regpkg.Photo{}, errors.New(field + " could not be read")
	}
	return regpkg.Photo{FileName: fh.Filename, Data: data}, nil
}

func readAll(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxPhotoBytes))
}

// registrationError maps saga errors onto HTTP statuses.
func registrationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, regpkg.ErrAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, regpkg.ErrPendingNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, regpkg.ErrStepOrder),
		errors.Is(err, regpkg.ErrPhoneNotVerified),
		errors.Is(err, regpkg.ErrRoleNotSet),
		errors.Is(err, regpkg.ErrPasswordNotSet),
		errors.Is(err, regpkg.ErrBasicInfoMissing):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, regpkg.ErrInvalidPhone),
		errors.Is(err, regpkg.ErrInvalidRole),
		errors.Is(err, regpkg.ErrRoleMismatch),
		errors.Is(err, regpkg.ErrWeakPassword):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, otp.ErrCodeMismatch),
		errors.Is(err, otp.ErrCodeExpired),
		errors.Is(err, otp.ErrCodeNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid or expired code"})
	case errors.Is(err, sms.ErrDispatchFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not send verification code"})
	case errors.Is(err, storage.ErrUploadFailed):
		c.JSON(http.StatusBadGateway, gin.H{"error": "could not store uploaded photos"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "registration step failed"})
	}
}
