package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	authrepo "github.com/WaelAlfnan/OrderDelivery-sub000/auth/repository"
	authsvc "github.com/WaelAlfnan/OrderDelivery-sub000/auth/service"
	credrepo "github.com/WaelAlfnan/OrderDelivery-sub000/credential/repository"
	"github.com/WaelAlfnan/OrderDelivery-sub000/dispatch"
	driverrepo "github.com/WaelAlfnan/OrderDelivery-sub000/driver/repository"
	driversvc "github.com/WaelAlfnan/OrderDelivery-sub000/driver/service"
	"github.com/WaelAlfnan/OrderDelivery-sub000/entity"
	api "github.com/WaelAlfnan/OrderDelivery-sub000/handler"
	"github.com/WaelAlfnan/OrderDelivery-sub000/metrics"
	"github.com/WaelAlfnan/OrderDelivery-sub000/middleware"
	orderrepo "github.com/WaelAlfnan/OrderDelivery-sub000/order/repository"
	ordersvc "github.com/WaelAlfnan/OrderDelivery-sub000/order/service"
	"github.com/WaelAlfnan/OrderDelivery-sub000/otp"
	realtimepkg "github.com/WaelAlfnan/OrderDelivery-sub000/realtime"
	regrepo "github.com/WaelAlfnan/OrderDelivery-sub000/registration/repository"
	regsvc "github.com/WaelAlfnan/OrderDelivery-sub000/registration/service"
	"github.com/WaelAlfnan/OrderDelivery-sub000/session"
	"github.com/WaelAlfnan/OrderDelivery-sub000/sms"
	"github.com/WaelAlfnan/OrderDelivery-sub000/storage"
)

func main() {
	log, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	cfg := loadConfig(log)
	db := setupDatabase(cfg.DatabaseDSN, log)

	// one-time codes and reset sessions live in Redis when configured,
	// otherwise in process memory
	var (
		codes    otp.CodeStore
		sessions session.Store
	)
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		codes = otp.NewRedisStore(client)
		sessions = session.NewRedisStore(client)
		log.Info("using redis stores", zap.String("addr", cfg.RedisAddr))
	} else {
		codes = otp.NewMemoryStore()
		sessions = session.NewMemoryStore()
		log.Info("using in-memory stores")
	}

	photos, err := storage.NewLocalStorage(cfg.PhotoDir)
	if err != nil {
		log.Fatal("photo storage init failed", zap.Error(err))
	}
	sender := sms.NewLogSender(log)

	creds := credrepo.NewGormCredentialStore(db)
	tokens := authrepo.NewGormTokenRepo(db)
	issuer := authsvc.NewTokenIssuer(creds, tokens, cfg.JWTSecret, log)
	authService := authsvc.NewAuthService(creds, issuer, codes, sessions, sender, log)

	regRepo := regrepo.NewGormRegistrationRepo(db)
	regService := regsvc.NewRegistrationService(regRepo, codes, sender, photos, creds, log)

	orderRepo := orderrepo.NewGormOrderRepo(db)
	orderService := ordersvc.NewOrderService(orderRepo)

	driverRepo := driverrepo.NewGormDriverRepo(db)
	driverService := driversvc.NewDriverService(driverRepo, log)

	hub := realtimepkg.NewHub(log)
	dispatchService := dispatch.New(orderService, driverRepo, hub, log)

	authHandler := api.NewAuthHandler(authService)
	regHandler := api.NewRegistrationHandler(regService)
	orderHandler := api.NewOrderHandler(orderService, dispatchService, hub)
	statusHandler := api.NewOrderStatusHandler(orderService, hub)
	driverHandler := api.NewDriverHandler(driverService)
	wsHandler := api.NewWSHandler(hub).
		WithOrders(orderService).
		WithDriverLocationHandler(func(driverUserID string, lat, lng *float64) {
			id, err := uuid.Parse(driverUserID)
			if err != nil {
				return
			}
			if err := driverService.UpdateLocation(context.Background(), id, lat, lng); err != nil {
				log.Warn("driver location update failed", zap.String("user_id", driverUserID), zap.Error(err))
			}
		})

	r := gin.Default()
	r.Use(gin.Recovery())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/metrics", metrics.Handler())

	v1 := r.Group("/api/v1")
	{
		reg := v1.Group("/register")
		{
			reg.POST("/start", regHandler.Start())
			reg.POST("/verify-phone", regHandler.VerifyPhone())
			reg.POST("/password", regHandler.SetPassword())
			reg.POST("/role", regHandler.SetRole())
			reg.POST("/basic-info", regHandler.SetBasicInfo())
			reg.POST("/merchant-info", regHandler.SetMerchantInfo())
			reg.POST("/driver-info", regHandler.SetDriverInfo())
			reg.POST("/vehicle-info", regHandler.SetVehicleInfo())
			reg.POST("/residence-info", regHandler.SetResidenceInfo())
			reg.POST("/complete", regHandler.Complete())
		}

		auth := v1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login())
			auth.POST("/refresh", authHandler.Refresh())
			auth.POST("/forgot-password", authHandler.ForgotPassword())
			auth.POST("/resend-code", authHandler.ResendCode())
			auth.POST("/verify-code", authHandler.VerifyCode())
			auth.POST("/set-new-password", authHandler.SetNewPassword())

			authed := auth.Group("", middleware.RequireAuth(cfg.JWTSecret))
			authed.POST("/logout", authHandler.Logout())
			authed.GET("/profile", authHandler.Profile())
		}

		orders := v1.Group("/orders", middleware.RequireAuth(cfg.JWTSecret))
		{
			merchant := orders.Group("", middleware.RequireRoles(entity.RoleMerchant))
			merchant.POST("", orderHandler.CreateOrder())
			merchant.GET("", orderHandler.ListMine())
			merchant.POST("/:id/assign", orderHandler.Assign())
			merchant.POST("/:id/cancel", orderHandler.CancelByMerchant())

			driver := orders.Group("", middleware.RequireRoles(entity.RoleDriver))
			driver.GET("/active", orderHandler.Active())
			driver.POST("/:id/accept", statusHandler.Accept())
			driver.POST("/:id/decline", statusHandler.Decline())
			driver.POST("/:id/pickup", statusHandler.Picked())
			driver.POST("/:id/deliver", statusHandler.Delivered())
			driver.POST("/:id/cancel-by-driver", orderHandler.CancelByDriver())
		}

		drivers := v1.Group("/drivers", middleware.RequireAuth(cfg.JWTSecret), middleware.RequireRoles(entity.RoleDriver))
		{
			drivers.GET("/me", driverHandler.Profile())
			drivers.POST("/availability", driverHandler.SetAvailability())
			drivers.POST("/location", driverHandler.UpdateLocation())
		}

		ws := v1.Group("/ws", middleware.RequireAuth(cfg.JWTSecret))
		{
			ws.GET("/driver", middleware.RequireRoles(entity.RoleDriver), wsHandler.DriverSocket())
			ws.GET("/merchant", middleware.RequireRoles(entity.RoleMerchant), wsHandler.MerchantSocket())
		}
	}

	log.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
