package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/travelsuite/bus-booking-backend/internal/config"
	"github.com/travelsuite/bus-booking-backend/internal/database"
	"github.com/travelsuite/bus-booking-backend/internal/handlers"
	"github.com/travelsuite/bus-booking-backend/internal/middleware"
	"github.com/travelsuite/bus-booking-backend/internal/monitoring"
	"github.com/travelsuite/bus-booking-backend/internal/services"
	"github.com/travelsuite/bus-booking-backend/pkg/jwt"
	"github.com/travelsuite/bus-booking-backend/pkg/notify"
	"github.com/travelsuite/bus-booking-backend/pkg/payments"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting bus booking backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	// Repositories
	occurrenceRepo := database.NewOccurrenceRepository(db.DB)
	bookingRepo := database.NewBookingRepository(db.DB)
	paymentRepo := database.NewPaymentRepository(db.DB)
	catalogRepo := database.NewCatalogRepository(db.DB)
	operatorRepo := database.NewOperatorRepository(db.DB)
	auditRepo := database.NewPaymentAuditRepository(db.DB)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	metrics := monitoring.NewMetrics(registry)

	// Payment gateways
	mockMode := cfg.Payment.Mode == "mock"
	if mockMode {
		logger.Warn("Payment gateways running in mock mode")
	}
	gateways := payments.NewRegistry(
		payments.NewMTNGateway(payments.MTNConfig{
			BaseURL:  cfg.Payment.MTN.BaseURL,
			APIKey:   cfg.Payment.MTN.APIKey,
			Currency: cfg.Payment.Currency,
			Mock:     mockMode,
			Timeout:  cfg.Payment.Timeout,
		}, logger),
		payments.NewAirtelGateway(payments.AirtelConfig{
			BaseURL:  cfg.Payment.Airtel.BaseURL,
			APIKey:   cfg.Payment.Airtel.APIKey,
			Currency: cfg.Payment.Currency,
			Mock:     mockMode,
			Timeout:  cfg.Payment.Timeout,
		}, logger),
		payments.NewCashGateway(),
	)

	// SMS notifications
	smsGateway := notify.NewSMSGateway(notify.Config{
		Mode:     cfg.Notify.Mode,
		APIURL:   cfg.Notify.APIURL,
		APIKey:   cfg.Notify.APIKey,
		SenderID: cfg.Notify.SenderID,
	}, logger)

	// Services
	jwtService := jwt.NewService(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	refundPolicy := services.NewRefundPolicy(cfg.Booking.RefundWindow)
	bookingService := services.NewBookingService(
		occurrenceRepo,
		bookingRepo,
		paymentRepo,
		operatorRepo,
		auditRepo,
		gateways,
		refundPolicy,
		smsGateway,
		metrics,
		logger,
		services.BookingConfig{
			PendingTTL:     cfg.Booking.PendingTTL,
			Currency:       cfg.Payment.Currency,
			PaymentTimeout: cfg.Payment.Timeout,
		},
	)
	occurrenceService := services.NewOccurrenceService(
		occurrenceRepo,
		bookingRepo,
		metrics,
		logger,
		cfg.Booking.GenerateDaysAhead,
		cfg.Booking.PendingTTL,
	)
	operatorService := services.NewOperatorService(operatorRepo, jwtService, logger)

	cronService := services.NewCronService(occurrenceService, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}
	if created, err := cronService.RunGenerateNow(); err != nil {
		logger.WithError(err).Error("Startup occurrence generation failed")
	} else {
		logger.WithField("created", created).Info("Startup occurrence generation complete")
	}

	// Handlers
	bookingHandler := handlers.NewBookingHandler(bookingService, logger)
	occurrenceHandler := handlers.NewOccurrenceHandler(occurrenceService, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, logger)
	operatorHandler := handlers.NewOperatorHandler(operatorService, logger)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthCheckHandler(db))
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/districts", catalogHandler.ListDistricts)
		v1.GET("/routes", catalogHandler.ListRoutes)
		v1.GET("/occurrences", occurrenceHandler.ListOccurrences)
		v1.GET("/occurrences/:id", occurrenceHandler.GetOccurrence)

		v1.POST("/bookings", bookingHandler.CreateBooking)
		v1.GET("/bookings", bookingHandler.ListBookings)
		v1.POST("/bookings/:id/cancel", bookingHandler.CancelBooking)
		v1.GET("/bookings/:id/status", bookingHandler.GetBookingStatus)

		operator := v1.Group("/operator")
		{
			operator.POST("/login", operatorHandler.Login)
			authed := operator.Group("", middleware.OperatorAuth(jwtService))
			authed.POST("/bookings", bookingHandler.CreateOperatorBooking)
			authed.GET("/bookings", bookingHandler.ListOperatorBookings)
		}
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	cronService.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		logger.WithFields(logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": time.Since(start).Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}).Info("Request handled")
	}
}

// healthCheckHandler reports service and database health
func healthCheckHandler(db *database.PostgresDB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "unhealthy",
				"error":  "database unreachable",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": version,
		})
	}
}
