package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bodima/biometric"
	"bodima/config"
	"bodima/cron"
	"bodima/handlers"
	"bodima/middleware"
	"bodima/remote"
	"bodima/routes"
	"bodima/securestore"
	"bodima/services/reservation"
	"bodima/services/session"
	"bodima/services/support"
	"bodima/services/tasks"
	"bodima/utils"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v76"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	utils.InitRedis()
	stripe.Key = config.AppConfig.StripeKey

	secureStore, err := securestore.New(
		&securestore.RedisKV{Client: utils.GetAuthCacheClient()},
		config.AppConfig.SecureStoreKey,
	)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize secure store: %v", err)
	}

	// Create the Gin router.
	router := gin.New()
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())
	router.Use(middleware.RateLimitMiddleware())

	// Remote collaborators.
	reservationAPI := remote.NewReservationClient(config.AppConfig.ReservationAPIURL, logger)
	paymentAPI := remote.NewStripeGateway(logger)
	gate := biometric.NewAssertionGate(config.AppConfig.JWTSecret, 2*time.Minute, logger)
	resolver := &session.SecureResolver{Store: secureStore}

	// Booking flow.
	taskQueue := tasks.NewQueue()
	flowService := reservation.NewFlowService(
		reservationAPI,
		paymentAPI,
		gate,
		resolver,
		taskQueue,
		reservation.FlowPolicy{
			Currency:        config.AppConfig.Currency,
			MinStayDays:     config.AppConfig.MinStayDays,
			DefaultStayDays: config.AppConfig.DefaultStayDays,
			DraftTTL:        time.Duration(config.AppConfig.DraftTTLMin) * time.Minute,
		},
		logger,
	)

	incidentLog := &support.IncidentLog{Cache: utils.GetCacheClient()}
	cron.InitFlowWorker(flowService, incidentLog)

	flowHandler := handlers.NewFlowHandler(flowService, incidentLog, logger)
	routes.RegisterRoutes(router, flowHandler, secureStore)

	// Start the HTTP server.
	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	// Wait for an OS signal to gracefully shutdown.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
