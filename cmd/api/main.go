package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/KatlegoSeiphemo/careernest/api/routes"
	"github.com/KatlegoSeiphemo/careernest/internal/config"
	"github.com/KatlegoSeiphemo/careernest/internal/handlers"
	mongorepo "github.com/KatlegoSeiphemo/careernest/internal/repositories/mongodb"
	"github.com/KatlegoSeiphemo/careernest/internal/services"
	"github.com/KatlegoSeiphemo/careernest/pkg/jwt"
	"github.com/KatlegoSeiphemo/careernest/pkg/momo"
	"github.com/KatlegoSeiphemo/careernest/pkg/mongodb"
	"github.com/KatlegoSeiphemo/careernest/pkg/smsgateway"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// Repositories
	userRepo := mongorepo.NewUserRepository(db)
	sessionRepo := mongorepo.NewSessionRepository(db)
	requestRepo := mongorepo.NewPaymentRequestRepository(db)
	transactionRepo := mongorepo.NewTransactionRepository(db)
	serviceRepo := mongorepo.NewCareerServiceRepository(db)
	userServiceRepo := mongorepo.NewUserServiceRepository(db)

	// Gateways
	gateway := momo.NewClient(
		cfg.MoMo.BaseURL,
		cfg.MoMo.SubscriptionKey,
		cfg.MoMo.APIUser,
		cfg.MoMo.APIKey,
		cfg.MoMo.TargetEnvironment,
		cfg.MoMo.MockAPI,
	)
	var sms smsgateway.Gateway
	if cfg.SMS.MockSMSGateway {
		sms = smsgateway.NewMockGateway("MTN")
	} else {
		sms = smsgateway.NewMTNGateway(cfg.SMS.BaseURL, cfg.SMS.APIKey, false)
	}
	tokens := jwt.NewTokenService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiresIn)*time.Second)

	// Services
	catalogService := services.NewCareerCatalogService(serviceRepo, userServiceRepo, transactionRepo, gateway)
	paymentService := services.NewMentorPaymentService(sessionRepo, requestRepo, transactionRepo, gateway, mongoClient, sms, catalogService, cfg.MoMo.Currency)
	authService := services.NewUserAuthService(userRepo, tokens)

	// Handlers
	deps := routes.HandlerDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		PaymentHandler: handlers.NewPaymentHandler(paymentService),
		CatalogHandler: handlers.NewCatalogHandler(catalogService),
	}

	router := routes.SetupRouter(cfg, tokens, deps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	// Run server in a goroutine so that it doesn't block
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
