package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"autoshop-admin/internal/config"
	httpapi "autoshop-admin/internal/http"
	"autoshop-admin/internal/platform/database"
	"autoshop-admin/internal/platform/logger"
	"autoshop-admin/internal/repository"
	"autoshop-admin/internal/service"
	"autoshop-admin/internal/store"

	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "autoshop-admin")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting autoshop-admin", zap.String("addr", cfg.HTTP.Addr))

	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		log.Fatal("Database connection failed", zap.Error(err))
	}
	defer db.Close()
	log.Info("Database connected",
		zap.String("host", cfg.Database.Host),
		zap.String("database", cfg.Database.Database))

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed", zap.Error(err))
		}
	}
	defer redisClient.Close()
	kv := store.NewRedisKV(redisClient)

	// Repositories.
	tenantsRepo := repository.NewPostgresTenantsRepository(db)
	usersRepo := repository.NewPostgresUsersRepository(db)
	customersRepo := repository.NewPostgresCustomersRepository(db)
	vehiclesRepo := repository.NewPostgresVehiclesRepository(db)
	catalogRepo := repository.NewPostgresCatalogRepository(db)
	appointmentsRepo := repository.NewPostgresAppointmentsRepository(db)
	invoicesRepo := repository.NewPostgresInvoicesRepository(db)
	txRunner := repository.NewPostgresTxRunner(db)

	// Services.
	tokens := service.NewTokenManager(cfg.Auth.JWTSecret,
		time.Duration(cfg.Auth.TokenTTLMinutes)*time.Minute)

	var notifier service.Notifier = service.NoopNotifier{}
	if cfg.SMS.Enabled {
		notifier = service.NewSMSClient(cfg.SMS, log)
	}

	authService := service.NewAuthService(tenantsRepo, usersRepo, txRunner, tokens, kv, log)
	customerService := service.NewCustomerService(customersRepo, txRunner, log)
	vehicleService := service.NewVehicleService(vehiclesRepo, txRunner, log)
	catalogService := service.NewCatalogService(catalogRepo, txRunner, kv, log)
	appointmentService := service.NewAppointmentService(
		appointmentsRepo, customersRepo, vehiclesRepo, catalogRepo, invoicesRepo,
		txRunner, notifier, log)
	invoiceService := service.NewInvoiceService(invoicesRepo, txRunner, log)
	tenantService := service.NewTenantService(tenantsRepo, log)

	// HTTP.
	authMW := httpapi.NewAuthMiddleware(tokens, authService, log)
	router := httpapi.NewRouter(httpapi.Handlers{
		Auth:         httpapi.NewAuthHandler(authService, log),
		Customers:    httpapi.NewCustomerHandler(customerService, log),
		Vehicles:     httpapi.NewVehicleHandler(vehicleService, log),
		Catalog:      httpapi.NewCatalogHandler(catalogService, log),
		Appointments: httpapi.NewAppointmentHandler(appointmentService, log),
		Invoices:     httpapi.NewInvoiceHandler(invoiceService, log),
		Tenants:      httpapi.NewTenantHandler(tenantService, log),
	}, authMW, log)

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed", zap.Error(err))
		}
	case sig := <-quit:
		log.Info("Shutting down", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Stop(ctx); err != nil {
			log.Error("Shutdown incomplete", zap.Error(err))
		}
	}

	log.Info("Stopped")
}
