package main

import (
	"context"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	_ "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"github.com/rl1809/stock-orders/internal/adapter/handler"
	"github.com/rl1809/stock-orders/internal/adapter/storage"
	"github.com/rl1809/stock-orders/internal/config"
	"github.com/rl1809/stock-orders/internal/core/service"
	"github.com/rl1809/stock-orders/internal/port"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "stock-orders",
		Short: "orders, customers and items over MySQL",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
		SilenceUsage: true,
	}
	rootCmd.AddCommand(
		serveCommand(),
		migrateCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "run the HTTP and gRPC servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve()
		},
	}
}

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [up|down]",
		Short:     "apply or revert the embedded schema migrations",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"up", "down"},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			if args[0] == "down" {
				if err := storage.MigrateDown(cfg.DSN()); err != nil {
					return err
				}
				log.Println("migrated down")
				return nil
			}

			if err := storage.MigrateUp(cfg.DSN()); err != nil {
				return err
			}
			log.Println("migrated up")
			return nil
		},
	}
}

func serve() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	decimal.MarshalJSONWithoutQuotes = true

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize MySQL
	db, err := sqlx.Open("mysql", cfg.DSN())
	if err != nil {
		log.Fatalf("failed to open mysql: %v", err)
	}
	db.SetMaxOpenConns(cfg.DBConnectionLimit)
	db.SetMaxIdleConns(cfg.DBConnectionLimit)
	db.SetConnMaxLifetime(cfg.DBConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}
	log.Printf("connected to mysql at %s:%s/%s", cfg.DBHost, cfg.DBPort, cfg.DBName)

	if cfg.MigrateOnStart {
		if err := storage.MigrateUp(cfg.DSN()); err != nil {
			log.Fatalf("failed to migrate: %v", err)
		}
		log.Println("schema is up to date")
	}

	// Initialize Redis
	var (
		rdb         *redis.Client
		idempotency port.IdempotencyStore
	)
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			PoolSize: 100,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("failed to connect redis: %v", err)
		}
		idempotency = storage.NewRedisAdapter(rdb)
		log.Println("connected to redis, idempotency keys enabled")
	}

	// Initialize services
	mysqlAdapter := storage.NewMySQLAdapter(db)
	orderService := service.NewOrderService(mysqlAdapter, mysqlAdapter,
		service.WithRestockOnDelete(cfg.RestockOnDelete))
	itemService := service.NewItemService(mysqlAdapter)
	customerService := service.NewCustomerService(mysqlAdapter)

	// Initialize gRPC server
	var grpcServer *grpc.Server
	if cfg.GRPCPort != "" {
		grpcServer = grpc.NewServer()
		handler.RegisterOrderServiceServer(grpcServer, handler.NewGRPCHandler(orderService))

		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			log.Fatalf("failed to listen: %v", err)
		}

		go func() {
			log.Printf("gRPC server listening on :%s", cfg.GRPCPort)
			if err := grpcServer.Serve(lis); err != nil {
				log.Printf("gRPC server error: %v", err)
			}
		}()
	}

	// Initialize HTTP server
	app := fiber.New(fiber.Config{
		AppName:      "stock-orders",
		ErrorHandler: handler.ErrorHandler,
	})
	app.Use(recover.New())
	app.Use(handler.RequestID())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${method} ${path} - ${latency}\n",
	}))
	handler.NewHTTPHandler(orderService, itemService, customerService, idempotency).RegisterRoutes(app)

	go func() {
		log.Printf("HTTP server listening on :%s", cfg.HTTPPort)
		if err := app.Listen(":" + cfg.HTTPPort); err != nil {
			log.Printf("HTTP server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	if err := app.ShutdownWithTimeout(5 * time.Second); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}
	log.Println("HTTP server stopped")

	if grpcServer != nil {
		grpcServer.GracefulStop()
		log.Println("gRPC server stopped")
	}

	// Close connections
	if rdb != nil {
		rdb.Close()
	}
	db.Close()
	log.Println("connections closed")
	return nil
}
