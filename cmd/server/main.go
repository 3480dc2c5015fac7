package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/fekuna/omnipos-attribute-service/config"
	"github.com/fekuna/omnipos-attribute-service/internal/broker"
	"github.com/fekuna/omnipos-attribute-service/internal/cache"
	"github.com/fekuna/omnipos-attribute-service/internal/database"
	"github.com/fekuna/omnipos-attribute-service/internal/events"
	"github.com/fekuna/omnipos-attribute-service/internal/logger"
	"github.com/fekuna/omnipos-attribute-service/internal/middleware"
	"github.com/fekuna/omnipos-attribute-service/internal/schema"
	"github.com/fekuna/omnipos-attribute-service/internal/schema/rpc"
	"github.com/fekuna/omnipos-attribute-service/internal/search"

	attrH "github.com/fekuna/omnipos-attribute-service/internal/attribute/handler"
	attrRepoPkg "github.com/fekuna/omnipos-attribute-service/internal/attribute/repository"
	attrUCPkg "github.com/fekuna/omnipos-attribute-service/internal/attribute/usecase"

	catH "github.com/fekuna/omnipos-attribute-service/internal/category/handler"
	catListenerPkg "github.com/fekuna/omnipos-attribute-service/internal/category/listener"
	catRepoPkg "github.com/fekuna/omnipos-attribute-service/internal/category/repository"
	catUCPkg "github.com/fekuna/omnipos-attribute-service/internal/category/usecase"

	prodH "github.com/fekuna/omnipos-attribute-service/internal/product/handler"
	prodRepoPkg "github.com/fekuna/omnipos-attribute-service/internal/product/repository"
	prodUCPkg "github.com/fekuna/omnipos-attribute-service/internal/product/usecase"

	schemaH "github.com/fekuna/omnipos-attribute-service/internal/schema/handler"
)

func main() {
	// 1. Configuration
	_ = godotenv.Load()
	cfg := config.LoadEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.IsDevelopment(),
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Database
	db, err := database.NewPostgres(&database.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: cfg.Postgres.ConnMaxLifetime,
		ConnMaxIdleTime: cfg.Postgres.ConnMaxIdleTime,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	if cfg.Server.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			appLogger.Fatal("Could not apply schema", zap.Error(err))
		}
		appLogger.Info("Database schema applied")
	}

	// 4. Repositories
	attrRepo := attrRepoPkg.NewPGRepository(db)
	catRepo := catRepoPkg.NewPGRepository(db)
	prodRepo := prodRepoPkg.NewPGRepository(db)

	// 5. Redis; the service keeps working on a process-local cache without it
	var appCache cache.Cache
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Redis, using in-memory cache", zap.Error(err))
		appCache = cache.NewMemory()
	} else {
		defer redisClient.Close()
		appCache = redisClient
		appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
	}

	// 6. Kafka
	publisher := events.NopPublisher()
	var consumer *broker.KafkaConsumer
	if cfg.Kafka.Enabled {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		defer producer.Close()
		publisher = events.NewBrokerPublisher(producer)

		// Every instance must see every event, so each gets its own group.
		host, _ := os.Hostname()
		consumer = broker.NewConsumer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
			GroupID: cfg.Kafka.GroupID + "-" + host,
		})
		defer consumer.Close()
		appLogger.Info("Connected to Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))
	}

	// 7. Elasticsearch, optional
	var indexer prodUCPkg.Indexer
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
		} else {
			indexer = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 8. Use cases. Categories come first: attribute edits invalidate their
	// cached bindings.
	catUC := catUCPkg.NewCategoryUseCase(catRepo, attrRepo, appCache, cfg.Cache.CategoryTTL, publisher, appLogger)
	attrUC := attrUCPkg.NewAttributeUseCase(attrRepo, catUC, publisher, appLogger)
	prodUC := prodUCPkg.NewProductUseCase(prodRepo, catUC, attrRepo, appCache, indexer, prodUCPkg.Config{
		ListCacheTTL: cfg.Cache.ProductListTTL,
		Index:        cfg.Elastic.Index,
	}, appLogger)
	compiler := schema.NewCompiler(catUC, schema.WithShapeChecks())

	// 9. Listener
	if consumer != nil {
		catListener := catListenerPkg.NewCatalogListener(consumer, catUC, appLogger)
		go catListener.Start(ctx)
	}

	// 10. HTTP server
	if !logConfig.IsDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(middleware.Recovery(appLogger), middleware.Actor(), middleware.RequestLogger(appLogger))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	api := router.Group("/api/v1")
	attrH.NewAttributeHandler(attrUC, appLogger).Register(api)
	catH.NewCategoryHandler(catUC, appLogger).Register(api)
	schemaH.NewSchemaHandler(compiler, appLogger).Register(api)
	prodH.NewProductHandler(prodUC, appLogger).Register(api)

	httpServer := &http.Server{
		Addr:              listenAddr(cfg.Server.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// 11. gRPC server
	lis, err := net.Listen("tcp", listenAddr(cfg.Server.GRPCPort))
	if err != nil {
		log.Fatalf("failed to listen: %v", err)
	}

	grpcServer := grpc.NewServer(
		grpc.UnaryInterceptor(middleware.ContextInterceptor(appLogger)),
	)
	rpc.RegisterSchemaServiceServer(grpcServer, schemaH.NewSchemaGRPCHandler(compiler, appLogger))

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(rpc.ServiceName, healthpb.HealthCheckResponse_SERVING)

	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("addr", lis.Addr().String()))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve gRPC", zap.Error(err))
		}
	}()
	go func() {
		appLogger.Info("Starting HTTP server", zap.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve HTTP", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("HTTP shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	appLogger.Info("Server stopped")
}

func listenAddr(port string) string {
	if !strings.Contains(port, ":") {
		return ":" + port
	}
	return port
}
