package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fildor/atelier-api/config"
	"github.com/fildor/atelier-api/controllers"
	"github.com/fildor/atelier-api/logger"
	"github.com/fildor/atelier-api/middleware"
	"github.com/fildor/atelier-api/models"
	"github.com/fildor/atelier-api/repository"
	"github.com/fildor/atelier-api/services"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// application holds the wired services behind the HTTP API
type application struct {
	db       *gorm.DB
	log      *zap.Logger
	users    *repository.UserRepository
	userCtl  *controllers.UserController
	orderCtl *controllers.OrderController
	draftCtl *controllers.DraftController
}

// newApplication wires repositories, services and controllers over db
func newApplication(cfg *config.Config, db *gorm.DB, blobs services.BlobStore, events services.EventPublisher, userInfo services.UserInfoProvider, log *zap.Logger) *application {
	users := repository.NewUserRepository(db, log)
	catalog := repository.NewCatalogRepository(db, log)
	images := services.NewImageService(blobs)

	orders := services.NewOrderService(
		repository.NewOrderRepository(db, log),
		catalog,
		images,
		events,
		services.PolicyFromConfig(cfg),
		log,
	)

	return &application{
		db:       db,
		log:      log,
		users:    users,
		userCtl:  controllers.NewUserController(users, userInfo),
		orderCtl: controllers.NewOrderController(orders, services.NewKanbanService(orders)),
		draftCtl: controllers.NewDraftController(services.NewWizardService(orders, catalog, images, log)),
	}
}

func main() {
	log.Println("Starting Atelier API server...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.GoEnv); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Connect to database
	if err := config.ConnectDatabase(cfg); err != nil {
		logger.Log.Fatal("Failed to connect to database", zap.Error(err))
	}

	// Auto-migrate database models
	db := config.GetDB()
	if err := db.AutoMigrate(&models.User{}, &models.Client{}, &models.Model{}, &models.Order{}); err != nil {
		logger.Log.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Log.Info("Database migration completed successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	blobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		logger.Log.Fatal("Failed to initialize image storage", zap.Error(err))
	}

	events, err := services.NewEventPublisher(cfg.KafkaBrokers, cfg.KafkaOrdersTopic, logger.Log)
	if err != nil {
		logger.Log.Fatal("Failed to connect to the event broker", zap.Error(err))
	}
	defer func() {
		if err := events.Close(); err != nil {
			logger.Log.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	app := newApplication(cfg, db, blobs, events, services.NewAuth0Service(cfg), logger.Log)
	router := setupRouter(app, cfg.CORSAllowedOrigins, middleware.EnsureValidToken(cfg))

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server is running", zap.String("addr", "http://localhost"+server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Log.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server shutdown failed", zap.Error(err))
	}
}

// newBlobStore connects to S3. Outside production an unset bucket falls back
// to an in-memory store so the API can run locally without AWS.
func newBlobStore(ctx context.Context, cfg *config.Config) (services.BlobStore, error) {
	if cfg.AWSS3Bucket == "" && !cfg.IsProduction() {
		logger.Log.Warn("AWS_S3_BUCKET is not set, order images are kept in memory")
		return services.NewMockS3Service(), nil
	}
	if cfg.AWSS3Bucket == "" {
		return nil, errors.New("AWS_S3_BUCKET is required in production")
	}
	return services.NewS3Service(ctx, cfg)
}

// setupRouter builds the API. authenticate validates the bearer token and
// sets the Auth0 user id on the context.
func setupRouter(app *application, allowedOrigins []string, authenticate gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware.RequestLogger(app.log), gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = allowedOrigins
	if len(allowedOrigins) == 0 {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowHeaders = append(corsConfig.AllowHeaders, "Authorization", middleware.RequestIDHeader)
	corsConfig.ExposeHeaders = []string{middleware.RequestIDHeader}
	router.Use(cors.New(corsConfig))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheck)
		v1.GET("/database/status", app.databaseStatus)

		// Profile endpoints only need a valid token; the profile may not exist yet
		users := v1.Group("/users", authenticate)
		{
			users.POST("", app.userCtl.CreateUser)
			users.GET("/me", app.userCtl.GetMyProfile)
			users.PUT("/me", app.userCtl.UpdateMyProfile)
		}

		staff := v1.Group("", authenticate, middleware.ResolveActor(app.users))
		{
			staff.GET("/orders", app.orderCtl.ListOrders)
			staff.GET("/orders/board", app.orderCtl.GetBoard)
			staff.POST("/orders/board/drop", app.orderCtl.DropCard)
			staff.GET("/orders/status/:status", app.orderCtl.ListOrdersByStatus)
			staff.GET("/orders/:id", app.orderCtl.GetOrder)
			staff.PATCH("/orders/:id", app.orderCtl.UpdateOrder)
			staff.PUT("/orders/:id/status", app.orderCtl.UpdateOrderStatus)
			staff.DELETE("/orders/:id", middleware.RequirePrivileged(), app.orderCtl.DeleteOrder)
			staff.GET("/orders/:id/images/:kind", app.orderCtl.GetOrderImage)
			staff.GET("/deliveries", app.orderCtl.ListDeliveries)

			staff.GET("/clients", app.draftCtl.SearchClients)
			staff.GET("/models", app.draftCtl.SearchModels)

			staff.POST("/order-drafts", app.draftCtl.StartDraft)
			staff.GET("/order-drafts/:id", app.draftCtl.GetDraft)
			staff.PUT("/order-drafts/:id/client", app.draftCtl.SelectClient)
			staff.PUT("/order-drafts/:id/model", app.draftCtl.SelectModel)
			staff.PUT("/order-drafts/:id/fabric", app.draftCtl.SetFabric)
			staff.PUT("/order-drafts/:id/payment", app.draftCtl.SetPayment)
			staff.POST("/order-drafts/:id/back", app.draftCtl.Back)
			staff.POST("/order-drafts/:id/submit", app.draftCtl.Submit)
			staff.DELETE("/order-drafts/:id", app.draftCtl.Cancel)
		}
	}

	return router
}

// healthCheck handles the health check endpoint
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Atelier API is running",
	})
}

// databaseStatus checks database connectivity and returns table information
func (app *application) databaseStatus(c *gin.Context) {
	// Get the underlying SQL database to check connection
	sqlDB, err := app.db.DB()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_ERROR",
				"message": "Failed to get database instance",
			},
		})
		return
	}

	// Ping the database to verify connection
	if err := sqlDB.PingContext(c.Request.Context()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_CONNECTION_ERROR",
				"message": "Database connection failed",
			},
		})
		return
	}

	tables, err := app.db.Migrator().GetTables()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "DATABASE_QUERY_ERROR",
				"message": "Failed to query tables",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Database connected",
		"tables":  tables,
	})
}
