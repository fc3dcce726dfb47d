package main

import (
	"log"
	"net/http"

	"autoparts-store/cart"
	"autoparts-store/config"
	"autoparts-store/consumers"
	"autoparts-store/controllers"
	"autoparts-store/database"
	"autoparts-store/middlewares"
	"autoparts-store/notifier"
	"autoparts-store/rabbitmq"
	"autoparts-store/repository"
	"autoparts-store/services"
	"autoparts-store/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := config.LoadConfig()

	if err := database.InitDB(cfg); err != nil {
		log.Fatalf("Database initialization failed: %v", err)
	}
	defer database.CloseDB()

	store := repository.NewMySQLStore(database.DB)

	blobs, err := storage.NewStore(cfg.StorageDir, cfg.PublicBaseURL)
	if err != nil {
		log.Fatalf("Blob storage initialization failed: %v", err)
	}

	rmq, err := rabbitmq.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("RabbitMQ initialization failed: %v", err)
	}
	defer rmq.Close()

	if err := rmq.SetupQueues(); err != nil {
		log.Fatalf("Failed to setup RabbitMQ queues: %v", err)
	}

	hub := notifier.NewHub()
	consumers.StartStatusConsumer(rmq.Channel, cfg, hub)

	carts := cart.NewStore(cfg.CartSnapshotPath)
	checkoutSvc := services.NewCheckoutService(store, carts, cfg.IdempotencyEnabled())
	adminSvc := services.NewAdminService(store, store, rmq)

	auth := &controllers.AuthController{Users: store, Hub: hub, JWTSecret: cfg.JWTSecret}
	catalog := &controllers.CatalogController{Catalog: store, Admin: adminSvc, Blobs: blobs}
	cartCtl := &controllers.CartController{Carts: carts, Catalog: store}
	orders := &controllers.OrderController{Checkout: checkoutSvc, Orders: store, Admin: adminSvc}
	admin := &controllers.AdminController{Admin: adminSvc}

	r := gin.Default()
	r.Use(middlewares.PrometheusMiddleware())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
	}))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Product image blobs.
	r.Static("/uploads", blobs.Dir())

	r.POST("/api/register", auth.Register)
	r.POST("/api/login", auth.Login)

	// Public catalog.
	r.GET("/api/categories", catalog.ListCategories)
	r.GET("/api/products", catalog.ListProducts)

	authGroup := r.Group("/api")
	authGroup.Use(middlewares.AuthMiddleware(cfg.JWTSecret))
	{
		authGroup.POST("/logout", auth.Logout)
		authGroup.GET("/me", auth.Me)

		authGroup.GET("/cart", cartCtl.GetCart)
		authGroup.POST("/cart", cartCtl.AddToCart)
		authGroup.DELETE("/cart/:productId", cartCtl.RemoveFromCart)
		authGroup.POST("/cart/clear", cartCtl.ClearCart)

		authGroup.POST("/orders", orders.PlaceOrder)
		authGroup.GET("/orders", orders.ListMyOrders)
		authGroup.GET("/orders/:id", orders.GetOrderDetails)
		authGroup.DELETE("/orders/:id", orders.DeleteMyOrder)

		adminGroup := authGroup.Group("/admin")
		adminGroup.Use(middlewares.AdminOnly())
		{
			adminGroup.GET("/orders", admin.ListOrders)
			adminGroup.GET("/orders/:id", admin.OrderDetails)
			adminGroup.POST("/orders/:id/verify", admin.VerifyPayment)
			adminGroup.POST("/orders/:id/reject", admin.RejectOrder)
			adminGroup.DELETE("/orders/:id", admin.DeleteOrder)

			adminGroup.POST("/categories", catalog.CreateCategory)
			adminGroup.POST("/products", catalog.CreateProduct)
			adminGroup.PUT("/products/:id", catalog.UpdateProduct)
			adminGroup.DELETE("/products/:id", catalog.DeleteProduct)
			adminGroup.POST("/images", catalog.UploadImage)
		}
	}

	port := ":8080"
	log.Printf("Autoparts store starting on port %s", port)
	if err := r.Run(port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
