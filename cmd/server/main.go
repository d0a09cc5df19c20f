package main

import (
	"log"
	"os"
	"time"

	"go-pos-store/internal/cash"
	"go-pos-store/internal/credit"
	"go-pos-store/internal/database"
	"go-pos-store/internal/handlers"
	"go-pos-store/internal/middleware"
	"go-pos-store/internal/pos"
	"go-pos-store/internal/stock"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: No .env file found")
	}

	database.Connect()

	// Wire the managers explicitly so they can be swapped out in tests
	ledger := stock.NewLedger()
	cashManager := cash.NewManager(database.DB)
	posManager := pos.NewManager(database.DB, ledger, credit.NewPolicy(), cashManager)
	handlers.Init(posManager, cashManager, ledger)

	r := gin.Default()

	corsOrigin := os.Getenv("CORS_ORIGIN")
	if corsOrigin == "" {
		corsOrigin = "http://localhost:5173"
	}
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{corsOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", handlers.Login)

	// --- FEATURE FLAG: Registration ---
	// Only opens if we explicitly allow it in .env
	if os.Getenv("ALLOW_REGISTRATION") == "true" {
		r.POST("/register", handlers.Register)
		log.Println("⚠️ WARNING: Registration route is OPEN. Disable this in production!")
	} else {
		log.Println("🔒 Registration route is safely DISABLED.")
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware())
	{
		// PUBLIC TO STAFF & ADMIN
		api.GET("/products", handlers.GetProducts)
		api.GET("/products/scan/:barcode", handlers.ScanProduct)

		api.POST("/checkout", handlers.ProcessSale)
		api.GET("/sales", handlers.GetSales)
		api.GET("/sales/:id", handlers.GetSale)
		api.POST("/sales/:id/returns", handlers.ReturnSale)

		api.POST("/pos/hold", handlers.HoldCart)
		api.GET("/pos/holds", handlers.ListHeldCarts)

		api.GET("/customers", handlers.GetCustomers)
		api.POST("/customers", handlers.AddCustomer)
		api.POST("/customers/:id/payments", handlers.RecordCreditPayment)
		api.GET("/customers/:id/credit", handlers.GetCreditHistory)

		api.POST("/cash/open", handlers.OpenCashSession)
		api.GET("/cash/current", handlers.GetCurrentCashSession)
		api.POST("/cash/:id/close", handlers.CloseCashSession)
		api.POST("/cash/movements", handlers.AddCashMovement)

		// ADMIN & MANAGER ONLY
		admin := api.Group("/")
		admin.Use(middleware.RequireRole("admin", "manager"))
		{
			admin.POST("/products", handlers.AddProduct)
			admin.PUT("/products/:id", handlers.UpdateProduct)
			admin.DELETE("/products/:id", handlers.DeleteProduct)
			admin.POST("/products/:id/stock", handlers.AdjustStock)
			admin.GET("/products/low-stock", handlers.GetLowStock)

			admin.POST("/sales/:id/cancel", handlers.CancelSale)

			admin.PUT("/customers/:id", handlers.UpdateCustomer)
			admin.DELETE("/customers/:id", handlers.DeleteCustomer)

			admin.GET("/suppliers", handlers.GetSuppliers)
			admin.POST("/suppliers", handlers.AddSupplier)
			admin.PUT("/suppliers/:id", handlers.UpdateSupplier)
			admin.DELETE("/suppliers/:id", handlers.DeleteSupplier)
			admin.POST("/suppliers/:id/receipts", handlers.ReceiveGoods)
			admin.POST("/suppliers/:id/payments", handlers.RecordDebtPayment)

			admin.GET("/reports", handlers.GetSalesReport)
			admin.GET("/reports/valuation", handlers.GetStockValuation)
			admin.GET("/reports/outstanding", handlers.GetOutstanding)
		}
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	log.Println("🚀 Server starting on " + baseURL)
	if err := r.Run(":8080"); err != nil {
		log.Fatal("Server failed to start:", err)
	}
}
