package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"cbms/internal/config"
	"cbms/internal/database"
	"cbms/internal/handlers"
	"cbms/internal/jobs"
	"cbms/internal/logger"
	"cbms/internal/middleware"
	"cbms/internal/models"
	"cbms/internal/services"
	"cbms/internal/storage"
	"cbms/internal/validator"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "cbms/internal/docs" // Import swagger docs
)

// @title           College Budget Management System API
// @version         1.0
// @description     Budget proposal, allocation, and expenditure management for college departments, with approval workflows and consolidated reporting.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Initialize logger (use ENV var if available, default to development)
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	// Load configuration
	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Register custom binding validators
	validator.Register()

	// Initialize database configuration
	dbConfig, err := database.NewConfig()
	if err != nil {
		return fmt.Errorf("failed to load database configuration: %w", err)
	}

	// Create database manager
	dbManager, err := database.NewManager(dbConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	// Run migrations
	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	// Attachment storage: S3 when configured, in-memory otherwise
	var store storage.FileStore
	if appConfig.S3Bucket != "" && appConfig.S3AccessKeyID != "" {
		s3Store, err := storage.NewS3Store(context.Background(), appConfig)
		if err != nil {
			return fmt.Errorf("failed to initialize attachment storage: %w", err)
		}
		store = s3Store
		log.Infow("Using S3 attachment storage", "bucket", appConfig.S3Bucket)
	} else {
		store = storage.NewMemoryStore()
		log.Warnw("S3 not configured, attachments stored in memory")
	}

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	departmentService := services.NewDepartmentService(db)
	budgetHeadService := services.NewBudgetHeadService(db)
	categoryService := services.NewCategoryService(db)
	financialYearService := services.NewFinancialYearService(db)
	allocationService := services.NewAllocationService(db)
	proposalService := services.NewProposalService(db, allocationService)
	amendmentService := services.NewAmendmentService(db)
	settingsService := services.NewSettingsService(db)
	expenditureService := services.NewExpenditureService(db, settingsService, store)
	overrideService := services.NewOverrideService(db)
	incomeService := services.NewIncomeService(db)
	reconciliationService := services.NewReconciliationService(db)
	reportService := services.NewReportService(db)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService, auditService)
	departmentHandler := handlers.NewDepartmentHandler(departmentService, auditService)
	budgetHeadHandler := handlers.NewBudgetHeadHandler(budgetHeadService, auditService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	financialYearHandler := handlers.NewFinancialYearHandler(financialYearService, auditService)
	proposalHandler := handlers.NewProposalHandler(proposalService, auditService)
	allocationHandler := handlers.NewAllocationHandler(allocationService, auditService)
	amendmentHandler := handlers.NewAmendmentHandler(amendmentService, auditService)
	expenditureHandler := handlers.NewExpenditureHandler(expenditureService, auditService)
	overrideHandler := handlers.NewOverrideHandler(overrideService, auditService)
	incomeHandler := handlers.NewIncomeHandler(incomeService, auditService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, auditService)
	reconciliationHandler := handlers.NewReconciliationHandler(reconciliationService)
	reportHandler := handlers.NewReportHandler(reportService)
	auditHandler := handlers.NewAuditHandler(auditService)

	// Periodic financial year figure refresh
	recalculator := jobs.NewRecalculator(financialYearService, appConfig.RecalcSchedule)
	if err := recalculator.Start(); err != nil {
		return fmt.Errorf("failed to start recalculation job: %w", err)
	}
	defer recalculator.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	loginLimiter := middleware.NewRateLimiter()
	auth := v1.Group("/auth")
	auth.POST("/login", middleware.LoginRateLimit(loginLimiter), authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)

	// User administration
	users := protected.Group("/users")
	users.POST("", middleware.RequireRoles(models.RoleAdmin), userHandler.CreateUser)
	users.GET("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), userHandler.GetUsers)
	users.GET("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), userHandler.GetUser)

	// Department routes
	departments := protected.Group("/departments")
	departments.POST("", middleware.RequireRoles(models.RoleAdmin), departmentHandler.CreateDepartment)
	departments.GET("", departmentHandler.GetDepartments)
	departments.GET("/:id", departmentHandler.GetDepartment)
	departments.PUT("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.UpdateDepartment)
	departments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.DeleteDepartment)

	// Budget head routes
	budgetHeads := protected.Group("/budget-heads")
	budgetHeads.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), budgetHeadHandler.CreateBudgetHead)
	budgetHeads.GET("", budgetHeadHandler.GetBudgetHeads)
	budgetHeads.GET("/:id", budgetHeadHandler.GetBudgetHead)
	budgetHeads.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), budgetHeadHandler.UpdateBudgetHead)
	budgetHeads.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), budgetHeadHandler.DeleteBudgetHead)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), categoryHandler.UpdateCategory)
	categories.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), categoryHandler.DeleteCategory)

	// Financial year routes
	years := protected.Group("/financial-years")
	years.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), financialYearHandler.CreateFinancialYear)
	years.GET("", financialYearHandler.GetFinancialYears)
	years.PUT("/:id/status", financialYearHandler.SetFinancialYearStatus)
	years.POST("/:id/recalculate", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), financialYearHandler.RecalculateFinancialYear)

	// Proposal routes
	proposals := protected.Group("/proposals")
	proposals.POST("", proposalHandler.CreateProposal)
	proposals.GET("", proposalHandler.GetProposals)
	proposals.GET("/:id", proposalHandler.GetProposal)
	proposals.PUT("/:id", proposalHandler.UpdateProposal)
	proposals.POST("/:id/submit", proposalHandler.SubmitProposal)
	proposals.POST("/:id/verify", proposalHandler.VerifyProposal)
	proposals.POST("/:id/approve", proposalHandler.ApproveProposal)
	proposals.POST("/:id/reject", proposalHandler.RejectProposal)
	proposals.POST("/:id/resubmit", proposalHandler.ResubmitProposal)
	proposals.POST("/:id/allocate", proposalHandler.AllocateProposalItem)

	// Allocation routes
	allocations := protected.Group("/allocations")
	allocations.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice, models.RolePrincipal), allocationHandler.CreateAllocation)
	allocations.GET("", allocationHandler.GetAllocations)
	allocations.GET("/:id", allocationHandler.GetAllocation)
	allocations.PUT("/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), allocationHandler.UpdateAllocation)

	// Amendment routes
	amendments := protected.Group("/amendments")
	amendments.POST("", amendmentHandler.CreateAmendment)
	amendments.GET("", amendmentHandler.GetAmendments)
	amendments.GET("/:id", amendmentHandler.GetAmendment)
	amendments.POST("/:id/approve", amendmentHandler.ApproveAmendment)
	amendments.POST("/:id/reject", amendmentHandler.RejectAmendment)

	// Expenditure routes
	expenditures := protected.Group("/expenditures")
	expenditures.POST("", expenditureHandler.CreateExpenditure)
	expenditures.GET("", expenditureHandler.GetExpenditures)
	expenditures.GET("/:id", expenditureHandler.GetExpenditure)
	expenditures.POST("/:id/verify", expenditureHandler.VerifyExpenditure)
	expenditures.POST("/:id/approve", expenditureHandler.ApproveExpenditure)
	expenditures.POST("/:id/reject", expenditureHandler.RejectExpenditure)
	expenditures.POST("/:id/resubmit", expenditureHandler.ResubmitExpenditure)
	expenditures.POST("/:id/attachments", expenditureHandler.UploadAttachment)
	expenditures.GET("/:id/attachments/:attachmentID", expenditureHandler.DownloadAttachment)

	// Budget override routes
	overrides := protected.Group("/overrides")
	overrides.GET("", overrideHandler.GetOverrides)
	overrides.GET("/:id", overrideHandler.GetOverride)
	overrides.POST("/:id/approve", overrideHandler.ApproveOverride)
	overrides.POST("/:id/reject", overrideHandler.RejectOverride)

	// Income routes
	income := protected.Group("/income")
	income.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), incomeHandler.CreateIncome)
	income.GET("", incomeHandler.GetIncomeList)
	income.GET("/:id", incomeHandler.GetIncome)
	income.POST("/:id/receive", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), incomeHandler.ReceiveIncome)
	income.POST("/:id/verify", incomeHandler.VerifyIncome)

	// Settings routes
	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), settingsHandler.UpdateSettings)

	// Reconciliation routes
	reconciliation := protected.Group("/reconciliation")
	reconciliation.GET("/items", reconciliationHandler.GetItemStats)
	reconciliation.GET("/departments/:id", reconciliationHandler.GetDepartmentStats)

	// Report routes
	reports := protected.Group("/reports")
	reports.GET("/dashboard", reportHandler.GetDashboard)
	reports.GET("/proposals/csv", reportHandler.ExportProposalRegister)
	reports.GET("/consolidated/csv", reportHandler.ExportConsolidatedCSV)
	reports.GET("/consolidated/xlsx", reportHandler.ExportConsolidatedXLSX)

	// Audit log routes
	auditLogs := protected.Group("/audit-logs")
	auditLogs.GET("", middleware.RequireRoles(models.RoleAdmin), auditHandler.GetAuditLogs)

	log.Infof("Starting CBMS backend server on port %s", appConfig.Port)
	log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
	return router.Run(":" + appConfig.Port)
}
