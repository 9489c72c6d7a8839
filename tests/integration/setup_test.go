package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"cbms/internal/handlers"
	"cbms/internal/logger"
	"cbms/internal/middleware"
	"cbms/internal/models"
	"cbms/internal/services"
	"cbms/internal/storage"
	"cbms/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Router *gin.Engine
}

// counters ensure each test gets a unique in-memory database and unique emails.
var (
	dbCounter   atomic.Int64
	userCounter atomic.Int64
)

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Department{},
		&models.BudgetHead{},
		&models.Category{},
		&models.FinancialYear{},
		&models.BudgetProposal{},
		&models.ProposalItem{},
		&models.Allocation{},
		&models.AllocationAmendment{},
		&models.Expenditure{},
		&models.ApprovalStep{},
		&models.Attachment{},
		&models.BudgetOverride{},
		&models.Income{},
		&models.Setting{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	// Services
	userService := services.NewUserService(db)
	departmentService := services.NewDepartmentService(db)
	budgetHeadService := services.NewBudgetHeadService(db)
	financialYearService := services.NewFinancialYearService(db)
	allocationService := services.NewAllocationService(db)
	proposalService := services.NewProposalService(db, allocationService)
	amendmentService := services.NewAmendmentService(db)
	settingsService := services.NewSettingsService(db)
	expenditureService := services.NewExpenditureService(db, settingsService, storage.NewMemoryStore())
	overrideService := services.NewOverrideService(db)
	incomeService := services.NewIncomeService(db)
	reportService := services.NewReportService(db)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService)
	departmentHandler := handlers.NewDepartmentHandler(departmentService, auditService)
	budgetHeadHandler := handlers.NewBudgetHeadHandler(budgetHeadService, auditService)
	financialYearHandler := handlers.NewFinancialYearHandler(financialYearService, auditService)
	proposalHandler := handlers.NewProposalHandler(proposalService, auditService)
	allocationHandler := handlers.NewAllocationHandler(allocationService, auditService)
	amendmentHandler := handlers.NewAmendmentHandler(amendmentService, auditService)
	expenditureHandler := handlers.NewExpenditureHandler(expenditureService, auditService)
	overrideHandler := handlers.NewOverrideHandler(overrideService, auditService)
	incomeHandler := handlers.NewIncomeHandler(incomeService, auditService)
	settingsHandler := handlers.NewSettingsHandler(settingsService, auditService)
	reportHandler := handlers.NewReportHandler(reportService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	departments := protected.Group("/departments")
	departments.POST("", middleware.RequireRoles(models.RoleAdmin), departmentHandler.CreateDepartment)
	departments.GET("", departmentHandler.GetDepartments)

	budgetHeads := protected.Group("/budget-heads")
	budgetHeads.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), budgetHeadHandler.CreateBudgetHead)
	budgetHeads.GET("", budgetHeadHandler.GetBudgetHeads)

	years := protected.Group("/financial-years")
	years.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), financialYearHandler.CreateFinancialYear)
	years.PUT("/:id/status", financialYearHandler.SetFinancialYearStatus)

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

	allocations := protected.Group("/allocations")
	allocations.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice, models.RolePrincipal), allocationHandler.CreateAllocation)
	allocations.GET("", allocationHandler.GetAllocations)
	allocations.GET("/:id", allocationHandler.GetAllocation)

	amendments := protected.Group("/amendments")
	amendments.POST("", amendmentHandler.CreateAmendment)
	amendments.POST("/:id/approve", amendmentHandler.ApproveAmendment)
	amendments.POST("/:id/reject", amendmentHandler.RejectAmendment)

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

	overrides := protected.Group("/overrides")
	overrides.GET("", overrideHandler.GetOverrides)
	overrides.POST("/:id/approve", overrideHandler.ApproveOverride)
	overrides.POST("/:id/reject", overrideHandler.RejectOverride)

	income := protected.Group("/income")
	income.POST("", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), incomeHandler.CreateIncome)
	income.GET("", incomeHandler.GetIncomeList)
	income.POST("/:id/receive", middleware.RequireRoles(models.RoleAdmin, models.RoleOffice), incomeHandler.ReceiveIncome)
	income.POST("/:id/verify", incomeHandler.VerifyIncome)

	settings := protected.Group("/settings")
	settings.GET("", settingsHandler.GetSettings)
	settings.PUT("", middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal), settingsHandler.UpdateSettings)

	reports := protected.Group("/reports")
	reports.GET("/dashboard", reportHandler.GetDashboard)
	reports.GET("/consolidated/csv", reportHandler.ExportConsolidatedCSV)

	return &testApp{DB: db, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// seedUser creates a user directly in the database and logs in through the
// API, returning the access token and user ID.
func (app *testApp) seedUser(t *testing.T, role models.Role, departmentID *uint) (token string, userID uint) {
	t.Helper()

	n := userCounter.Add(1)
	email := fmt.Sprintf("user%d@college.edu", n)
	hashed, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:        email,
		Password:     string(hashed),
		FirstName:    "Test",
		LastName:     fmt.Sprintf("User%d", n),
		Role:         role,
		DepartmentID: departmentID,
		IsActive:     true,
	}
	if err := app.DB.Create(user).Error; err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}

	body := fmt.Sprintf(`{"email":%q,"password":"password123"}`, email)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), user.ID
}

// seedDepartment creates a department directly in the database.
func (app *testApp) seedDepartment(t *testing.T) *models.Department {
	t.Helper()
	n := userCounter.Add(1)
	dept := &models.Department{
		Name:     fmt.Sprintf("Department %d", n),
		Code:     fmt.Sprintf("DEPT%d", n),
		IsActive: true,
	}
	if err := app.DB.Create(dept).Error; err != nil {
		t.Fatalf("failed to seed department: %v", err)
	}
	return dept
}

// seedBudgetHead creates a budget head directly in the database.
func (app *testApp) seedBudgetHead(t *testing.T) *models.BudgetHead {
	t.Helper()
	n := userCounter.Add(1)
	head := &models.BudgetHead{
		Name:     fmt.Sprintf("Budget Head %d", n),
		Code:     fmt.Sprintf("BH%d", n),
		IsActive: true,
	}
	if err := app.DB.Create(head).Error; err != nil {
		t.Fatalf("failed to seed budget head: %v", err)
	}
	return head
}

// seedFinancialYear creates an active financial year.
func (app *testApp) seedFinancialYear(t *testing.T, label string) *models.FinancialYear {
	t.Helper()
	year := &models.FinancialYear{
		Label:  label,
		Status: models.FinancialYearActive,
	}
	if err := app.DB.Create(year).Error; err != nil {
		t.Fatalf("failed to seed financial year: %v", err)
	}
	return year
}
