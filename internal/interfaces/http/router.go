package http

import (
	"github.com/gofiber/fiber/v2"

	appanalytics "github.com/jhoicas/audita-nfe/internal/application/analytics"
	"github.com/jhoicas/audita-nfe/internal/application/auth"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
	"github.com/jhoicas/audita-nfe/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC        *auth.AuthUseCase
	CompanyUC     *usecase.CompanyUseCase
	UserUC        *usecase.UserUseCase
	ClientUC      *usecase.ClientUseCase
	UploadUC      *usecase.UploadUseCase
	AnalysisUC    *usecase.AnalysisUseCase
	ReportUC      *usecase.ReportUseCase
	DashboardUC   *appanalytics.DashboardUseCase
	DictionaryUC  *usecase.DictionaryUseCase
	AIUC          *usecase.AIUseCase
	AuditLogUC    *usecase.AuditLogUseCase
	AccessService *usecase.AccessService
	JWTSecret     string
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)

	// Alta de oficina (público); la consulta va detrás del token
	companyHandler := NewCompanyHandler(deps.CompanyUC)
	api.Post("/companies", companyHandler.Create)

	// Rutas protegidas: Bearer Token + oficina activa
	protected := api.Group("/", AuthMiddleware(deps.JWTSecret), RequireActiveCompany(deps.AccessService))
	adminOnly := RequireRole(entity.RoleAdmin)

	protected.Get("/companies/me", companyHandler.Me)

	users := protected.Group("/users")
	userHandler := NewUserHandler(deps.UserUC)
	users.Get("/me", userHandler.Me)
	users.Post("/", adminOnly, userHandler.Create)
	users.Get("/", adminOnly, userHandler.List)

	clients := protected.Group("/clients")
	clientHandler := NewClientHandler(deps.ClientUC)
	clients.Post("/", clientHandler.Create)
	clients.Get("/", clientHandler.List)
	clients.Get("/:id", clientHandler.GetByID)
	clients.Put("/:id", clientHandler.Update)
	clients.Delete("/:id", adminOnly, clientHandler.Delete)

	uploads := protected.Group("/uploads")
	uploadHandler := NewUploadHandler(deps.UploadUC)
	uploads.Post("/", uploadHandler.Create)
	uploads.Get("/", uploadHandler.List)

	analyses := protected.Group("/analyses")
	analysisHandler := NewAnalysisHandler(deps.AnalysisUC, deps.ReportUC)
	analyses.Post("/", analysisHandler.Run)
	analyses.Get("/", analysisHandler.List)
	analyses.Get("/:id", analysisHandler.GetByID)
	analyses.Get("/:id/report.pdf", analysisHandler.Report)

	dashboard := protected.Group("/dashboard")
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	dashboard.Get("/", dashboardHandler.GetClient)
	dashboard.Get("/overview", dashboardHandler.GetOverview)

	dictionary := protected.Group("/dictionary")
	dictionaryHandler := NewDictionaryHandler(deps.DictionaryUC, deps.AIUC)
	dictionary.Get("/", dictionaryHandler.Get)
	dictionary.Post("/suggest", dictionaryHandler.Suggest)
	dictionary.Put("/", adminOnly, dictionaryHandler.Update)
	dictionary.Post("/reload", adminOnly, dictionaryHandler.Reload)

	auditLogHandler := NewAuditLogHandler(deps.AuditLogUC)
	protected.Get("/audit-logs", adminOnly, auditLogHandler.List)
}
