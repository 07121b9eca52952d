package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/audita-nfe/internal/application/analysis"
	appanalytics "github.com/jhoicas/audita-nfe/internal/application/analytics"
	"github.com/jhoicas/audita-nfe/internal/application/auth"
	"github.com/jhoicas/audita-nfe/internal/application/ports"
	"github.com/jhoicas/audita-nfe/internal/application/usecase"
	"github.com/jhoicas/audita-nfe/internal/domain/classifier"
	infraai "github.com/jhoicas/audita-nfe/internal/infrastructure/ai"
	"github.com/jhoicas/audita-nfe/internal/infrastructure/dictionary"
	infrapdf "github.com/jhoicas/audita-nfe/internal/infrastructure/pdf"
	httpRouter "github.com/jhoicas/audita-nfe/internal/interfaces/http"
	"github.com/jhoicas/audita-nfe/pkg/config"
	"github.com/jhoicas/audita-nfe/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET es obligatorio")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repos, err := openRepositories(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("abrir almacenamiento")
	}
	defer repos.Close()

	// ── Diccionario ──────────────────────────────────────────────────────────
	var (
		loader classifier.Loader
		writer ports.DictionaryWriter
	)
	if path := cfg.Audit.DictionaryPath; path != "" {
		created, err := dictionary.WriteDefault(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("crear diccionario por defecto")
		}
		if created {
			log.Info().Str("path", path).Msg("diccionario por defecto escrito")
		}
		src := dictionary.NewFileSource(path, cfg.Audit.NCMCatalogPath)
		loader, writer = src, src
	} else {
		seeded, err := dictionary.SeedDefault(ctx, repos.dictionary)
		if err != nil {
			log.Fatal().Err(err).Msg("sembrar diccionario")
		}
		if seeded > 0 {
			log.Info().Int("categories", seeded).Msg("diccionario por defecto cargado en la base")
		}
		loader, writer = repos.dictionary, repos.dictionary
	}

	dictStore, err := classifier.NewStore(ctx, loader, classifier.Options{Threshold: cfg.Audit.FuzzyThreshold})
	if err != nil {
		log.Fatal().Err(err).Msg("cargar diccionario")
	}
	cats, kws := dictStore.Current().Stats()
	log.Info().
		Str("version", dictStore.Current().Fingerprint()).
		Int("categories", cats).
		Int("keywords", kws).
		Msg("diccionario cargado")

	if cfg.Audit.DictionaryWatch && cfg.Audit.DictionaryPath != "" {
		watcher := dictionary.NewWatcher(cfg.Audit.DictionaryPath, dictStore, log)
		go func() {
			if err := watcher.Run(ctx); err != nil {
				log.Error().Err(err).Msg("watcher del diccionario detenido")
			}
		}()
	}

	// ── Casos de uso ─────────────────────────────────────────────────────────
	engine := analysis.NewEngine(dictStore, analysis.EngineConfig{
		CentsFactor: decimal.NewFromFloat(cfg.Audit.CentsFactor),
		Digest:      true,
	}, log)

	companyUC := usecase.NewCompanyUseCase(repos.companies)
	userUC := usecase.NewUserUseCase(repos.users)
	clientUC := usecase.NewClientUseCase(repos.clients)
	uploadUC := usecase.NewUploadUseCase(repos.clients, repos.uploads, repos.archives, repos.auditLogs)
	analysisUC := usecase.NewAnalysisUseCase(repos.uploads, repos.analyses, repos.archives, engine, repos.tx, log)
	reportUC := usecase.NewReportUseCase(
		repos.analyses, repos.companies, repos.clients, repos.uploads, infrapdf.NewMarotoPDFGenerator(),
	)
	dashboardUC := appanalytics.NewDashboardUseCase(repos.analytics, repos.clients, repos.uploads, analysisUC)
	dictionaryUC := usecase.NewDictionaryUseCase(dictStore, writer, repos.auditLogs)
	auditLogUC := usecase.NewAuditLogUseCase(repos.auditLogs)
	accessSvc := usecase.NewAccessService(repos.companies)

	// Sin API key el endpoint de sugerencias responde 503
	var llm ports.LLMService
	if cfg.AI.AnthropicAPIKey != "" {
		llm = infraai.NewAnthropicService(cfg.AI.AnthropicAPIKey, cfg.AI.AnthropicModel)
	}
	aiUC := usecase.NewAIUseCase(llm, dictStore)

	authUC := auth.NewAuthUseCase(repos.users, repos.companies, auth.JWTConfig{
		Secret:     cfg.JWT.Secret,
		ExpMinutes: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})

	// ── HTTP ─────────────────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.HTTP.BodyLimit,
		ReadTimeout:  time.Minute,
		WriteTimeout: 2 * time.Minute, // las corridas son sincrónicas
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Audita NF-e API",
		}))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":     "ok",
			"service":    cfg.App.Name,
			"dictionary": dictStore.Current().Fingerprint(),
		})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:        authUC,
		CompanyUC:     companyUC,
		UserUC:        userUC,
		ClientUC:      clientUC,
		UploadUC:      uploadUC,
		AnalysisUC:    analysisUC,
		ReportUC:      reportUC,
		DashboardUC:   dashboardUC,
		DictionaryUC:  dictionaryUC,
		AIUC:          aiUC,
		AuditLogUC:    auditLogUC,
		AccessService: accessSvc,
		JWTSecret:     cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}
