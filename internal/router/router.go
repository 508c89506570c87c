package router

import (
	"time"

	"interunido/internal/config"
	"interunido/internal/handler"
	"interunido/internal/infra"
	"interunido/internal/middleware"
	"interunido/internal/repository"
	"interunido/internal/service"
	"interunido/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, tasaClient *infra.TasaClient) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(1000, time.Minute)) // 1000 req/min per IP

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	operacionRepo := repository.NewOperacionRepository(db)
	notaRepo := repository.NewNotaRepository(db)
	metricasRepo := repository.NewMetricasRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	// Worker dispatcher — injected into services that enqueue async jobs
	dispatcher := worker.NewDispatcher(rdb)

	authSvc := service.NewAuthService(usuarioRepo, cfg)
	operacionSvc := service.NewOperacionService(operacionRepo, dispatcher, cfg.OfficePoolPolicy)
	notaSvc := service.NewNotaService(notaRepo)
	metricasSvc := service.NewMetricasService(metricasRepo, rdb, cfg.Timezone)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(authSvc)
	operacionesH := handler.NewOperacionesHandler(operacionSvc, cfg.PDFStoragePath)
	notasH := handler.NewNotasHandler(notaSvc)
	metricasH := handler.NewMetricasHandler(metricasSvc)
	tasasH := handler.NewTasasHandler(tasaClient, rdb)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, tasaClient))

	// Auth (public)
	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(), authH.Login)
		auth.POST("/refresh", authH.Refresh)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		// Roles: operador, admin — declared per-endpoint
		ops := v1.Group("/operaciones", middleware.RequireRole("operador", "admin"))
		{
			ops.POST("", operacionesH.Crear)
			ops.GET("", operacionesH.Listar)
			ops.GET("/:id", operacionesH.Obtener)
			ops.PATCH("/:id", operacionesH.Actualizar)
			ops.POST("/:id/transacciones", operacionesH.RegistrarTransaccion)
			ops.PUT("/:id/transacciones/:txId", operacionesH.ActualizarTransaccion)
			ops.DELETE("/:id/transacciones/:txId", operacionesH.EliminarTransaccion)
			ops.GET("/:id/recibo", operacionesH.DescargarRecibo)
		}

		notas := v1.Group("/notas", middleware.RequireRole("operador", "admin"))
		{
			notas.POST("", notasH.Crear)
			notas.GET("", notasH.Listar)
			notas.GET("/:id", notasH.Obtener)
			notas.PUT("/:id", notasH.Actualizar)
			notas.PATCH("/:id/archivar", notasH.Archivar)
			notas.DELETE("/:id", notasH.Eliminar)
		}

		v1.GET("/metricas", middleware.RequireRole("operador", "admin"), metricasH.Resumen)
		v1.GET("/metricas/operadores", middleware.RequireRole("admin"), metricasH.PorOperador)

		v1.GET("/tasas/referencia", middleware.RequireRole("operador", "admin"), tasasH.Obtener)

		usuarios := v1.Group("/usuarios", middleware.RequireRole("admin"))
		{
			usuarios.POST("", usuariosH.Crear)
			usuarios.GET("", usuariosH.Listar)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", usuariosH.Desactivar)
			usuarios.PATCH("/:id/reactivar", usuariosH.Reactivar)
		}
	}

	// Swagger UI — only enabled outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
