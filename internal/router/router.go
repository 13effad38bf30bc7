package router

import (
	"time"

	"motorepuestos/internal/config"
	"motorepuestos/internal/handler"
	"motorepuestos/internal/live"
	"motorepuestos/internal/middleware"
	"motorepuestos/internal/offline"
	"motorepuestos/internal/repository"
	"motorepuestos/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Deps are the long-lived components built in main; the router only
// wires them, their lifecycle (Start/Stop) stays with the caller.
type Deps struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Monitor     *offline.Monitor
	Queue       *offline.Queue
	DLQ         *offline.DeadLetter
	Coordinator *offline.Coordinator
	LiveHub     *live.Hub

	ShiftRepo   repository.ShiftRepository
	SaleRepo    repository.SaleRepository
	ExpenseRepo repository.ExpenseRepository
	ProductRepo repository.ProductRepository
	ClosureRepo repository.DayClosureRepository
	StatsRepo   repository.StatsRepository
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DocumentStore
func New(cfg *config.Config, d Deps) *gin.Engine {
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

	// ── Services ─────────────────────────────────────────────────────────────
	shiftSvc := service.NewShiftService(d.ShiftRepo, d.Coordinator)
	saleSvc := service.NewSaleService(d.ProductRepo, d.ShiftRepo, d.SaleRepo, d.Coordinator)
	expenseSvc := service.NewExpenseService(d.ExpenseRepo, d.ShiftRepo, d.StatsRepo)
	daySvc := service.NewDayService(d.ShiftRepo, d.SaleRepo, d.ExpenseRepo, d.ClosureRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	shiftsH := handler.NewShiftHandler(shiftSvc)
	salesH := handler.NewSaleHandler(saleSvc)
	expensesH := handler.NewExpenseHandler(expenseSvc)
	dayH := handler.NewDayHandler(daySvc)
	syncH := handler.NewSyncHandler(d.Coordinator, d.Monitor, d.Queue, d.DLQ, cfg.QueueCapacity)
	liveH := handler.NewLiveHandler(d.LiveHub)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(d.DB, d.Redis, d.Monitor, d.Queue))

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	v1 := r.Group("/v1", jwtMW)
	{
		shifts := v1.Group("/shifts")
		{
			shifts.POST("", shiftsH.Open)
			shifts.POST("/:id/close", shiftsH.Close)
			shifts.GET("/lookup", shiftsH.Get)
			shifts.GET("", shiftsH.ListByDay)
		}

		v1.POST("/sales", salesH.Register)
		v1.GET("/sales", salesH.ListByDay)

		v1.POST("/expenses", expensesH.Register)
		v1.GET("/expenses", expensesH.ListByDay)

		day := v1.Group("/day")
		{
			day.GET("/status", dayH.Status)
			day.GET("/summary", dayH.Summary)
			day.POST("/finalize", middleware.RequireRole("supervisor", "admin"), dayH.Finalize)
		}

		sync := v1.Group("/sync")
		{
			sync.GET("/status", syncH.Status)
			sync.POST("/force", syncH.Force)
		}

		v1.GET("/live/:collection", liveH.Snapshot)
	}

	return r
}
