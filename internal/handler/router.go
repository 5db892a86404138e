package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"booking-core/internal/domain/user"
	"booking-core/internal/handler/api"
	"booking-core/internal/handler/middleware"
	"booking-core/internal/pkg/config"
)

type route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
	Mw      []gin.HandlerFunc
}

func NewRouter(
	engine *gin.Engine,
	cfg config.Config,
	reservationHandler *api.ReservationHandler,
	availabilityHandler *api.AvailabilityHandler,
	applicationHandler *api.ApplicationHandler,
	allocationHandler *api.AllocationHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	setupMiddleware(engine, cfg)
	setupRoutes(engine, reservationHandler, availabilityHandler, applicationHandler, allocationHandler, authMiddleware)
}

func setupMiddleware(engine *gin.Engine, cfg config.Config) {
	// Recovery must be first (outermost) to catch panics from all other middleware
	engine.Use(middleware.CustomRecovery())
	engine.Use(middleware.NewCORSMiddleware(cfg.CORS))
	engine.Use(middleware.LoggingMiddleware(nil, cfg.Log))
	engine.Use(middleware.MetricsMiddleware())
	engine.Use(middleware.ErrorHandler())
}

func setupRoutes(
	engine *gin.Engine,
	reservationHandler *api.ReservationHandler,
	availabilityHandler *api.AvailabilityHandler,
	applicationHandler *api.ApplicationHandler,
	allocationHandler *api.AllocationHandler,
	authMiddleware *middleware.AuthMiddleware,
) {
	engine.GET("/health", healthCheck)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	if gin.Mode() == gin.DebugMode {
		engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	staffOnly := authMiddleware.RequireRoleAtLeast(user.RoleOperator)

	apiGroup := engine.Group("/api")
	{
		units := apiGroup.Group("/units")
		{
			addRoutes(units, []route{
				{Method: http.MethodGet, Path: "/:id/availability", Handler: availabilityHandler.GetStartTimes},
			})
		}

		reservations := apiGroup.Group("/reservations")
		reservations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(reservations, []route{
				{Method: http.MethodPost, Path: "", Handler: reservationHandler.CreateReservation},
				{Method: http.MethodGet, Path: "", Handler: reservationHandler.ListReservations},
				{Method: http.MethodGet, Path: "/:id", Handler: reservationHandler.GetReservation},
				{Method: http.MethodPut, Path: "/:id/time", Handler: reservationHandler.AdjustReservationTime},
				{Method: http.MethodDelete, Path: "/:id", Handler: reservationHandler.CancelReservation},
				{Method: http.MethodPost, Path: "/:id/confirm", Handler: reservationHandler.ConfirmReservation, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/approve", Handler: reservationHandler.ApproveReservation, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPost, Path: "/:id/deny", Handler: reservationHandler.DenyReservation, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		applications := apiGroup.Group("/applications")
		applications.Use(authMiddleware.RequireAuth())
		{
			addRoutes(applications, []route{
				{Method: http.MethodPost, Path: "", Handler: applicationHandler.CreateApplication},
				{Method: http.MethodGet, Path: "/:id", Handler: applicationHandler.GetApplication},
				{Method: http.MethodPost, Path: "/:id/send", Handler: applicationHandler.SendApplication},
				{Method: http.MethodPut, Path: "/:id/flag", Handler: applicationHandler.FlagApplication, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPut, Path: "/:id/status", Handler: applicationHandler.AdvanceApplication, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		rounds := apiGroup.Group("/rounds")
		rounds.Use(authMiddleware.RequireAuth())
		{
			addRoutes(rounds, []route{
				{Method: http.MethodGet, Path: "/:id/applications", Handler: applicationHandler.ListRoundApplications, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		sections := apiGroup.Group("/sections")
		sections.Use(authMiddleware.RequireAuth())
		{
			addRoutes(sections, []route{
				{Method: http.MethodPost, Path: "/:id/allocations", Handler: allocationHandler.CreateAllocation, Mw: []gin.HandlerFunc{staffOnly}},
				{Method: http.MethodPut, Path: "/:id/status", Handler: allocationHandler.AdvanceSection, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}

		allocations := apiGroup.Group("/allocations")
		allocations.Use(authMiddleware.RequireAuth())
		{
			addRoutes(allocations, []route{
				{Method: http.MethodPost, Path: "/:id/decline", Handler: allocationHandler.DeclineAllocation},
				{Method: http.MethodPost, Path: "/:id/apply", Handler: allocationHandler.ApplySeries, Mw: []gin.HandlerFunc{staffOnly}},
			})
		}
	}
}

// @Summary Health check
// @Description Check if the service is healthy
// @Tags health
// @Produce json
// @Success 200 {object} map[string]string
// @Router /health [get]
func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Service is healthy",
	})
}

func addRoutes(g *gin.RouterGroup, rs []route) {
	for _, r := range rs {
		h := r.Handler
		if len(r.Mw) > 0 {
			h = chainHandlers(append(r.Mw, r.Handler)...)
		}
		switch r.Method {
		case http.MethodGet:
			g.GET(r.Path, h)
		case http.MethodPost:
			g.POST(r.Path, h)
		case http.MethodPut:
			g.PUT(r.Path, h)
		case http.MethodPatch:
			g.PATCH(r.Path, h)
		case http.MethodDelete:
			g.DELETE(r.Path, h)
		default:
			g.Any(r.Path, h)
		}
	}
}

func chainHandlers(hs ...gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, h := range hs {
			h(c)
			if c.IsAborted() {
				return
			}
		}
	}
}
