package handlers

import (
	"sync"

	"soak_console/internal/logger"
	"soak_console/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger

	streamsMu sync.Mutex
	streams   map[int]int // live /ws connections per user id
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger) *Handler {
	return &Handler{services: services, log: log}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Health endpoint
	router.GET("/health", h.health)

	// Auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (protected)
	h.registerAPIRoutes(router)

	// Reconciled state stream (HTTP upgrade) on the same port
	router.GET("/ws", h.userIdMiddleware, h.wsConnect)

	return router
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth")
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		api.GET("/state", h.getState)
		api.GET("/permissions", h.getPermissions)
		api.GET("/console", h.getConsole)
		api.POST("/resync", h.resync)

		h.registerControlRoutes(api)
		h.registerSettingsRoutes(api)
		h.registerScheduleRoutes(api)
		h.registerLogRoutes(api)

		api.POST("/support/report-bug", h.reportBug)
	}
}

func (h *Handler) registerControlRoutes(api *gin.RouterGroup) {
	control := api.Group("/control")
	{
		// Body example: {"relay":"jet_pump","on":true}
		control.POST("/toggle", h.toggle)
		control.POST("/reset-faults", h.resetFaults)
		control.POST("/master-shutdown", h.masterShutdown)
		control.POST("/start-soak", h.startSoak)
		control.POST("/cancel-soak", h.cancelSoak)
		control.POST("/cancel-scheduled-session", h.cancelScheduledSession)
		control.POST("/adjust-timer", h.adjustTimer)
		control.POST("/trigger-schedule/:id", h.triggerSchedule)
		control.POST("/update-system", h.updateSystem)
	}
}

func (h *Handler) registerSettingsRoutes(api *gin.RouterGroup) {
	api.POST("/settings", h.updateSettings)
	api.POST("/settings/adjust", h.adjustSetting)

	edit := api.Group("/edit/:field")
	{
		edit.POST("/begin", h.beginEdit)
		edit.POST("/input", h.inputEdit)
		edit.POST("/commit", h.commitEdit)
		edit.POST("/blur", h.blurEdit)
		edit.POST("/cancel", h.cancelEdit)
	}
}

func (h *Handler) registerScheduleRoutes(api *gin.RouterGroup) {
	schedules := api.Group("/schedules")
	{
		schedules.GET("", h.listSchedules)
		schedules.POST("", h.createSchedule)
		schedules.PUT("/:id", h.updateSchedule)
		schedules.DELETE("/:id", h.deleteSchedule)
	}
}

func (h *Handler) registerLogRoutes(api *gin.RouterGroup) {
	logs := api.Group("/logs")
	{
		logs.GET("/", h.getLogs)
	}
}
