package handlers

import (
	"thermal_printer/internal/logger"
	"thermal_printer/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires the HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
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
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// Status stream on the same port
	router.GET("/ws", h.wsConnect)

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
	api := r.Group("/api/v1", h.operatorMiddleware)
	{
		h.registerEntryRoutes(api)
		h.registerPrinterRoutes(api)
		api.GET("/templates", h.listTemplates)
	}
}

func (h *Handler) registerEntryRoutes(api *gin.RouterGroup) {
	entries := api.Group("/entries")
	{
		entries.GET("", h.listEntries)
		// Body example: {"ip_address":"192.168.1.50","port":9100}
		entries.POST("", h.createEntry)
		entries.POST("/validate", h.validateEntry)
		entries.GET("/:id", h.getEntry)
		entries.DELETE("/:id", h.deleteEntry)
	}
}

func (h *Handler) registerPrinterRoutes(api *gin.RouterGroup) {
	printers := api.Group("/printers")
	{
		printers.GET("", h.listPrinters)
		printers.GET("/:id/status", h.getStatus)
		printers.POST("/:id/refresh", h.refreshStatus)
		// Body example: {"template":"kanban","data":{"title":"Ship it"}}
		printers.POST("/:id/print", h.print)
		printers.GET("/:id/events", h.getEvents)
	}
}
