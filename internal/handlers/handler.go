package handlers

import (
	"skull_controller/internal/console"
	"skull_controller/internal/logger"
	"skull_controller/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Options configure the console sessions opened over HTTP.
type Options struct {
	ConsoleCapacity int
	ConsoleVerbose  bool
}

// Handler wires the HTTP layer to the services, the shared console dispatcher
// and logging.
type Handler struct {
	services *service.Service
	console  *console.Dispatcher
	log      *logger.Logger
	opts     Options
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, disp *console.Dispatcher, log *logger.Logger, opts Options) *Handler {
	if opts.ConsoleCapacity < 2 {
		opts.ConsoleCapacity = console.DefaultCapacity
	}
	return &Handler{services: services, console: disp, log: log, opts: opts}
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)

	h.registerAuthRoutes(router)
	h.registerAPIRoutes(router)

	// console over WebSocket, same port
	ws := router.Group("/ws", h.operatorMiddleware)
	{
		ws.GET("/console", h.wsConsole)
	}

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
		api.GET("/state", h.getState)
		// Body example: {"line":"setlimit rot 500 2600","verbose":true}
		api.POST("/commands", h.runCommand)
		api.GET("/logs", h.getLogs)
	}
}
