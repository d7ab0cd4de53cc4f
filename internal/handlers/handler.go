package handlers

import (
	"html/template"
	"net/http"

	"weather_relay/internal/logger"
	"weather_relay/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services      *service.Service
	log           *logger.Logger
	channelSecret string
	metrics       http.Handler
}

type Option func(*Handler)

// WithChannelSecret enables X-Line-Signature verification on /webhook.
func WithChannelSecret(secret string) Option {
	return func(h *Handler) { h.channelSecret = secret }
}

// WithMetrics serves h on /metrics.
func WithMetrics(metrics http.Handler) Option {
	return func(h *Handler) { h.metrics = metrics }
}

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts ...Option) *Handler {
	h := &Handler{services: services, log: log}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.New(statusTemplateName).Parse(statusPageHTML)))

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if h.metrics != nil {
		router.GET("/metrics", gin.WrapH(h.metrics))
	}

	router.GET("/", h.statusPage)
	router.GET("/health", h.health)

	// Device and chat endpoints
	router.POST("/sensor-data", h.postSensorData)
	router.GET("/latest", h.getLatest)
	router.POST("/webhook", h.webhook)
	router.POST("/ask-ai", h.askAI)

	h.registerAuthRoutes(router)

	// Operator API (protected)
	h.registerAPIRoutes(router)

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
		api.GET("/dispatches", h.getDispatches)
		api.GET("/recipients", h.getRecipients)
		api.POST("/reports", h.triggerReport)
	}
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
