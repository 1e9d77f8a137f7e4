package handler

import (
	"net/http"

	"foodcatalog/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// RouteRegistrar is implemented by every handler
type RouteRegistrar interface {
	RegisterRoutes(router *gin.RouterGroup)
}

// NewRouter assembles the engine: recovery, request logging, CORS, session
// resolution, then the handlers' routes.
func NewRouter(authn *middleware.Authenticator, log zerolog.Logger, corsOrigins []string, handlers ...RouteRegistrar) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = corsOrigins
	if len(corsOrigins) == 0 {
		corsConfig.AllowOrigins = []string{"http://localhost:5173"}
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	router.Use(authn.Authenticate())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	root := router.Group("")
	for _, h := range handlers {
		h.RegisterRoutes(root)
	}
	return router
}
