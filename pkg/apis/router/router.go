package router

import (
	"github.com/gin-gonic/gin"

	"github.com/sukryu/pStore/pkg/apis/handlers"
	"github.com/sukryu/pStore/pkg/middleware"
	"github.com/sukryu/pStore/pkg/utils/jwt"
)

type Router struct {
	authHandler     *handlers.AuthHandler
	schemaHandler   *handlers.SchemaHandler
	resourceHandler *handlers.ResourceHandler
	jwtManager      *jwt.JWTManager
}

func NewRouter(
	authHandler *handlers.AuthHandler,
	schemaHandler *handlers.SchemaHandler,
	resourceHandler *handlers.ResourceHandler,
	jwtManager *jwt.JWTManager,
) *Router {
	return &Router{
		authHandler:     authHandler,
		schemaHandler:   schemaHandler,
		resourceHandler: resourceHandler,
		jwtManager:      jwtManager,
	}
}

func (r *Router) Setup() *gin.Engine {
	router := gin.Default()

	router.Use(middleware.ErrorMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		public.POST("/auth/login", r.authHandler.Login)
		public.GET("/schemas", r.schemaHandler.ListSchemas)
		public.GET("/schemas/:name", r.schemaHandler.GetSchema)
		public.GET("/resources/:table", r.resourceHandler.ListResources)
		public.GET("/resources/:table/:id", r.resourceHandler.GetResource)
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuth(r.jwtManager))
	{
		protected.POST("/schemas", r.schemaHandler.CreateSchema)

		protected.POST("/resources/:table", r.resourceHandler.CreateResource)
		protected.PUT("/resources/:table/:id", r.resourceHandler.UpdateResource)
		protected.DELETE("/resources/:table/:id", r.resourceHandler.DeleteResource)
		protected.PUT("/resources/:table/:id/:child", r.resourceHandler.ReplaceChildren)
	}

	return router
}
