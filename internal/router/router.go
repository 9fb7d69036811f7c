package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"inquiryfiles/internal/app/attachment"
	"inquiryfiles/internal/app/health"
	"inquiryfiles/internal/app/inquiry"
	"inquiryfiles/internal/app/upload"
	"inquiryfiles/internal/middleware"
)

type Router struct {
	Engine *gin.Engine
}

func NewRouter(logger *zap.Logger) *Router {
	engine := gin.New()
	engine.Use(middleware.CORSMiddleware())
	engine.Use(middleware.LoggerMiddleware(logger))
	engine.Use(middleware.Identity())
	engine.Use(gin.Recovery())
	return &Router{Engine: engine}
}

func (r *Router) RegisterHealthRoutes(handler health.Handler) {
	health.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterInquiryRoutes(handler inquiry.Handler) {
	inquiry.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterAttachmentRoutes(handler attachment.Handler) {
	attachment.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterUploadRoutes(handler upload.Handler) {
	upload.RegisterRoutes(r.Engine.Group("/api"), handler)
}

func (r *Router) RegisterSwaggerRoutes() {
	r.Engine.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

func (r *Router) Serve(addr string) error {
	return r.Engine.Run(addr)
}
