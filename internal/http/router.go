package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/resourcehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/resourcehub-backend/internal/http/middleware"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	ServiceName    string
	CORSOrigins    []string
	Metrics        *observability.Metrics
	AuthMiddleware *httpMW.AuthMiddleware

	ResourceHandler   *httpH.ResourceHandler
	CollectionHandler *httpH.CollectionHandler
	TaxonomyHandler   *httpH.TaxonomyHandler
	HealthHandler     *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		api.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Resources
	if h := cfg.ResourceHandler; h != nil {
		api.GET("/resources", h.ListResources)
		api.POST("/resources", h.CreateResource)
		api.DELETE("/resources", h.DeleteResources)
		api.POST("/resources/search", h.SearchResources)
		api.GET("/resources/:id", h.GetResource)
		api.PATCH("/resources/:id", h.UpdateResource)
		api.GET("/resources/:id/similar", h.SimilarResources)
		api.POST("/resources/:id/like", h.LikeResource)
		api.DELETE("/resources/:id/like", h.UnlikeResource)
		api.POST("/resources/:id/save", h.SaveResource)
	}

	// Collections
	if h := cfg.CollectionHandler; h != nil {
		api.GET("/collections", h.ListCollections)
		api.POST("/collections", h.CreateCollection)
		api.POST("/collections/:id/resources", h.AddResource)
		api.DELETE("/collections/:id/resources/:resourceId", h.RemoveResource)
	}

	// Taxonomy
	if h := cfg.TaxonomyHandler; h != nil {
		api.GET("/categories", h.ListCategories)
		api.GET("/tags", h.ListTags)
	}

	return r
}
