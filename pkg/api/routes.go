package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/canon/pkg/world"
)

// BasePath is where the world API is mounted.
const BasePath = "/api/world"

// RegisterRoutes registers the world endpoints on rg (typically BasePath).
//
//	GET    /                          full world state
//	GET    /meta, PUT /meta           metadata (description only)
//	GET    /<name>, PUT /<name>       setting, thesis, devices, system-architecture
//	GET    /domains, POST /domains
//	GET    /domains/:id, PUT, DELETE
//	GET    /open-questions, POST /open-questions
//	GET    /open-questions/:id, PUT, DELETE
//	GET    /versions, POST /versions
//	GET    /versions/:version
//	POST   /versions/:version/restore
func RegisterRoutes(rg *gin.RouterGroup, h *Handlers) {
	rg.GET("", h.HandleWorld)
	rg.GET("/", h.HandleWorld)
	rg.GET("/meta", h.HandleGetMeta)
	rg.PUT("/meta", h.HandlePutMeta)

	for _, name := range world.Names() {
		rg.GET("/"+name, h.namedGetter(name))
		rg.PUT("/"+name, h.namedPutter(name))
	}

	domains := rg.Group("/domains")
	domains.GET("", h.HandleListDomains)
	domains.POST("", h.HandleCreateDomain)
	domains.GET("/:id", h.HandleGetDomain)
	domains.PUT("/:id", h.HandleUpdateDomain)
	domains.DELETE("/:id", h.HandleDeleteDomain)

	questions := rg.Group("/open-questions")
	questions.GET("", h.HandleListQuestions)
	questions.POST("", h.HandleCreateQuestion)
	questions.GET("/:id", h.HandleGetQuestion)
	questions.PUT("/:id", h.HandleUpdateQuestion)
	questions.DELETE("/:id", h.HandleDeleteQuestion)

	versions := rg.Group("/versions")
	versions.GET("", h.HandleListVersions)
	versions.POST("", h.HandleCreateVersion)
	versions.GET("/:version", h.HandleGetVersion)
	versions.POST("/:version/restore", h.HandleRestoreVersion)
}

// NewRouter builds the complete engine: middleware, world routes, /healthz
// and /metrics.
func NewRouter(svc *world.Service, logger *slog.Logger) *gin.Engine {
	if logger == nil {
		logger = slog.Default()
	}
	r := gin.New()
	r.RedirectTrailingSlash = false
	r.Use(gin.Recovery(), RequestID(logger), AccessLog())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	RegisterRoutes(r.Group(BasePath), NewHandlers(svc))
	return r
}
