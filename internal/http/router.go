package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/neurobridge-assessment/internal/http/handlers"
	httpMW "github.com/yungbote/neurobridge-assessment/internal/http/middleware"
	"github.com/yungbote/neurobridge-assessment/internal/observability"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string
	CORSOrigins []string

	AssessmentHandler *httpH.AssessmentHandler
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
	r.Use(httpMW.CORS(cfg.CORSOrigins...))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	api := r.Group("/api")
	if h := cfg.AssessmentHandler; h != nil {
		a := api.Group("/assessment")
		a.POST("/start", h.Start)
		a.GET("/student/:studentId/mastery", h.StudentMastery)
		a.GET("/stats/teacher", h.TeacherStats)
		a.GET("/:id/next-question", h.NextQuestion)
		a.POST("/:id/submit-answer", h.SubmitAnswer)
		a.GET("/:id/result", h.Result)
	}

	return r
}
