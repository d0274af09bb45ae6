package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/yungbote/neurobridge-assessment/internal/http"
	"github.com/yungbote/neurobridge-assessment/internal/observability"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		Log:               log,
		Metrics:           metrics,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		AssessmentHandler: handlers.Assessment,
		HealthHandler:     handlers.Health,
	})
}
