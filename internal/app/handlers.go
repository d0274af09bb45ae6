package app

import (
	httpH "github.com/yungbote/neurobridge-assessment/internal/http/handlers"
	"github.com/yungbote/neurobridge-assessment/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Assessment *httpH.AssessmentHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Assessment: httpH.NewAssessmentHandler(log, services.Assessment),
	}
}
