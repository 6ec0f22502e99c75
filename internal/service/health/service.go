package health

import (
	"time"

	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/ports"
)

// Response is the body of GET /health. The endpoint always answers 200;
// readiness is conveyed through the flags.
type Response struct {
	Status                 string `json:"status"`
	Service                string `json:"service"`
	Version                string `json:"version,omitempty"`
	Uptime                 string `json:"uptime,omitempty"`
	ModelLoaded            bool   `json:"model_loaded"`
	FeatureExtractorLoaded bool   `json:"feature_extractor_loaded"`
	Device                 string `json:"device,omitempty"`
}

// Service reports process health.
type Service struct {
	classifier ports.Classifier
	service    string
	version    string
	startTime  time.Time
	log        *zap.Logger
}

// NewService creates a health service reporting on the given classifier.
func NewService(classifier ports.Classifier, service, version string, log *zap.Logger) *Service {
	return &Service{
		classifier: classifier,
		service:    service,
		version:    version,
		startTime:  time.Now(),
		log:        log,
	}
}

// Report builds the current health response.
func (s *Service) Report() *Response {
	resp := &Response{
		Status:                 "healthy",
		Service:                s.service,
		Version:                s.version,
		Uptime:                 time.Since(s.startTime).String(),
		ModelLoaded:            s.classifier.Ready(),
		FeatureExtractorLoaded: s.classifier.Ready(),
	}
	if meta, err := s.classifier.Metadata(); err == nil {
		resp.Device = meta.Device
	}
	return resp
}
