package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Business metrics
	PredictionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amd_predictions_total",
		Help: "Total classification requests by predicted label and outcome",
	}, []string{"label", "status"})

	PredictionConfidence = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amd_prediction_confidence",
		Help:    "Confidence of the winning class",
		Buckets: prometheus.LinearBuckets(0.5, 0.05, 10),
	})

	AudioDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amd_audio_duration_seconds",
		Help:    "Effective audio duration fed to the model",
		Buckets: []float64{1, 2, 5, 10, 15, 30},
	})

	// Infrastructure metrics
	InferenceLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "amd_inference_latency_seconds",
		Help:    "End-to-end pipeline latency per request",
		Buckets: prometheus.DefBuckets,
	})

	ModelLoaded = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "amd_model_loaded",
		Help: "1 when the model and feature extractor are loaded",
	})
)
