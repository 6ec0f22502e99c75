package handlers

import (
	"io"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/chaitanyak175/attack-capital/internal/ports"
)

// PredictHandler serves the classification endpoints. Errors bubble up to
// the app error handler, which maps the domain taxonomy to status codes.
type PredictHandler struct {
	classifier ports.Classifier
	log        *zap.Logger
}

func NewPredictHandler(classifier ports.Classifier, log *zap.Logger) *PredictHandler {
	return &PredictHandler{
		classifier: classifier,
		log:        log,
	}
}

// Predict handles POST /predict and /predict-stream: a multipart upload
// carrying an audio container under the "file" field.
func (h *PredictHandler) Predict(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "missing audio file upload")
	}

	f, err := fileHeader.Open()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file upload")
	}
	defer f.Close()

	raw, err := io.ReadAll(f)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "unreadable file upload")
	}

	h.log.Debug("Received audio file",
		zap.String("filename", fileHeader.Filename),
		zap.Int64("bytes", fileHeader.Size),
	)

	pred, err := h.classifier.Classify(c.Context(), raw, ports.DecodeContainer)
	if err != nil {
		return err
	}
	return c.JSON(pred)
}

// PredictRaw handles POST /predict-raw: the request body is signed 16-bit
// little-endian PCM at the model's sample rate, for low-latency streaming
// callers.
func (h *PredictHandler) PredictRaw(c *fiber.Ctx) error {
	pred, err := h.classifier.Classify(c.Context(), c.Body(), ports.DecodeRawPCM)
	if err != nil {
		return err
	}
	return c.JSON(pred)
}
