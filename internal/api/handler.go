package api

import (
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/gate"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/metrics"
	"github.com/povarna/generative-ai-agents/kindfilter/internal/models"
	"github.com/rs/zerolog"
)

type Handler struct {
	gate   *gate.Gate
	logger *zerolog.Logger
}

func NewHandler(g *gate.Gate, logger *zerolog.Logger) *Handler {
	return &Handler{
		gate:   g,
		logger: logger,
	}
}

// POST /api/v1/evaluate
// Body: ModerationRequest
// Returns: ModerationVerdict
func (h *Handler) Evaluate(req *restful.Request, resp *restful.Response) {
	var modRequest models.ModerationRequest
	if err := req.ReadEntity(&modRequest); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}

	verdict := h.gate.Evaluate(req.Request.Context(), modRequest.Text)
	verdict.RequestID = modRequest.RequestID
	metrics.Record(metrics.SourceAPI, verdict)

	h.logger.Info().
		Str("request_id", verdict.RequestID).
		Str("outcome", string(verdict.Outcome)).
		Dur("duration", verdict.Duration).
		Msg("Moderation complete")

	resp.WriteHeaderAndEntity(http.StatusOK, verdict)
}

// Health handler GET API /api/v1/health
func (h *Handler) Health(req *restful.Request, resp *restful.Response) {
	healthResponse := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
	}

	resp.WriteHeaderAndEntity(http.StatusOK, healthResponse)
}
