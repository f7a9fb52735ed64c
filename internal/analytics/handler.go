package analytics

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"arogya-setu/internal/platform/respond"
)

type Handler struct {
	svc    Service
	logger *zap.Logger
}

func NewHandler(svc Service, logger *zap.Logger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) Overview(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Overview(r.Context())
	if err != nil {
		h.logger.Error("failed to compute analytics", zap.Error(err))
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, o)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/analytics", h.Overview)
}
