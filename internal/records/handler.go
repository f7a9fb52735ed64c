package records

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

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	listing, err := h.svc.List(r.Context(), q.Get("q"), q.Get("status"))
	if err != nil {
		h.logger.Error("failed to list records", zap.Error(err))
		respond.InternalError(w)
		return
	}
	respond.JSON(w, http.StatusOK, listing)
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Get("/records", h.List)
}
