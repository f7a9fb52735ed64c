package agent

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"arogya-setu/internal/platform/respond"
)

type Asker interface {
	Ask(ctx context.Context, question string) (string, error)
}

type Handler struct {
	asker  Asker
	logger *zap.Logger
}

func NewHandler(asker Asker, logger *zap.Logger) *Handler {
	return &Handler{asker: asker, logger: logger}
}

type AskRequest struct {
	Message string `json:"message"`
}

type AskResponse struct {
	Reply string `json:"reply"`
}

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req AskRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	question := strings.TrimSpace(req.Message)
	if question == "" {
		respond.ValidationError(w, "message is required")
		return
	}

	reply, err := h.asker.Ask(r.Context(), question)
	if err != nil {
		h.logger.Warn("assistant request failed", zap.Error(err))
		reply = AssistantApology
	}
	respond.JSON(w, http.StatusOK, AskResponse{Reply: reply})
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Post("/assistant/chat", h.Chat)
}
