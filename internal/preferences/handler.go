package preferences

import (
	"errors"
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

type LanguageRequest struct {
	Language string `json:"language"`
}

func (h *Handler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, Languages)
}

func (h *Handler) GetLanguage(w http.ResponseWriter, r *http.Request) {
	lang, err := h.svc.Language(r.Context())
	h.reply(w, lang, err)
}

func (h *Handler) PutLanguage(w http.ResponseWriter, r *http.Request) {
	var req LanguageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	lang, err := h.svc.SetLanguage(r.Context(), req.Language)
	h.reply(w, lang, err)
}

func (h *Handler) GetVoice(w http.ResponseWriter, r *http.Request) {
	v, err := h.svc.Voice(r.Context())
	h.reply(w, v, err)
}

func (h *Handler) PutVoice(w http.ResponseWriter, r *http.Request) {
	var req VoiceUpdate
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	v, err := h.svc.UpdateVoice(r.Context(), req)
	h.reply(w, v, err)
}

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Notifications(r.Context())
	h.reply(w, n, err)
}

func (h *Handler) PutNotifications(w http.ResponseWriter, r *http.Request) {
	var req Notifications
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	n, err := h.svc.SetNotifications(r.Context(), req)
	h.reply(w, n, err)
}

func (h *Handler) GetOffline(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Offline(r.Context())
	h.reply(w, o, err)
}

func (h *Handler) PutOffline(w http.ResponseWriter, r *http.Request) {
	var req OfflineSettings
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	o, err := h.svc.SetOffline(r.Context(), req)
	h.reply(w, o, err)
}

func (h *Handler) reply(w http.ResponseWriter, v any, err error) {
	switch {
	case err == nil:
		respond.JSON(w, http.StatusOK, v)
	case errors.Is(err, ErrValidation):
		respond.ValidationError(w, err.Error())
	default:
		h.logger.Error("preferences request failed", zap.Error(err))
		respond.InternalError(w)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/preferences", func(r chi.Router) {
		r.Get("/languages", h.ListLanguages)
		r.Get("/language", h.GetLanguage)
		r.Put("/language", h.PutLanguage)
		r.Get("/voice", h.GetVoice)
		r.Put("/voice", h.PutVoice)
		r.Get("/notifications", h.GetNotifications)
		r.Put("/notifications", h.PutNotifications)
		r.Get("/offline", h.GetOffline)
		r.Put("/offline", h.PutOffline)
	})
}
