package consultation

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
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

type MessageRequest struct {
	Text string `json:"text"`
}

type SymptomRequest struct {
	Symptom string `json:"symptom"`
}

type VocabularyResponse struct {
	Symptoms      []string `json:"symptoms"`
	Comorbidities []string `json:"comorbidities"`
}

func (h *Handler) Vocabulary(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, VocabularyResponse{
		Symptoms:      CommonSymptoms,
		Comorbidities: ComorbidityOptions,
	})
}

func (h *Handler) CreateConsultation(w http.ResponseWriter, r *http.Request) {
	sess, err := h.svc.CreateSession(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, sess)
}

func (h *Handler) GetConsultation(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) UpdatePatient(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req PatientInfo
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	sess, err := h.svc.UpdatePatient(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) UpdateVitals(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req Vitals
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	sess, err := h.svc.UpdateVitals(r.Context(), id, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req MessageRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	sess, err := h.svc.SendMessage(r.Context(), id, req.Text)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) AddSymptom(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	var req SymptomRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.ValidationError(w, err.Error())
		return
	}
	sess, err := h.svc.AddSymptom(r.Context(), id, req.Symptom)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) Advance(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Advance(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	sess, err := h.svc.Back(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, sess)
}

func (h *Handler) Save(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	rec, err := h.svc.SaveConsultation(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.ValidationError(w, "Invalid consultation ID")
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		respond.NotFound(w, "consultation")
	case errors.Is(err, ErrStepGuard), errors.Is(err, ErrValidation):
		respond.ValidationError(w, err.Error())
	case errors.Is(err, ErrBusy), errors.Is(err, ErrNoDiagnosis):
		respond.Conflict(w, err.Error())
	default:
		h.logger.Error("consultation request failed", zap.Error(err))
		respond.InternalError(w)
	}
}

func RegisterRoutes(r chi.Router, h *Handler) {
	r.Route("/consultations", func(r chi.Router) {
		r.Post("/", h.CreateConsultation)
		r.Get("/symptoms", h.Vocabulary)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetConsultation)
			r.Put("/patient", h.UpdatePatient)
			r.Put("/vitals", h.UpdateVitals)
			r.Post("/messages", h.SendMessage)
			r.Post("/symptoms", h.AddSymptom)
			r.Post("/advance", h.Advance)
			r.Post("/back", h.Back)
			r.Post("/save", h.Save)
		})
	})
}
