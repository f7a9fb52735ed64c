package consultation

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arogya-setu/internal/platform/respond"
)

func newTestRouter(agent *fakeAgent) http.Handler {
	svc, _ := newTestService(agent, nil)
	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(svc, zap.NewNop()))
	return r
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) Session {
	t.Helper()
	var s Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&s))
	return s
}

func TestHandler_WizardFlow(t *testing.T) {
	router := newTestRouter(&fakeAgent{reply: "Any cough?", diagnosis: hypertensionDiagnosis()})

	rec := doJSON(t, router, http.MethodPost, "/consultations/", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	sess := decodeSession(t, rec)
	base := "/consultations/" + sess.ID.String()

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPut, base+"/patient", completePatient())
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, StepSymptoms, decodeSession(t, rec).Step)

	rec = doJSON(t, router, http.MethodPost, base+"/messages", MessageRequest{Text: "high fever"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"Fever"}, decodeSession(t, rec).Symptoms)

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPut, base+"/vitals", Vitals{BloodPressureSystolic: "190", BloodPressureDiastolic: "120"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/advance", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, base, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decodeSession(t, rec)
	require.NotNil(t, got.Diagnosis)
	assert.Equal(t, "Hypertension", got.Diagnosis.Primary.Condition)

	rec = doJSON(t, router, http.MethodPost, base+"/save", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var saved Record
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, StatusCompleted, saved.Status)
}

func TestHandler_Errors(t *testing.T) {
	router := newTestRouter(&fakeAgent{})

	rec := doJSON(t, router, http.MethodGet, "/consultations/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/consultations/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	var body respond.ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, respond.CodeNotFound, body.Code)

	rec = doJSON(t, router, http.MethodPost, "/consultations/", nil)
	sess := decodeSession(t, rec)
	base := "/consultations/" + sess.ID.String()

	rec = doJSON(t, router, http.MethodPost, base+"/save", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/messages", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPost, base+"/symptoms", SymptomRequest{Symptom: "hiccups"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandler_Vocabulary(t *testing.T) {
	router := newTestRouter(&fakeAgent{})

	rec := doJSON(t, router, http.MethodGet, "/consultations/symptoms", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var body VocabularyResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Len(t, body.Symptoms, len(CommonSymptoms))
	assert.Contains(t, body.Comorbidities, "Diabetes")
}
