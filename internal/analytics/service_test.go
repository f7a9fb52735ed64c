package analytics

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arogya-setu/internal/consultation"
)

// Thursday.
var now = time.Date(2026, 1, 15, 18, 0, 0, 0, time.UTC)

func rec(name string, at time.Time, condition string, urgent bool, source consultation.DiagnosisSource) consultation.Record {
	return consultation.Record{
		Timestamp: at,
		Patient:   consultation.PatientInfo{Name: name},
		Diagnosis: consultation.Diagnosis{
			Primary:  consultation.PrimaryCondition{Condition: condition},
			Referral: consultation.Referral{Urgent: urgent},
			Source:   source,
		},
	}
}

func TestSummarize(t *testing.T) {
	recs := []consultation.Record{
		rec("A", now.Add(-1*time.Hour), "Hypertension", true, consultation.SourceAI),
		rec("B", now.Add(-2*time.Hour), "Hypertension", false, consultation.SourceFallback),
		rec("A", now.Add(-26*time.Hour), "Viral Syndrome", false, consultation.SourceAI),
		rec("C", now.AddDate(0, 0, -10), "Migraine", false, consultation.SourceAI),
	}

	o := Summarize(recs, now)

	assert.Equal(t, 4, o.TotalConsultations)
	assert.Equal(t, 3, o.UniquePatients)
	assert.Equal(t, 25.0, o.ReferralRate)
	assert.Equal(t, 75.0, o.AIDiagnosisRate)

	require.Len(t, o.WeeklyActivity, 7)
	assert.Equal(t, "Fri", o.WeeklyActivity[0].Day)
	last := o.WeeklyActivity[6]
	assert.Equal(t, "Thu", last.Day)
	assert.Equal(t, "2026-01-15", last.Date)
	assert.Equal(t, 2, last.Consultations)
	assert.Equal(t, 2, last.Patients)
	assert.Equal(t, 1, o.WeeklyActivity[5].Consultations)

	require.Len(t, o.TopConditions, 3)
	assert.Equal(t, ConditionCount{Condition: "Hypertension", Cases: 2, Percentage: 50}, o.TopConditions[0])
	assert.Equal(t, "Migraine", o.TopConditions[1].Condition, "ties sort by name")
}

func TestSummarize_Empty(t *testing.T) {
	o := Summarize(nil, now)
	assert.Zero(t, o.TotalConsultations)
	assert.Zero(t, o.ReferralRate)
	assert.Len(t, o.WeeklyActivity, 7)
	assert.Empty(t, o.TopConditions)
}

func TestTop_CapsAtFive(t *testing.T) {
	got := top(map[string]int{"a": 1, "b": 2, "c": 3, "d": 4, "e": 5, "f": 6}, 21)
	require.Len(t, got, 5)
	assert.Equal(t, "f", got[0].Condition)
	assert.Equal(t, 28.6, got[0].Percentage)
}

func TestHandler_Overview(t *testing.T) {
	repo := consultation.NewMemoryRepository()
	r1 := rec("A", time.Now(), "Hypertension", false, consultation.SourceAI)
	require.NoError(t, repo.Append(context.Background(), &r1))

	r := chi.NewRouter()
	RegisterRoutes(r, NewHandler(NewService(repo), zap.NewNop()))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/analytics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var o Overview
	require.NoError(t, json.NewDecoder(w.Body).Decode(&o))
	assert.Equal(t, 1, o.TotalConsultations)
	assert.Equal(t, 100.0, o.AIDiagnosisRate)
}
