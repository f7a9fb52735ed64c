package report

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"arogya-setu/internal/consultation"
	"arogya-setu/internal/metrics"
	"arogya-setu/internal/preferences"
	"arogya-setu/internal/storage"
)

type sentMessage struct {
	chatID int64
	text   string
}

type fakeTelegram struct {
	sent []sentMessage
	err  error
}

func (f *fakeTelegram) SendMessage(ctx context.Context, chatID int64, text string) error {
	f.sent = append(f.sent, sentMessage{chatID: chatID, text: text})
	return f.err
}

func urgentRecord() consultation.Record {
	return consultation.Record{
		ID:        uuid.MustParse("6f1c2a9e-0000-4000-8000-000000000001"),
		Timestamp: time.Date(2026, 1, 15, 14, 30, 0, 0, time.UTC),
		Patient:   consultation.PatientInfo{Name: "Ravi", Age: "60", Gender: "Male", Location: "Sitapur"},
		Symptoms:  []string{"Chest pain", "Dizziness"},
		Vitals:    consultation.Vitals{BloodPressureSystolic: "190", BloodPressureDiastolic: "120"},
		Diagnosis: consultation.Diagnosis{
			Primary:  consultation.PrimaryCondition{Condition: "Hypertensive Crisis", Confidence: 82},
			Referral: consultation.Referral{Urgent: true, Specialist: "Cardiologist", Reason: "BP 190/120 with chest pain"},
		},
	}
}

func TestBuildReferralAlert(t *testing.T) {
	text := BuildReferralAlert(urgentRecord())

	assert.Contains(t, text, "URGENT REFERRAL")
	assert.Contains(t, text, "Date: 15.01.2026 14:30")
	assert.Contains(t, text, "Patient: Ravi, 60, Male")
	assert.Contains(t, text, "Symptoms: Chest pain, Dizziness")
	assert.Contains(t, text, "Blood pressure: 190/120")
	assert.Contains(t, text, "Diagnosis: Hypertensive Crisis (82%)")
	assert.Contains(t, text, "Refer to: Cardiologist")
	assert.NotContains(t, text, "Patient ID")
}

func TestNotifyUrgentReferral_Sends(t *testing.T) {
	reg := prometheus.NewRegistry()
	tg := &fakeTelegram{}
	svc := NewService(tg, 42, nil, metrics.New(reg), zap.NewNop())

	require.NoError(t, svc.NotifyUrgentReferral(context.Background(), urgentRecord()))
	require.Len(t, tg.sent, 1)
	assert.Equal(t, int64(42), tg.sent[0].chatID)

	count, err := testutil.GatherAndCount(reg, "arogya_referral_alerts_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNotifyUrgentReferral_Disabled(t *testing.T) {
	tg := &fakeTelegram{}

	svc := NewService(tg, 0, nil, nil, zap.NewNop())
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.NotifyUrgentReferral(context.Background(), urgentRecord()))

	svc = NewService(nil, 42, nil, nil, zap.NewNop())
	assert.False(t, svc.Enabled())
	require.NoError(t, svc.NotifyUrgentReferral(context.Background(), urgentRecord()))

	assert.Empty(t, tg.sent)
}

func TestNotifyUrgentReferral_RespectsPreference(t *testing.T) {
	ctx := context.Background()
	prefs := preferences.NewService(storage.NewMemoryKV())
	_, err := prefs.SetNotifications(ctx, preferences.Notifications{EmergencyAlerts: false})
	require.NoError(t, err)

	tg := &fakeTelegram{}
	svc := NewService(tg, 42, prefs, nil, zap.NewNop())
	require.NoError(t, svc.NotifyUrgentReferral(ctx, urgentRecord()))
	assert.Empty(t, tg.sent)

	_, err = prefs.SetNotifications(ctx, preferences.DefaultNotifications())
	require.NoError(t, err)
	require.NoError(t, svc.NotifyUrgentReferral(ctx, urgentRecord()))
	assert.Len(t, tg.sent, 1)
}

func TestNotifyUrgentReferral_SendFailure(t *testing.T) {
	svc := NewService(&fakeTelegram{err: errors.New("403 Forbidden")}, 42, nil, nil, zap.NewNop())
	assert.Error(t, svc.NotifyUrgentReferral(context.Background(), urgentRecord()))
}
