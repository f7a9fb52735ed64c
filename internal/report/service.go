// Package report alerts the on-call doctor about consultations that end in an
// urgent referral.
package report

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"arogya-setu/internal/consultation"
	"arogya-setu/internal/metrics"
	"arogya-setu/internal/preferences"
)

type TelegramClient interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

type NotificationSettings interface {
	Notifications(ctx context.Context) (preferences.Notifications, error)
}

type Service struct {
	tgClient     TelegramClient
	doctorChatID int64
	prefs        NotificationSettings
	metrics      *metrics.Metrics
	logger       *zap.Logger
}

var _ consultation.Notifier = (*Service)(nil)

// NewService builds the alerter. With a nil client or a zero chat id every
// alert is skipped.
func NewService(tg TelegramClient, doctorChatID int64, prefs NotificationSettings, m *metrics.Metrics, logger *zap.Logger) *Service {
	return &Service{
		tgClient:     tg,
		doctorChatID: doctorChatID,
		prefs:        prefs,
		metrics:      m,
		logger:       logger,
	}
}

func (s *Service) Enabled() bool {
	return s.tgClient != nil && s.doctorChatID != 0
}

// NotifyUrgentReferral sends the alert unless alerts are unconfigured or the
// emergency-alerts preference is off. A preference lookup failure does not
// suppress the alert.
func (s *Service) NotifyUrgentReferral(ctx context.Context, rec consultation.Record) error {
	if !s.Enabled() {
		s.logger.Debug("referral alert skipped, telegram not configured", zap.String("record_id", rec.ID.String()))
		return nil
	}

	if s.prefs != nil {
		n, err := s.prefs.Notifications(ctx)
		switch {
		case err != nil:
			s.logger.Warn("could not read notification preferences, sending alert anyway", zap.Error(err))
		case !n.EmergencyAlerts:
			s.logger.Info("referral alert suppressed by preferences", zap.String("record_id", rec.ID.String()))
			return nil
		}
	}

	err := s.tgClient.SendMessage(ctx, s.doctorChatID, BuildReferralAlert(rec))
	s.metrics.AlertSent(err)
	if err != nil {
		return fmt.Errorf("send referral alert: %w", err)
	}
	s.logger.Info("referral alert sent",
		zap.String("record_id", rec.ID.String()),
		zap.Int64("chat_id", s.doctorChatID))
	return nil
}

func BuildReferralAlert(rec consultation.Record) string {
	p, d := rec.Patient, rec.Diagnosis

	var b strings.Builder
	b.WriteString("URGENT REFERRAL\n\n")
	fmt.Fprintf(&b, "Date: %s\n", rec.Timestamp.Format("02.01.2006 15:04"))
	fmt.Fprintf(&b, "Consultation: %s\n", rec.ID)
	fmt.Fprintf(&b, "Patient: %s, %s, %s\n", orDash(p.Name), orDash(p.Age), orDash(p.Gender))
	if p.PatientID != "" {
		fmt.Fprintf(&b, "Patient ID: %s\n", p.PatientID)
	}
	if p.Location != "" {
		fmt.Fprintf(&b, "Location: %s\n", p.Location)
	}
	if len(rec.Symptoms) > 0 {
		fmt.Fprintf(&b, "Symptoms: %s\n", strings.Join(rec.Symptoms, ", "))
	}
	if bp := rec.Vitals.BloodPressure(); bp != "" {
		fmt.Fprintf(&b, "Blood pressure: %s\n", bp)
	}
	fmt.Fprintf(&b, "\nDiagnosis: %s (%.0f%%)\n", d.Primary.Condition, d.Primary.Confidence)
	if d.Referral.Specialist != "" {
		fmt.Fprintf(&b, "Refer to: %s\n", d.Referral.Specialist)
	}
	if d.Referral.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", d.Referral.Reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
