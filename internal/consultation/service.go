package consultation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"arogya-setu/internal/metrics"
)

// ChatApology replaces the assistant's reply when the chat call fails.
const ChatApology = "I apologize, but I'm having trouble processing your message. Please try again or continue with the consultation."

// AgentClient defines the AI interactions the wizard needs.
type AgentClient interface {
	ChatWithSymptoms(ctx context.Context, message string, history []string) (string, error)
	// GenerateDiagnosis always returns a complete diagnosis, falling back to rules on failure.
	GenerateDiagnosis(ctx context.Context, in DiagnosisInput) Diagnosis
}

// Notifier is told about saved consultations that need an urgent referral.
type Notifier interface {
	NotifyUrgentReferral(ctx context.Context, rec Record) error
}

type Service interface {
	CreateSession(ctx context.Context) (*Session, error)
	GetSession(ctx context.Context, id uuid.UUID) (*Session, error)
	UpdatePatient(ctx context.Context, id uuid.UUID, p PatientInfo) (*Session, error)
	UpdateVitals(ctx context.Context, id uuid.UUID, v Vitals) (*Session, error)
	SendMessage(ctx context.Context, id uuid.UUID, text string) (*Session, error)
	AddSymptom(ctx context.Context, id uuid.UUID, name string) (*Session, error)
	Advance(ctx context.Context, id uuid.UUID) (*Session, error)
	Back(ctx context.Context, id uuid.UUID) (*Session, error)
	GenerateDiagnosis(ctx context.Context, id uuid.UUID) error
	SaveConsultation(ctx context.Context, id uuid.UUID) (*Record, error)
}

type service struct {
	store    SessionStore
	repo     Repository
	ai       AgentClient
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *zap.Logger

	// mu serialises load-modify-save on sessions; it is never held across an AI call.
	mu         sync.Mutex
	chatting   map[uuid.UUID]bool
	generating map[uuid.UUID]bool

	now   func() time.Time
	spawn func(func())
}

func NewService(store SessionStore, repo Repository, ai AgentClient, notifier Notifier, m *metrics.Metrics, logger *zap.Logger) Service {
	return &service{
		store:    store,
		repo:     repo,
		ai:       ai,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
		chatting:   make(map[uuid.UUID]bool),
		generating: make(map[uuid.UUID]bool),
		now:        time.Now,
		spawn:      func(f func()) { go f() },
	}
}

func (s *service) CreateSession(ctx context.Context) (*Session, error) {
	sess := NewSession(s.now())
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	s.metrics.SessionCreated()
	return sess, nil
}

func (s *service) GetSession(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.store.Get(ctx, id)
}

// update runs fn against the stored session under the service lock and saves the result.
func (s *service) update(ctx context.Context, id uuid.UUID, fn func(*Session) error) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = s.now()
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// release clears an in-flight flag set inside update.
func (s *service) release(flags map[uuid.UUID]bool, id uuid.UUID) {
	s.mu.Lock()
	delete(flags, id)
	s.mu.Unlock()
}

func (s *service) UpdatePatient(ctx context.Context, id uuid.UUID, p PatientInfo) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Patient = p
		return nil
	})
}

func (s *service) UpdateVitals(ctx context.Context, id uuid.UUID, v Vitals) (*Session, error) {
	comorbidities, err := normalizeComorbidities(v.Comorbidities)
	if err != nil {
		return nil, err
	}
	v.Comorbidities = comorbidities
	return s.update(ctx, id, func(sess *Session) error {
		sess.Vitals = v
		return nil
	})
}

func (s *service) AddSymptom(ctx context.Context, id uuid.UUID, name string) (*Session, error) {
	symptom, ok := CanonicalSymptom(name)
	if !ok {
		return nil, fmt.Errorf("%w: unknown symptom %q", ErrValidation, name)
	}
	return s.update(ctx, id, func(sess *Session) error {
		sess.Symptoms = appendUnique(sess.Symptoms, symptom)
		return nil
	})
}

// SendMessage records the user's message, extracts symptoms, and appends the
// assistant's reply. Only one message per session may be in flight.
func (s *service) SendMessage(ctx context.Context, id uuid.UUID, text string) (*Session, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, fmt.Errorf("%w: message is empty", ErrValidation)
	}

	var history []string
	claimed := false
	_, err := s.update(ctx, id, func(sess *Session) error {
		if s.chatting[id] {
			return ErrBusy
		}
		s.chatting[id] = true
		claimed = true
		history = sess.history()
		sess.appendMessage(SenderUser, text, s.now())
		sess.Symptoms = appendUnique(sess.Symptoms, ExtractSymptoms(text)...)
		return nil
	})
	if claimed {
		defer s.release(s.chatting, id)
	}
	if err != nil {
		return nil, err
	}

	reply, chatErr := s.ai.ChatWithSymptoms(ctx, text, history)
	if chatErr != nil {
		s.logger.Warn("symptom chat failed, sending apology",
			zap.String("consultation_id", id.String()), zap.Error(chatErr))
		reply = ChatApology
	}

	return s.update(ctx, id, func(sess *Session) error {
		sess.appendMessage(SenderAssistant, reply, s.now())
		return nil
	})
}

func (s *service) Advance(ctx context.Context, id uuid.UUID) (*Session, error) {
	sess, err := s.update(ctx, id, func(sess *Session) error {
		_, err := sess.Advance()
		return err
	})
	if err != nil {
		return nil, err
	}

	if sess.NeedsDiagnosis() {
		s.spawn(func() {
			// Detached: generation outlives the request and is never cancelled.
			if err := s.GenerateDiagnosis(context.Background(), id); err != nil {
				s.logger.Error("diagnosis generation failed",
					zap.String("consultation_id", id.String()), zap.Error(err))
			}
		})
	}
	return sess, nil
}

func (s *service) Back(ctx context.Context, id uuid.UUID) (*Session, error) {
	return s.update(ctx, id, func(sess *Session) error {
		sess.Back()
		return nil
	})
}

// GenerateDiagnosis produces the session's diagnosis at most once. It is a
// no-op unless the session is on the diagnosis step with no diagnosis and no
// generation already running in this process.
func (s *service) GenerateDiagnosis(ctx context.Context, id uuid.UUID) error {
	var input DiagnosisInput
	started := false
	_, err := s.update(ctx, id, func(sess *Session) error {
		if !sess.NeedsDiagnosis() || s.generating[id] {
			return nil
		}
		s.generating[id] = true
		started = true
		sess.Generating = true
		input = sess.DiagnosisInput()
		return nil
	})
	if started {
		defer s.release(s.generating, id)
	}
	if err != nil || !started {
		return err
	}

	diagnosis := s.ai.GenerateDiagnosis(ctx, input)
	s.metrics.DiagnosisProduced(string(diagnosis.Source))
	s.logger.Info("diagnosis generated",
		zap.String("consultation_id", id.String()),
		zap.String("source", string(diagnosis.Source)),
		zap.String("condition", diagnosis.Primary.Condition))

	store := func(sess *Session) error {
		if sess.Diagnosis == nil {
			sess.Diagnosis = &diagnosis
		}
		sess.Generating = false
		return nil
	}
	if _, err := s.update(ctx, id, store); err != nil {
		s.logger.Warn("storing diagnosis failed, retrying once",
			zap.String("consultation_id", id.String()), zap.Error(err))
		if _, retryErr := s.update(context.Background(), id, store); retryErr != nil {
			return fmt.Errorf("store diagnosis: %w", retryErr)
		}
	}
	return nil
}

// SaveConsultation appends the finished consultation to the record store.
// Every call appends a new record.
func (s *service) SaveConsultation(ctx context.Context, id uuid.UUID) (*Record, error) {
	s.mu.Lock()
	sess, err := s.store.Get(ctx, id)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if sess.Diagnosis == nil {
		return nil, ErrNoDiagnosis
	}

	rec := &Record{
		ID:        uuid.New(),
		Timestamp: s.now(),
		Patient:   sess.Patient,
		Symptoms:  append([]string{}, sess.Symptoms...),
		Vitals:    sess.Vitals,
		Diagnosis: *sess.Diagnosis,
		Status:    StatusCompleted,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("save consultation: %w", err)
	}
	s.metrics.ConsultationSaved()

	if rec.Diagnosis.Referral.Urgent && s.notifier != nil {
		if err := s.notifier.NotifyUrgentReferral(ctx, *rec); err != nil {
			s.logger.Warn("urgent referral alert failed",
				zap.String("record_id", rec.ID.String()), zap.Error(err))
		}
	}
	return rec, nil
}

func normalizeComorbidities(in []string) ([]string, error) {
	out := []string{}
	for _, c := range in {
		matched := ""
		for _, opt := range ComorbidityOptions {
			if strings.EqualFold(opt, strings.TrimSpace(c)) {
				matched = opt
				break
			}
		}
		if matched == "" {
			return nil, fmt.Errorf("%w: unknown comorbidity %q", ErrValidation, c)
		}
		out = appendUnique(out, matched)
	}
	return out, nil
}
