package consultation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

const greeting = "Hello! I'm your AI diagnostic assistant. Please describe the patient's symptoms in detail. What brings them in today?"

// minTranscriptForVitals counts the greeting plus one user turn and its reply.
const minTranscriptForVitals = 3

// NewSession starts a wizard at the patient-info step with the greeting in the transcript.
func NewSession(now time.Time) *Session {
	return &Session{
		ID:   uuid.New(),
		Step: StepPatientInfo,
		Transcript: []Message{{
			ID:        uuid.NewString(),
			Sender:    SenderAssistant,
			Text:      greeting,
			Timestamp: now,
		}},
		Symptoms:  []string{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CanAdvance reports why the wizard may not leave its current step. Guards
// are cumulative: leaving step N re-checks every guard of the steps before it.
func (s *Session) CanAdvance() error {
	if s.Step >= StepDiagnosis {
		return fmt.Errorf("%w: already at the final step", ErrStepGuard)
	}
	if missing := s.missingPatientFields(); len(missing) > 0 {
		return fmt.Errorf("%w: patient %s required", ErrStepGuard, strings.Join(missing, ", "))
	}
	if s.Step >= StepSymptoms && len(s.Transcript) < minTranscriptForVitals {
		return fmt.Errorf("%w: at least one symptom exchange with the assistant is required", ErrStepGuard)
	}
	return nil
}

// Advance moves one step forward and reports whether the diagnosis step was entered.
func (s *Session) Advance() (bool, error) {
	if err := s.CanAdvance(); err != nil {
		return false, err
	}
	s.Step++
	return s.Step == StepDiagnosis, nil
}

// Back moves one step backward. Nothing already generated is discarded.
func (s *Session) Back() {
	if s.Step > StepPatientInfo {
		s.Step--
	}
}

// NeedsDiagnosis is true on the diagnosis step while no diagnosis exists.
// Generating is only a display flag; the in-flight guard lives in the service.
func (s *Session) NeedsDiagnosis() bool {
	return s.Step == StepDiagnosis && s.Diagnosis == nil
}

func (s *Session) DiagnosisInput() DiagnosisInput {
	return DiagnosisInput{
		Patient:  s.Patient,
		Symptoms: append([]string(nil), s.Symptoms...),
		Vitals:   s.Vitals,
	}
}

// appendMessage records a transcript entry and returns it.
func (s *Session) appendMessage(sender Sender, text string, now time.Time) Message {
	msg := Message{
		ID:        uuid.NewString(),
		Sender:    sender,
		Text:      text,
		Timestamp: now,
	}
	s.Transcript = append(s.Transcript, msg)
	return msg
}

// history renders the transcript as "sender: text" lines.
func (s *Session) history() []string {
	lines := make([]string, 0, len(s.Transcript))
	for _, m := range s.Transcript {
		lines = append(lines, fmt.Sprintf("%s: %s", m.Sender, m.Text))
	}
	return lines
}

func (s *Session) missingPatientFields() []string {
	var missing []string
	if strings.TrimSpace(s.Patient.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(s.Patient.Age) == "" {
		missing = append(missing, "age")
	}
	if strings.TrimSpace(s.Patient.Gender) == "" {
		missing = append(missing, "gender")
	}
	return missing
}
