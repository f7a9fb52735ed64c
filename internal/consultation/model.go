package consultation

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Step is a position in the consultation wizard.
type Step int

const (
	StepPatientInfo Step = iota + 1
	StepSymptoms
	StepVitals
	StepDiagnosis
)

func (s Step) String() string {
	switch s {
	case StepPatientInfo:
		return "patient_info"
	case StepSymptoms:
		return "symptoms"
	case StepVitals:
		return "vitals"
	case StepDiagnosis:
		return "diagnosis"
	default:
		return "unknown"
	}
}

type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
)

// Message is one chat transcript entry. Messages are never edited once appended.
type Message struct {
	ID        string    `json:"id"`
	Sender    Sender    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type PatientInfo struct {
	Name           string `json:"name"`
	Age            string `json:"age"`
	Gender         string `json:"gender"`
	Location       string `json:"location"`
	PatientID      string `json:"patientId"`
	ChiefComplaint string `json:"chiefComplaint"`
}

type Vitals struct {
	Temperature            string   `json:"temperature"`
	BloodPressureSystolic  string   `json:"bloodPressureSystolic"`
	BloodPressureDiastolic string   `json:"bloodPressureDiastolic"`
	HeartRate              string   `json:"heartRate"`
	SpO2                   string   `json:"spO2"`
	BloodSugar             string   `json:"bloodSugar"`
	Comorbidities          []string `json:"comorbidities"`
	Allergies              string   `json:"allergies"`
	PastHistory            string   `json:"pastHistory"`
}

// BloodPressure renders "systolic/diastolic", or "" unless both are recorded.
func (v Vitals) BloodPressure() string {
	sys := strings.TrimSpace(v.BloodPressureSystolic)
	dia := strings.TrimSpace(v.BloodPressureDiastolic)
	if sys == "" || dia == "" {
		return ""
	}
	return sys + "/" + dia
}

// ComorbidityOptions are the selectable comorbidities.
var ComorbidityOptions = []string{
	"Diabetes",
	"Hypertension",
	"Asthma",
	"Heart Disease",
	"Kidney Disease",
	"Liver Disease",
	"Thyroid Disorder",
	"Arthritis",
}

type DiagnosisSource string

const (
	SourceAI       DiagnosisSource = "ai"
	SourceFallback DiagnosisSource = "fallback"
)

type PrimaryCondition struct {
	Condition   string  `json:"condition"`
	Confidence  float64 `json:"confidence"`
	Description string  `json:"description"`
	ICD10       string  `json:"icd10,omitempty"`
}

type DifferentialDiagnosis struct {
	Condition  string  `json:"condition"`
	Confidence float64 `json:"confidence"`
	ICD10      string  `json:"icd10,omitempty"`
}

type Treatment struct {
	Drug         string   `json:"drug"`
	Dosage       string   `json:"dosage"`
	Frequency    string   `json:"frequency"`
	Duration     string   `json:"duration"`
	Interactions bool     `json:"interactions"`
	Warnings     []string `json:"warnings,omitempty"`
}

type Referral struct {
	Urgent     bool   `json:"urgent"`
	Specialist string `json:"specialist,omitempty"`
	Reason     string `json:"reason,omitempty"`
}

type Diagnosis struct {
	Primary        PrimaryCondition        `json:"primary"`
	Differential   []DifferentialDiagnosis `json:"differential"`
	Treatment      []Treatment             `json:"treatment"`
	Referral       Referral                `json:"referral"`
	PatientSummary string                  `json:"patientSummary"`
	FollowUp       []string                `json:"followUp"`
	Source         DiagnosisSource         `json:"source,omitempty"`
}

// DiagnosisInput is everything the diagnosis prompt is built from.
type DiagnosisInput struct {
	Patient  PatientInfo
	Symptoms []string
	Vitals   Vitals
}

// Session is the state of one wizard run.
type Session struct {
	ID         uuid.UUID   `json:"id"`
	Step       Step        `json:"step"`
	Patient    PatientInfo `json:"patient"`
	Vitals     Vitals      `json:"vitals"`
	Transcript []Message   `json:"transcript"`
	Symptoms   []string    `json:"symptoms"`
	Diagnosis  *Diagnosis  `json:"diagnosis,omitempty"`
	Generating bool        `json:"generating"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// Record is a completed consultation as persisted.
type Record struct {
	ID        uuid.UUID   `json:"id"`
	Timestamp time.Time   `json:"timestamp"`
	Patient   PatientInfo `json:"patient"`
	Symptoms  []string    `json:"symptoms"`
	Vitals    Vitals      `json:"vitals"`
	Diagnosis Diagnosis   `json:"diagnosis"`
	Status    string      `json:"status"`
}

const StatusCompleted = "completed"
