package agent

import (
	"strconv"
	"strings"

	"arogya-setu/internal/consultation"
)

const hypertensionSystolic = 140

// FallbackDiagnosis is the deterministic diagnosis used whenever the endpoint
// reply cannot be used. Rules are checked in order; the first match wins.
func FallbackDiagnosis(in consultation.DiagnosisInput) consultation.Diagnosis {
	symptoms := strings.ToLower(strings.Join(in.Symptoms, " "))
	has := func(s string) bool { return strings.Contains(symptoms, s) }

	primary := consultation.PrimaryCondition{
		Condition:   "General Malaise",
		Confidence:  60,
		Description: "Based on the symptoms presented, further evaluation is recommended.",
	}
	switch {
	case leadingInt(in.Vitals.BloodPressureSystolic) > hypertensionSystolic:
		primary = consultation.PrimaryCondition{
			Condition:   "Hypertension",
			Confidence:  85,
			Description: "Elevated blood pressure requiring management",
		}
	case has("fever") && has("cough"):
		primary = consultation.PrimaryCondition{
			Condition:   "Upper Respiratory Tract Infection",
			Confidence:  75,
			Description: "Viral or bacterial infection of the upper respiratory system",
		}
	case has("headache") && has("fever"):
		primary = consultation.PrimaryCondition{
			Condition:   "Viral Syndrome",
			Confidence:  70,
			Description: "Common viral illness with systemic symptoms",
		}
	}

	return consultation.Diagnosis{
		Primary: primary,
		Differential: []consultation.DifferentialDiagnosis{
			{Condition: "Viral Infection", Confidence: 60},
			{Condition: "Stress-related Symptoms", Confidence: 40},
		},
		Treatment: []consultation.Treatment{{
			Drug:      "Paracetamol",
			Dosage:    "500mg",
			Frequency: "Every 6 hours",
			Duration:  "3-5 days",
		}},
		Referral: consultation.Referral{
			Urgent:     false,
			Specialist: "General Physician",
			Reason:     "For comprehensive evaluation if symptoms persist",
		},
		PatientSummary: "You have symptoms that suggest a common illness. Take the prescribed medication and rest. See a doctor if symptoms worsen.",
		FollowUp: []string{
			"Return if symptoms worsen",
			"Complete the prescribed medication course",
			"Maintain adequate hydration and rest",
		},
		Source: consultation.SourceFallback,
	}
}

// leadingInt parses the leading decimal digits of s, so "150mmHg" is 150.
// It returns 0 when s does not start with a digit.
func leadingInt(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}
