package agent

import (
	"fmt"
	"strings"

	"arogya-setu/internal/consultation"
)

const notRecorded = "Not recorded"

func BuildChatPrompt(message string, history []string) string {
	var b strings.Builder
	b.WriteString("You are an AI medical assistant helping healthcare workers in rural areas.\n")
	b.WriteString("You should ask relevant follow-up questions about symptoms, duration, severity, and associated factors.\n")
	b.WriteString("Be professional, empathetic, and thorough. Always remind that this is for assistance only and not a replacement for professional medical judgment.\n\n")
	fmt.Fprintf(&b, "Conversation history: %s\n\n", strings.Join(history, "\n"))
	fmt.Fprintf(&b, "Patient/Healthcare worker says: %s\n\n", message)
	b.WriteString("Respond with appropriate medical questions or acknowledgments:")
	return b.String()
}

func BuildAssistantPrompt(question string) string {
	var b strings.Builder
	b.WriteString("You are a helpful medical AI assistant for healthcare workers in rural areas.\n")
	b.WriteString("Provide accurate, helpful medical information while always emphasizing that this is for educational purposes only and not a substitute for professional medical advice.\n\n")
	fmt.Fprintf(&b, "User question: %s\n\n", question)
	b.WriteString("Please provide a helpful, accurate response that:\n")
	b.WriteString("1. Answers the medical question clearly\n")
	b.WriteString("2. Uses simple, understandable language\n")
	b.WriteString("3. Includes relevant medical context\n")
	b.WriteString("4. Always reminds that professional medical consultation is important for serious concerns\n")
	b.WriteString("5. Keeps the response concise but informative (under 200 words)")
	return b.String()
}

const diagnosisShape = `{
  "primary": {
    "condition": "Primary diagnosis name",
    "confidence": 85,
    "description": "Brief explanation of the condition",
    "icd10": "ICD-10 code if applicable"
  },
  "differential": [
    {"condition": "Alternative diagnosis", "confidence": 65, "icd10": "code"},
    {"condition": "Another possibility", "confidence": 45, "icd10": "code"}
  ],
  "treatment": [
    {
      "drug": "Medication name",
      "dosage": "Amount",
      "frequency": "How often",
      "duration": "How long",
      "interactions": false,
      "warnings": ["Important warnings if any"]
    }
  ],
  "referral": {
    "urgent": false,
    "specialist": "Type of specialist if needed",
    "reason": "Why referral is needed"
  },
  "patientSummary": "Simple explanation for the patient",
  "followUp": ["Follow-up instructions"]
}`

func BuildDiagnosisPrompt(in consultation.DiagnosisInput) string {
	p, v := in.Patient, in.Vitals

	var b strings.Builder
	b.WriteString("As an AI medical diagnostic assistant, analyze the following patient data and provide a structured diagnosis:\n\n")

	b.WriteString("Patient Information:\n")
	fmt.Fprintf(&b, "- Name: %s\n", p.Name)
	fmt.Fprintf(&b, "- Age: %s\n", p.Age)
	fmt.Fprintf(&b, "- Gender: %s\n", p.Gender)
	fmt.Fprintf(&b, "- Chief Complaint: %s\n\n", p.ChiefComplaint)

	fmt.Fprintf(&b, "Symptoms: %s\n\n", strings.Join(in.Symptoms, ", "))

	b.WriteString("Vital Signs:\n")
	fmt.Fprintf(&b, "- Temperature: %s°F\n", orDefault(v.Temperature, notRecorded))
	fmt.Fprintf(&b, "- Blood Pressure: %s\n", orDefault(v.BloodPressure(), notRecorded))
	fmt.Fprintf(&b, "- Heart Rate: %s bpm\n", orDefault(v.HeartRate, notRecorded))
	fmt.Fprintf(&b, "- SpO2: %s%%\n", orDefault(v.SpO2, notRecorded))
	fmt.Fprintf(&b, "- Blood Sugar: %s mg/dL\n\n", orDefault(v.BloodSugar, notRecorded))

	b.WriteString("Medical History:\n")
	fmt.Fprintf(&b, "- Comorbidities: %s\n", orDefault(strings.Join(v.Comorbidities, ", "), "None reported"))
	fmt.Fprintf(&b, "- Allergies: %s\n", orDefault(v.Allergies, "None reported"))
	fmt.Fprintf(&b, "- Past History: %s\n\n", orDefault(v.PastHistory, "None reported"))

	b.WriteString("Please provide a JSON response with the following structure:\n")
	b.WriteString(diagnosisShape)
	b.WriteString("\n\nImportant: This is for healthcare worker assistance in rural areas. Consider common conditions in rural India, available medications, and practical treatment options.")
	return b.String()
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
