package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"arogya-setu/internal/consultation"
)

var ErrMalformedDiagnosis = errors.New("agent: reply does not contain a usable diagnosis")

// ParseDiagnosis extracts the outermost brace-delimited object from a free
// text reply and decodes it as a diagnosis.
func ParseDiagnosis(reply string) (consultation.Diagnosis, error) {
	start := strings.Index(reply, "{")
	end := strings.LastIndex(reply, "}")
	if start < 0 || end <= start {
		return consultation.Diagnosis{}, fmt.Errorf("%w: no JSON object found", ErrMalformedDiagnosis)
	}

	var d consultation.Diagnosis
	if err := json.Unmarshal([]byte(reply[start:end+1]), &d); err != nil {
		return consultation.Diagnosis{}, fmt.Errorf("%w: %v", ErrMalformedDiagnosis, err)
	}

	if strings.TrimSpace(d.Primary.Condition) == "" {
		return consultation.Diagnosis{}, fmt.Errorf("%w: missing primary condition", ErrMalformedDiagnosis)
	}
	if !validConfidence(d.Primary.Confidence) {
		return consultation.Diagnosis{}, fmt.Errorf("%w: primary confidence %v out of range", ErrMalformedDiagnosis, d.Primary.Confidence)
	}
	for _, dd := range d.Differential {
		if !validConfidence(dd.Confidence) {
			return consultation.Diagnosis{}, fmt.Errorf("%w: differential confidence %v out of range", ErrMalformedDiagnosis, dd.Confidence)
		}
	}

	if d.Differential == nil {
		d.Differential = []consultation.DifferentialDiagnosis{}
	}
	if d.Treatment == nil {
		d.Treatment = []consultation.Treatment{}
	}
	if d.FollowUp == nil {
		d.FollowUp = []string{}
	}
	d.Source = consultation.SourceAI
	return d, nil
}

func validConfidence(c float64) bool {
	return c >= 0 && c <= 100
}
