package consultation

import "strings"

// CommonSymptoms is the vocabulary that chat messages are scanned against.
var CommonSymptoms = []string{
	"Fever",
	"Headache",
	"Cough",
	"Shortness of breath",
	"Chest pain",
	"Abdominal pain",
	"Nausea",
	"Vomiting",
	"Diarrhea",
	"Fatigue",
	"Dizziness",
	"Joint pain",
	"Skin rash",
	"Sore throat",
}

// ExtractSymptoms returns, in vocabulary order, every common symptom that
// appears in text as a case-insensitive substring.
func ExtractSymptoms(text string) []string {
	lower := strings.ToLower(text)
	var found []string
	for _, s := range CommonSymptoms {
		if strings.Contains(lower, strings.ToLower(s)) {
			found = append(found, s)
		}
	}
	return found
}

// CanonicalSymptom maps a user-supplied name onto the vocabulary spelling.
func CanonicalSymptom(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, s := range CommonSymptoms {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

// appendUnique appends the names not already present, keeping first-seen order.
func appendUnique(set []string, names ...string) []string {
	for _, n := range names {
		dup := false
		for _, have := range set {
			if have == n {
				dup = true
				break
			}
		}
		if !dup {
			set = append(set, n)
		}
	}
	return set
}
