// Package records groups saved consultations by patient.
package records

import (
	"context"
	"sort"
	"strings"
	"time"

	"arogya-setu/internal/consultation"
)

const (
	StatusActive    = "active"
	StatusFollowUp  = "follow-up"
	StatusReferred  = "referred"
	StatusRecovered = "recovered"

	StatusAll = "all"
)

var Statuses = []string{StatusActive, StatusFollowUp, StatusReferred, StatusRecovered}

type PatientRecord struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Age           string                `json:"age"`
	Gender        string                `json:"gender"`
	Location      string                `json:"location"`
	LastVisit     time.Time             `json:"lastVisit"`
	LastDiagnosis string                `json:"lastDiagnosis"`
	Status        string                `json:"status"`
	Consultations []consultation.Record `json:"consultations"`
}

type Listing struct {
	Patients []PatientRecord `json:"patients"`
	// Total counts every patient, before filtering.
	Total  int            `json:"total"`
	Counts map[string]int `json:"counts"`
}

type Service interface {
	List(ctx context.Context, query, status string) (*Listing, error)
}

type service struct {
	repo consultation.Repository
}

func NewService(repo consultation.Repository) Service {
	return &service{repo: repo}
}

// PatientKey identifies a patient across consultations: the patient id when
// recorded, otherwise the lower-cased name.
func PatientKey(p consultation.PatientInfo) string {
	if id := strings.TrimSpace(p.PatientID); id != "" {
		return id
	}
	return strings.ToLower(strings.TrimSpace(p.Name))
}

func (s *service) List(ctx context.Context, query, status string) (*Listing, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	patients := Group(recs)

	counts := make(map[string]int, len(Statuses))
	for _, st := range Statuses {
		counts[st] = 0
	}
	for _, p := range patients {
		counts[p.Status]++
	}

	q := strings.ToLower(strings.TrimSpace(query))
	filtered := []PatientRecord{}
	for _, p := range patients {
		if status != "" && status != StatusAll && p.Status != status {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(p.Name), q) && !strings.Contains(strings.ToLower(p.ID), q) {
			continue
		}
		filtered = append(filtered, p)
	}

	return &Listing{Patients: filtered, Total: len(patients), Counts: counts}, nil
}

// Group builds one PatientRecord per patient key, most recent visit first.
// Demographics come from the latest consultation.
func Group(recs []consultation.Record) []PatientRecord {
	byKey := map[string]*PatientRecord{}
	var order []string

	for _, rec := range recs {
		key := PatientKey(rec.Patient)
		if key == "" {
			continue
		}
		p, ok := byKey[key]
		if !ok {
			p = &PatientRecord{ID: key}
			byKey[key] = p
			order = append(order, key)
		}
		p.Consultations = append(p.Consultations, rec)
	}

	out := make([]PatientRecord, 0, len(order))
	for _, key := range order {
		p := byKey[key]
		sort.SliceStable(p.Consultations, func(i, j int) bool {
			return p.Consultations[i].Timestamp.After(p.Consultations[j].Timestamp)
		})
		latest := p.Consultations[0]
		p.Name = latest.Patient.Name
		p.Age = latest.Patient.Age
		p.Gender = latest.Patient.Gender
		p.Location = latest.Patient.Location
		p.LastVisit = latest.Timestamp
		p.LastDiagnosis = latest.Diagnosis.Primary.Condition
		p.Status = StatusActive
		if latest.Diagnosis.Referral.Urgent {
			p.Status = StatusReferred
		}
		out = append(out, *p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].LastVisit.After(out[j].LastVisit) })
	return out
}
