// Package analytics summarises saved consultations for the dashboard.
package analytics

import (
	"context"
	"math"
	"sort"
	"time"

	"arogya-setu/internal/consultation"
	"arogya-setu/internal/records"
)

const (
	activityDays  = 7
	topConditions = 5
)

type DayActivity struct {
	Day           string `json:"day"`
	Date          string `json:"date"`
	Patients      int    `json:"patients"`
	Consultations int    `json:"consultations"`
}

type ConditionCount struct {
	Condition  string  `json:"condition"`
	Cases      int     `json:"cases"`
	Percentage float64 `json:"percentage"`
}

type Overview struct {
	TotalConsultations int              `json:"totalConsultations"`
	UniquePatients     int              `json:"uniquePatients"`
	ReferralRate       float64          `json:"referralRate"`
	AIDiagnosisRate    float64          `json:"aiDiagnosisRate"`
	WeeklyActivity     []DayActivity    `json:"weeklyActivity"`
	TopConditions      []ConditionCount `json:"topConditions"`
}

type Service interface {
	Overview(ctx context.Context) (*Overview, error)
}

type service struct {
	repo consultation.Repository
	now  func() time.Time
}

func NewService(repo consultation.Repository) Service {
	return &service{repo: repo, now: time.Now}
}

func (s *service) Overview(ctx context.Context) (*Overview, error) {
	recs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return Summarize(recs, s.now()), nil
}

// Summarize computes the dashboard figures. Rates are percentages rounded to
// one decimal place; the weekly activity covers the seven days ending on now.
func Summarize(recs []consultation.Record, now time.Time) *Overview {
	o := &Overview{TotalConsultations: len(recs)}

	patients := map[string]bool{}
	conditions := map[string]int{}
	referrals, ai := 0, 0
	for _, rec := range recs {
		if key := records.PatientKey(rec.Patient); key != "" {
			patients[key] = true
		}
		if rec.Diagnosis.Referral.Urgent {
			referrals++
		}
		if rec.Diagnosis.Source == consultation.SourceAI {
			ai++
		}
		if c := rec.Diagnosis.Primary.Condition; c != "" {
			conditions[c]++
		}
	}
	o.UniquePatients = len(patients)
	o.ReferralRate = percent(referrals, len(recs))
	o.AIDiagnosisRate = percent(ai, len(recs))
	o.WeeklyActivity = weekly(recs, now)
	o.TopConditions = top(conditions, len(recs))
	return o
}

func weekly(recs []consultation.Record, now time.Time) []DayActivity {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	out := make([]DayActivity, 0, activityDays)
	for i := activityDays - 1; i >= 0; i-- {
		start := today.AddDate(0, 0, -i)
		end := start.AddDate(0, 0, 1)

		day := DayActivity{Day: start.Format("Mon"), Date: start.Format("2006-01-02")}
		seen := map[string]bool{}
		for _, rec := range recs {
			at := rec.Timestamp.In(now.Location())
			if at.Before(start) || !at.Before(end) {
				continue
			}
			day.Consultations++
			seen[records.PatientKey(rec.Patient)] = true
		}
		day.Patients = len(seen)
		out = append(out, day)
	}
	return out
}

func top(conditions map[string]int, total int) []ConditionCount {
	out := make([]ConditionCount, 0, len(conditions))
	for c, n := range conditions {
		out = append(out, ConditionCount{Condition: c, Cases: n, Percentage: percent(n, total)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cases != out[j].Cases {
			return out[i].Cases > out[j].Cases
		}
		return out[i].Condition < out[j].Condition
	})
	if len(out) > topConditions {
		out = out[:topConditions]
	}
	return out
}

func percent(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(n)*1000/float64(total)) / 10
}
