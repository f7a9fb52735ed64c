package consultation

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Repository is the append-only store of completed consultations. There is no
// update, delete or de-duplication.
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	List(ctx context.Context) ([]Record, error)
}

type postgresRepo struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &postgresRepo{db: db}
}

func (r *postgresRepo) Append(ctx context.Context, rec *Record) error {
	patientJSON, err := json.Marshal(rec.Patient)
	if err != nil {
		return err
	}
	symptomsJSON, err := json.Marshal(rec.Symptoms)
	if err != nil {
		return err
	}
	vitalsJSON, err := json.Marshal(rec.Vitals)
	if err != nil {
		return err
	}
	diagnosisJSON, err := json.Marshal(rec.Diagnosis)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO consultations (id, recorded_at, patient, symptoms, vitals, diagnosis, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err = r.db.ExecContext(ctx, query,
		rec.ID, rec.Timestamp, patientJSON, symptomsJSON, vitalsJSON, diagnosisJSON, rec.Status)
	if err != nil {
		return fmt.Errorf("insert consultation: %w", err)
	}
	return nil
}

func (r *postgresRepo) List(ctx context.Context) ([]Record, error) {
	query := `SELECT id, recorded_at, patient, symptoms, vitals, diagnosis, status FROM consultations ORDER BY recorded_at`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list consultations: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var patientJSON, symptomsJSON, vitalsJSON, diagnosisJSON []byte
		if err := rows.Scan(&rec.ID, &rec.Timestamp, &patientJSON, &symptomsJSON, &vitalsJSON, &diagnosisJSON, &rec.Status); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(patientJSON, &rec.Patient); err != nil {
			return nil, fmt.Errorf("failed to unmarshal patient: %w", err)
		}
		if len(symptomsJSON) > 0 {
			if err := json.Unmarshal(symptomsJSON, &rec.Symptoms); err != nil {
				return nil, fmt.Errorf("failed to unmarshal symptoms: %w", err)
			}
		}
		if err := json.Unmarshal(vitalsJSON, &rec.Vitals); err != nil {
			return nil, fmt.Errorf("failed to unmarshal vitals: %w", err)
		}
		if err := json.Unmarshal(diagnosisJSON, &rec.Diagnosis); err != nil {
			return nil, fmt.Errorf("failed to unmarshal diagnosis: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type memoryRepo struct {
	mu      sync.RWMutex
	records []Record
}

// NewMemoryRepository is used when no database is configured.
func NewMemoryRepository() Repository {
	return &memoryRepo{}
}

func (m *memoryRepo) Append(_ context.Context, rec *Record) error {
	m.mu.Lock()
	m.records = append(m.records, *rec)
	m.mu.Unlock()
	return nil
}

func (m *memoryRepo) List(_ context.Context) ([]Record, error) {
	m.mu.RLock()
	out := make([]Record, len(m.records))
	copy(out, m.records)
	m.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
