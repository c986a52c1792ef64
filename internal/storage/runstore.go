package storage

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.etcd.io/bbolt"

	"proxytune/internal/nginx"
)

const bucketRuns = "runs"

// RunRecord is the archived summary of one completed search run.
type RunRecord struct {
	ID             string       `json:"id"`
	Timestamp      time.Time    `json:"timestamp"`
	Iterations     int          `json:"iterations"`
	InitialRPS     float64      `json:"initial_rps"`
	BestRPS        float64      `json:"best_rps"`
	ImprovementPct float64      `json:"improvement_pct"`
	BestConfig     nginx.Params `json:"best_config"`
	ReportPath     string       `json:"report_path,omitempty"`
}

// RunStore archives run summaries across invocations in a bolt file, so
// past searches stay listable after their reports have been moved away.
type RunStore struct {
	db *bbolt.DB
}

// OpenRunStore opens (or creates) the archive at path.
func OpenRunStore(path string) (*RunStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}

	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, err
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketRuns))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &RunStore{db: db}, nil
}

func (s *RunStore) Close() error {
	return s.db.Close()
}

// Archive stores a run summary, assigning an ID and timestamp when
// absent. Keys are timestamp-prefixed so a cursor walks runs in time
// order.
func (s *RunStore) Archive(rec RunRecord) (RunRecord, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now()
	}

	err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(bucketRuns))
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		key := rec.Timestamp.UTC().Format(time.RFC3339Nano) + "_" + rec.ID
		return b.Put([]byte(key), data)
	})
	return rec, err
}

// List returns archived runs, most recent first.
func (s *RunStore) List() []RunRecord {
	var records []RunRecord

	s.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(bucketRuns)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			var rec RunRecord
			if err := json.Unmarshal(v, &rec); err == nil {
				records = append(records, rec)
			}
		}
		return nil
	})

	return records
}
