package report

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/uvadev/CanvasBulkFileDelete/config"
	"github.com/uvadev/CanvasBulkFileDelete/model"
	"go.etcd.io/bbolt"
)

// History archives run reports in a local bbolt database, keyed by the run
// start stamp.
type History struct {
	db     *bbolt.DB
	bucket string
}

// RunRecord is one archived run
type RunRecord struct {
	Stamp  string          `json:"stamp"`
	Report model.RunReport `json:"report"`
}

// OpenHistory creates a new History based on configuration
func OpenHistory(cfg *config.HistoryConfig) (*History, error) {
	// Apply defaults to ensure required values are set
	cfg.ApplyDefaults()

	// Validate config
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid history config: %w", err)
	}

	// Open bbolt database
	db, err := bbolt.Open(cfg.Path, cfg.Mode, nil)
	if err != nil {
		return nil, err
	}

	// NoSync trades durability for speed. History is a convenience store,
	// so losing the last entry on a crash is acceptable when enabled.
	db.NoSync = cfg.NoSync

	// Create bucket if not exists
	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(cfg.Bucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create bucket: %w", err)
	}

	return &History{
		db:     db,
		bucket: cfg.Bucket,
	}, nil
}

func (h *History) Close() error {
	return h.db.Close()
}

// Record stores the report under the stamp derived from the run start time.
// Recording the same run twice overwrites the previous entry.
func (h *History) Record(start time.Time, rep *model.RunReport) error {
	return h.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(h.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val, err := json.Marshal(rep)
		if err != nil {
			return err
		}
		return b.Put([]byte(start.Format(stampLayout)), val)
	})
}

// Get returns the archived report for the given stamp
func (h *History) Get(stamp string) (*model.RunReport, error) {
	var rep model.RunReport
	err := h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(h.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		val := b.Get([]byte(stamp))
		if val == nil {
			return ErrRunNotFound
		}
		return json.Unmarshal(val, &rep)
	})
	if err != nil {
		return nil, err
	}
	return &rep, nil
}

// List returns all archived runs in chronological order. Stamps sort
// lexicographically in bbolt, which matches time order for this layout.
func (h *History) List() ([]RunRecord, error) {
	var records []RunRecord

	err := h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(h.bucket))
		if b == nil {
			return ErrBucketNotFound
		}

		return b.ForEach(func(k, v []byte) error {
			var rep model.RunReport
			if err := json.Unmarshal(v, &rep); err != nil {
				return fmt.Errorf("unmarshal error for run %s: %w", k, err)
			}
			records = append(records, RunRecord{Stamp: string(k), Report: rep})
			return nil
		})
	})

	return records, err
}

func (h *History) Count() (int64, error) {
	var count int64 = 0
	err := h.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket([]byte(h.bucket))
		if b == nil {
			return ErrBucketNotFound
		}
		return b.ForEach(func(k, v []byte) error {
			count++
			return nil
		})
	})
	return count, err
}
