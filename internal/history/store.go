// Package history persists one record per dry-run or executed clean.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fenilsonani/devcache/internal/logging"
)

const (
	// FileName is the history file inside the config directory
	FileName = "history.json"
	// MaxRecords is how many sessions are retained, oldest dropped first
	MaxRecords = 100
	// DateLayout is the minute-resolution local time stored in each record
	DateLayout = "2006-01-02T15:04"
)

// ErrMalformed is returned when the history file is not a record list
var ErrMalformed = errors.New("malformed history")

// SessionRecord is one persisted clean or dry-run
type SessionRecord struct {
	Date   string `json:"date" yaml:"date"`
	Path   string `json:"path" yaml:"path"`
	Size   int64  `json:"size" yaml:"size"`
	Items  int    `json:"items" yaml:"items"`
	DryRun bool   `json:"dry_run" yaml:"dry_run"`
}

// Stats summarizes the stored history
type Stats struct {
	Sessions int   `json:"sessions" yaml:"sessions"`
	Executed int   `json:"executed" yaml:"executed"`
	Freed    int64 `json:"freed" yaml:"freed"`
}

// Store reads and writes the history file. It is not safe for concurrent
// use by multiple processes; the last writer wins.
type Store struct {
	path   string
	logger *logging.Logger
	now    func() time.Time
}

// NewStore creates a store for <dir>/history.json
func NewStore(dir string, logger *logging.Logger) *Store {
	return &Store{
		path:   filepath.Join(dir, FileName),
		logger: logger,
		now:    time.Now,
	}
}

// Path returns the history file location
func (s *Store) Path() string {
	return s.path
}

// LoadAll returns every stored record, oldest first. A missing or malformed
// file yields an empty list.
func (s *Store) LoadAll() []SessionRecord {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read history %s: %v", s.path, err)
		}
		return []SessionRecord{}
	}

	records, err := decode(data)
	if err != nil {
		s.logger.Warn("ignoring history %s: %v", s.path, err)
		return []SessionRecord{}
	}
	return records
}

// Append adds rec and rewrites the file, keeping the newest MaxRecords
func (s *Store) Append(rec SessionRecord) error {
	records := append(s.LoadAll(), normalize(rec))
	if len(records) > MaxRecords {
		records = records[len(records)-MaxRecords:]
	}
	return s.save(records)
}

// Record appends a record for the current time. It satisfies the
// cleaner's recorder interface.
func (s *Store) Record(path string, size int64, items int, dryRun bool) error {
	return s.Append(SessionRecord{
		Date:   s.now().Format(DateLayout),
		Path:   path,
		Size:   size,
		Items:  items,
		DryRun: dryRun,
	})
}

// Recent returns up to limit records, newest first. A limit <= 0 returns all.
func (s *Store) Recent(limit int) []SessionRecord {
	records := s.LoadAll()
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}

	recent := make([]SessionRecord, len(records))
	for i, rec := range records {
		recent[len(records)-1-i] = rec
	}
	return recent
}

// Stats counts all sessions and sums the space freed by executed ones
func (s *Store) Stats() Stats {
	var stats Stats
	for _, rec := range s.LoadAll() {
		stats.Sessions++
		if !rec.DryRun {
			stats.Executed++
			stats.Freed += rec.Size
		}
	}
	return stats
}

// save writes records through a temp file so readers never see a partial file
func (s *Store) save(records []SessionRecord) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), FileName+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to write history: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write history: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace history: %w", err)
	}

	return nil
}

// rawRecord accepts both the current keys and the legacy ones
type rawRecord struct {
	Date           *string  `json:"date"`
	Timestamp      *string  `json:"timestamp"`
	Path           *string  `json:"path"`
	ScanPath       *string  `json:"scan_path"`
	Size           *float64 `json:"size"`
	TotalSizeBytes *float64 `json:"total_size_bytes"`
	Items          *float64 `json:"items"`
	DryRun         *bool    `json:"dry_run"`
}

// legacyFile is the old {"sessions": [...]} layout
type legacyFile struct {
	Sessions *[]rawRecord `json:"sessions"`
}

// decode parses either a record array or the legacy object layout
func decode(data []byte) ([]SessionRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return []SessionRecord{}, nil
	}

	var raws []rawRecord
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &raws); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
	case '{':
		var legacy legacyFile
		if err := json.Unmarshal(data, &legacy); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if legacy.Sessions == nil {
			return []SessionRecord{}, nil
		}
		raws = *legacy.Sessions
	default:
		return nil, fmt.Errorf("%w: expected a JSON array", ErrMalformed)
	}

	records := make([]SessionRecord, 0, len(raws))
	for _, raw := range raws {
		records = append(records, raw.toRecord())
	}
	return records, nil
}

// toRecord maps legacy keys onto the current record shape. Missing dry_run
// is treated as a dry run so old entries never count as freed space.
func (r rawRecord) toRecord() SessionRecord {
	rec := SessionRecord{DryRun: true}

	switch {
	case r.Date != nil && *r.Date != "":
		rec.Date = *r.Date
	case r.Timestamp != nil:
		rec.Date = truncate(*r.Timestamp, len(DateLayout))
	}

	switch {
	case r.Path != nil && *r.Path != "":
		rec.Path = *r.Path
	case r.ScanPath != nil:
		rec.Path = *r.ScanPath
	}

	switch {
	case r.Size != nil && *r.Size != 0:
		rec.Size = int64(*r.Size)
	case r.TotalSizeBytes != nil:
		rec.Size = int64(*r.TotalSizeBytes)
	}

	if r.Items != nil {
		rec.Items = int(*r.Items)
	}
	if r.DryRun != nil {
		rec.DryRun = *r.DryRun
	}

	return normalize(rec)
}

func normalize(rec SessionRecord) SessionRecord {
	if rec.Size < 0 {
		rec.Size = 0
	}
	if rec.Items < 0 {
		rec.Items = 0
	}
	return rec
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
