// Package store persists appraisal runs and the business-economics settings
// in SQLite. Appraisal results are write-once JSON blobs keyed by id; the
// settings table holds exactly one row, the last fully-merged object.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/mvipergts/value/internal/appraisal"
	"github.com/mvipergts/value/internal/offer"
)

var ErrNotFound = errors.New("store: not found")

const schema = `
CREATE TABLE IF NOT EXISTS appraisals (
	appraisal_id TEXT PRIMARY KEY,
	vehicle      TEXT NOT NULL DEFAULT '',
	request      TEXT NOT NULL,
	result       TEXT NOT NULL,
	created_at   TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS settings (
	id   INTEGER PRIMARY KEY CHECK (id = 1),
	body TEXT NOT NULL
);
`

// Record is one persisted appraisal run.
type Record struct {
	ID        string           `json:"id"`
	Vehicle   string           `json:"vehicle"`
	Request   appraisal.Request `json:"request"`
	Result    appraisal.Result  `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}

// Summary is the listing projection: no report blob, no full result.
type Summary struct {
	ID           string    `json:"id"`
	Vehicle      string    `json:"vehicle"`
	TargetMaxBuy float64   `json:"target_max_buy"`
	CreatedAt    time.Time `json:"created_at"`
}

type Store struct {
	db *sqlx.DB
	mu sync.Mutex
}

func Open(dbPath string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	s := &Store{db: db}
	if err := s.seedSettings(); err != nil {
		db.Close()
		return nil, fmt.Errorf("seed settings: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// seedSettings writes the default settings row on a fresh database so reads
// never observe an absent object.
func (s *Store) seedSettings() error {
	body, err := json.Marshal(offer.DefaultSettings())
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`INSERT OR IGNORE INTO settings (id, body) VALUES (1, ?)`, string(body))
	return err
}

// SaveAppraisal persists one finished run and returns its generated id.
func (s *Store) SaveAppraisal(ctx context.Context, req appraisal.Request, res appraisal.Result) (Record, error) {
	rec := Record{
		ID:        newID(),
		Vehicle:   req.Vehicle,
		Request:   req,
		Result:    res,
		CreatedAt: time.Now().UTC(),
	}
	reqJSON, err := json.Marshal(req)
	if err != nil {
		return Record{}, fmt.Errorf("marshal request: %w", err)
	}
	resJSON, err := json.Marshal(res)
	if err != nil {
		return Record{}, fmt.Errorf("marshal result: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `INSERT INTO appraisals (appraisal_id, vehicle, request, result, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Vehicle, string(reqJSON), string(resJSON), rec.CreatedAt.Format(time.RFC3339Nano))
	if err != nil {
		return Record{}, fmt.Errorf("insert appraisal: %w", err)
	}
	return rec, nil
}

func (s *Store) GetAppraisal(ctx context.Context, id string) (Record, error) {
	var (
		rec       Record
		reqJSON   string
		resJSON   string
		createdAt string
	)
	row := s.db.QueryRowContext(ctx, `SELECT appraisal_id, vehicle, request, result, created_at FROM appraisals WHERE appraisal_id = ?`, id)
	if err := row.Scan(&rec.ID, &rec.Vehicle, &reqJSON, &resJSON, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrNotFound
		}
		return Record{}, fmt.Errorf("get appraisal: %w", err)
	}
	if err := json.Unmarshal([]byte(reqJSON), &rec.Request); err != nil {
		return Record{}, fmt.Errorf("decode request: %w", err)
	}
	if err := json.Unmarshal([]byte(resJSON), &rec.Result); err != nil {
		return Record{}, fmt.Errorf("decode result: %w", err)
	}
	rec.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
	return rec, nil
}

// ListAppraisals returns newest-first summaries, at most limit (0 means 50).
func (s *Store) ListAppraisals(ctx context.Context, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `SELECT appraisal_id, vehicle, result, created_at FROM appraisals ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list appraisals: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			resJSON   string
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.Vehicle, &resJSON, &createdAt); err != nil {
			return nil, err
		}
		var res appraisal.Result
		if err := json.Unmarshal([]byte(resJSON), &res); err == nil {
			sum.TargetMaxBuy = res.Offer.TargetMaxBuy
		}
		sum.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdAt)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// ReadSettings returns the current fully-populated settings object.
func (s *Store) ReadSettings(ctx context.Context) (offer.Settings, error) {
	var body string
	row := s.db.QueryRowContext(ctx, `SELECT body FROM settings WHERE id = 1`)
	if err := row.Scan(&body); err != nil {
		return offer.Settings{}, fmt.Errorf("read settings: %w", err)
	}
	var out offer.Settings
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return offer.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	return out, nil
}

// UpdateSettings merges a partial JSON object onto the stored settings and
// returns the merged result. Keys absent from the patch keep their current
// values; unknown keys are ignored. The settings row is always a complete
// object, never the patch alone.
func (s *Store) UpdateSettings(ctx context.Context, patch json.RawMessage) (offer.Settings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.ReadSettings(ctx)
	if err != nil {
		return offer.Settings{}, err
	}
	if err := json.Unmarshal(patch, &current); err != nil {
		return offer.Settings{}, fmt.Errorf("decode patch: %w", err)
	}
	body, err := json.Marshal(current)
	if err != nil {
		return offer.Settings{}, fmt.Errorf("marshal settings: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT OR REPLACE INTO settings (id, body) VALUES (1, ?)`, string(body)); err != nil {
		return offer.Settings{}, fmt.Errorf("write settings: %w", err)
	}
	return current, nil
}

// Read satisfies the pipeline's settings source.
func (s *Store) Read(ctx context.Context) (offer.Settings, error) {
	return s.ReadSettings(ctx)
}

func newID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return "appr_" + hex.EncodeToString(buf)
}
