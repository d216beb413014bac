package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"

	"pumpnet/calculator"
	"pumpnet/model"
)

var ErrNotFound = errors.New("run not found")

// Run 一次基准工况计算的记录
type Run struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Network   model.Network       `json:"network"`
	Params    model.Params        `json:"params"`
	Analysis  calculator.Analysis `json:"analysis"`
}

// Store 计算历史，保存在 SQLite 中
type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	log.WithField("path", path).Info("计算历史数据库已打开")
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		created_at INTEGER NOT NULL,
		head REAL NOT NULL,
		annual_cost REAL NOT NULL,
		network JSON NOT NULL,
		params JSON NOT NULL,
		analysis JSON NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save 写入一条记录，ID 和 CreatedAt 为空时自动生成
func (s *Store) Save(ctx context.Context, run *Run) error {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	network, err := json.Marshal(run.Network)
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	params, err := json.Marshal(run.Params)
	if err != nil {
		return fmt.Errorf("failed to marshal params: %w", err)
	}
	analysis, err := json.Marshal(run.Analysis)
	if err != nil {
		return fmt.Errorf("failed to marshal analysis: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (id, created_at, head, annual_cost, network, params, analysis)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, run.ID, run.CreatedAt.UnixNano(), run.Analysis.Head, run.Analysis.Energy.AnnualCost,
		network, params, analysis)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, network, params, analysis
		FROM runs WHERE id = ?
	`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return run, err
}

// List 按时间倒序，limit <= 0 时返回全部
func (s *Store) List(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, network, params, analysis
		FROM runs ORDER BY created_at DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run                       Run
		createdAt                 int64
		network, params, analysis []byte
	)
	if err := row.Scan(&run.ID, &createdAt, &network, &params, &analysis); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.CreatedAt = time.Unix(0, createdAt)

	if err := json.Unmarshal(network, &run.Network); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network: %w", err)
	}
	if err := json.Unmarshal(params, &run.Params); err != nil {
		return nil, fmt.Errorf("failed to unmarshal params: %w", err)
	}
	if err := json.Unmarshal(analysis, &run.Analysis); err != nil {
		return nil, fmt.Errorf("failed to unmarshal analysis: %w", err)
	}
	return &run, nil
}
