package sqlite

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/ficr/insight/internal/storage/models"
	"github.com/ficr/insight/pkg/logger"
)

type Client struct {
	db *sql.DB
}

func NewClient(dbPath string) (*Client, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	_, err = db.Exec("PRAGMA foreign_keys = ON")
	if err != nil {
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	_, err = db.Exec("PRAGMA journal_mode = WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	logger.Info("SQLite client initialized", zap.String("path", dbPath))

	return &Client{db: db}, nil
}

func (c *Client) Close() error {
	return c.db.Close()
}

func (c *Client) InitSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS query_history (
		id TEXT PRIMARY KEY,
		query_text TEXT NOT NULL,
		source TEXT,
		status TEXT NOT NULL,
		row_count INTEGER,
		latency_ms INTEGER,
		error_text TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_query_status ON query_history(status);
	CREATE INDEX IF NOT EXISTS idx_query_created ON query_history(created_at);

	CREATE TABLE IF NOT EXISTS pipeline_runs (
		id TEXT PRIMARY KEY,
		provider TEXT,
		model TEXT,
		stage TEXT NOT NULL,
		succeeded INTEGER NOT NULL,
		char_count INTEGER,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_runs_created ON pipeline_runs(created_at);
	`

	_, err := c.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	logger.Info("SQLite schema initialized")
	return nil
}

func (c *Client) InsertQueryRecord(record *models.QueryRecord) error {
	query := `
		INSERT INTO query_history (id, query_text, source, status, row_count, latency_ms, error_text, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := c.db.Exec(
		query,
		record.ID,
		record.QueryText,
		record.Source,
		record.Status,
		record.RowCount,
		record.LatencyMS,
		record.ErrorText,
		record.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert query record: %w", err)
	}

	logger.Debug("Query recorded",
		zap.String("query_id", record.ID),
		zap.String("status", record.Status),
		zap.Int("rows", record.RowCount),
	)

	return nil
}

func (c *Client) GetQueryHistory(limit int) ([]models.QueryRecord, error) {
	query := `
		SELECT id, query_text, source, status, row_count, latency_ms, error_text, created_at
		FROM query_history
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get query history: %w", err)
	}
	defer rows.Close()

	var records []models.QueryRecord
	for rows.Next() {
		var r models.QueryRecord
		var createdAt int64

		err := rows.Scan(&r.ID, &r.QueryText, &r.Source, &r.Status, &r.RowCount, &r.LatencyMS, &r.ErrorText, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, r)
	}

	return records, nil
}

func (c *Client) InsertPipelineRun(run *models.PipelineRun) error {
	query := `
		INSERT INTO pipeline_runs (id, provider, model, stage, succeeded, char_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	succeeded := 0
	if run.Succeeded {
		succeeded = 1
	}

	_, err := c.db.Exec(
		query,
		run.ID,
		run.Provider,
		run.Model,
		run.Stage,
		succeeded,
		run.CharCount,
		run.CreatedAt.Unix(),
	)

	if err != nil {
		return fmt.Errorf("failed to insert pipeline run: %w", err)
	}

	logger.Info("Pipeline run recorded",
		zap.String("run_id", run.ID),
		zap.String("stage", run.Stage),
		zap.Bool("succeeded", run.Succeeded),
	)

	return nil
}

func (c *Client) GetPipelineRuns(limit int) ([]models.PipelineRun, error) {
	query := `
		SELECT id, provider, model, stage, succeeded, char_count, created_at
		FROM pipeline_runs
		ORDER BY created_at DESC
		LIMIT ?
	`

	rows, err := c.db.Query(query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pipeline runs: %w", err)
	}
	defer rows.Close()

	var runs []models.PipelineRun
	for rows.Next() {
		var r models.PipelineRun
		var succeeded int
		var createdAt int64

		err := rows.Scan(&r.ID, &r.Provider, &r.Model, &r.Stage, &succeeded, &r.CharCount, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		r.Succeeded = succeeded != 0
		r.CreatedAt = time.Unix(createdAt, 0)
		runs = append(runs, r)
	}

	return runs, nil
}
