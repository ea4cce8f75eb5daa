package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := applyMigrations(dbPath, migrationsFS); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// applyMigrations brings the schema up to date from the embedded .sql
// files. It uses its own short-lived connection, closed by the migrator,
// so the repository pool never hands out a partially migrated database.
func applyMigrations(dbPath string, fsys fs.FS) error {
	src, err := iofs.New(fsys, "migrations")
	if err != nil {
		return fmt.Errorf("load embedded migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("open database for migration: %w", err)
	}

	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		db.Close()
		return fmt.Errorf("prepare migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		db.Close()
		return fmt.Errorf("assemble migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) SaveSnapshot(ctx context.Context, data []byte) error {
	if len(data) > MaxSnapshotBytes {
		return ErrSnapshotTooLarge
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO snapshots (id, data, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadSnapshot(ctx context.Context) ([]byte, error) {
	var data []byte
	err := r.db.QueryRowContext(ctx, `SELECT data FROM snapshots WHERE id = 1`).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	return data, nil
}

func (r *SQLiteRepository) SaveReportMarker(ctx context.Context, month string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO report_markers (id, month, updated_at) VALUES (1, ?, ?)
		ON CONFLICT(id) DO UPDATE SET month = excluded.month, updated_at = excluded.updated_at`,
		month, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("save report marker: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) LoadReportMarker(ctx context.Context) (string, error) {
	var month string
	err := r.db.QueryRowContext(ctx, `SELECT month FROM report_markers WHERE id = 1`).Scan(&month)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNoReportMarker
	}
	if err != nil {
		return "", fmt.Errorf("load report marker: %w", err)
	}
	return month, nil
}

func (r *SQLiteRepository) ArchiveMessage(ctx context.Context, msg ArchivedMessage) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sms_archive (id, sender, body, status, transaction_id, received_at, processed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			transaction_id = excluded.transaction_id,
			processed_at = excluded.processed_at`,
		msg.ID, msg.Sender, msg.Body, string(msg.Status), msg.TransactionID,
		msg.ReceivedAt.UTC().Format(time.RFC3339),
		msg.ProcessedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("archive message: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListMessages(ctx context.Context, limit int) ([]ArchivedMessage, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, sender, body, status, transaction_id, received_at, processed_at
		FROM sms_archive ORDER BY processed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var out []ArchivedMessage
	for rows.Next() {
		var msg ArchivedMessage
		var status, receivedAt, processedAt string
		if err := rows.Scan(&msg.ID, &msg.Sender, &msg.Body, &status, &msg.TransactionID, &receivedAt, &processedAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		msg.Status = MessageStatus(status)
		msg.ReceivedAt, _ = time.Parse(time.RFC3339, receivedAt)
		msg.ProcessedAt, _ = time.Parse(time.RFC3339, processedAt)
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate messages: %w", err)
	}
	return out, nil
}
