package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	_ "github.com/tursodatabase/libsql-client-go/libsql" // Turso driver
	_ "modernc.org/sqlite"                               // Local SQLite driver

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/deadline"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

type SQLiteRepository struct {
	db      *sql.DB
	timeout time.Duration
}

// NewSQLiteRepository opens dbURL with the libsql driver for remote URLs and
// the modernc driver otherwise, then creates the schema.
func NewSQLiteRepository(dbURL string, timeout time.Duration, maxConns int) (*SQLiteRepository, error) {
	driverName := "sqlite"
	if strings.Contains(dbURL, "libsql://") || strings.Contains(dbURL, "wss://") {
		driverName = "libsql"
	}

	db, err := sql.Open(driverName, dbURL)
	if err != nil {
		return nil, err
	}

	// Shared-cache memory databases lock whole tables; one connection avoids SQLITE_LOCKED.
	if strings.Contains(dbURL, "mode=memory") || strings.Contains(dbURL, ":memory:") {
		maxConns = 1
	}
	if maxConns > 0 {
		db.SetMaxOpenConns(maxConns)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteRepository{db: db, timeout: timeout}, nil
}

func migrate(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		id TEXT PRIMARY KEY,
		target_url TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS link_statistics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		link_id TEXT NOT NULL,
		referer TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_link_statistics_link_id ON link_statistics(link_id);

	CREATE TABLE IF NOT EXISTS settings (
		id TEXT PRIMARY KEY,
		encrypted_global_api_key TEXT NOT NULL
	);
	`
	_, err := db.Exec(query)
	return err
}

func (r *SQLiteRepository) InsertLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "insert link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.db.QueryRowContext(ctx,
			`INSERT INTO links (id, target_url) VALUES (?, ?) RETURNING id, target_url`,
			id, targetURL,
		).Scan(&link.ID, &link.TargetURL)
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

// UpdateLink fails with sql.ErrNoRows wrapped in domain.ErrDataStore when id is unknown.
func (r *SQLiteRepository) UpdateLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "update link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.db.QueryRowContext(ctx,
			`UPDATE links SET target_url = ? WHERE id = ? RETURNING id, target_url`,
			targetURL, id,
		).Scan(&link.ID, &link.TargetURL)
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

func (r *SQLiteRepository) FindLink(ctx context.Context, id string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "find link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.db.QueryRowContext(ctx,
			`SELECT id, target_url FROM links WHERE id = ?`, id,
		).Scan(&link.ID, &link.TargetURL)
		if err == sql.ErrNoRows {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

func (r *SQLiteRepository) ListLinks(ctx context.Context) ([]domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "list links", func(ctx context.Context) ([]domain.Link, error) {
		rows, err := r.db.QueryContext(ctx, `SELECT id, target_url FROM links ORDER BY id`)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		links := []domain.Link{}
		for rows.Next() {
			var l domain.Link
			if err := rows.Scan(&l.ID, &l.TargetURL); err != nil {
				return nil, err
			}
			links = append(links, l)
		}
		return links, rows.Err()
	})
}

func (r *SQLiteRepository) RecordStatistic(ctx context.Context, event domain.LinkStatisticEvent) error {
	return deadline.Exec(ctx, r.timeout, "record statistic", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx,
			`INSERT INTO link_statistics (link_id, referer, user_agent) VALUES (?, ?, ?)`,
			event.LinkID, event.Referer, event.UserAgent,
		)
		return err
	})
}

func (r *SQLiteRepository) AggregateStatistics(ctx context.Context, linkID string) ([]domain.CountedLinkStatistic, error) {
	return deadline.Run(ctx, r.timeout, "aggregate statistics", func(ctx context.Context) ([]domain.CountedLinkStatistic, error) {
		rows, err := r.db.QueryContext(ctx, `
			SELECT COUNT(*) AS amount, referer, user_agent
			FROM link_statistics
			WHERE link_id = ?
			GROUP BY referer, user_agent
			ORDER BY amount DESC, referer, user_agent`, linkID)
		if err != nil {
			return nil, err
		}
		defer rows.Close()

		stats := []domain.CountedLinkStatistic{}
		for rows.Next() {
			var s domain.CountedLinkStatistic
			if err := rows.Scan(&s.Amount, &s.Referer, &s.UserAgent); err != nil {
				return nil, err
			}
			stats = append(stats, s)
		}
		return stats, rows.Err()
	})
}

func (r *SQLiteRepository) GetSettings(ctx context.Context) (*domain.AuthSettings, error) {
	return deadline.Run(ctx, r.timeout, "get settings", func(ctx context.Context) (*domain.AuthSettings, error) {
		var s domain.AuthSettings
		err := r.db.QueryRowContext(ctx,
			`SELECT id, encrypted_global_api_key FROM settings WHERE id = ?`, domain.SettingsID,
		).Scan(&s.ID, &s.EncryptedGlobalAPIKey)
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, settings domain.AuthSettings) error {
	return deadline.Exec(ctx, r.timeout, "save settings", func(ctx context.Context) error {
		_, err := r.db.ExecContext(ctx, `
			INSERT INTO settings (id, encrypted_global_api_key) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET encrypted_global_api_key = excluded.encrypted_global_api_key`,
			settings.ID, settings.EncryptedGlobalAPIKey,
		)
		return err
	})
}

func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

// Ensure interface compliance
var _ ports.LinkRepository = (*SQLiteRepository)(nil)
