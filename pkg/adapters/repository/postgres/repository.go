// Package postgres stores links, statistics and settings in PostgreSQL
// through a bounded pgx connection pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/deadline"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/core/domain"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/ports"
)

// DefaultMaxConns bounds the pool when no size is configured.
const DefaultMaxConns = 10

type PostgresRepository struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

// NewPostgresRepository connects to databaseURL. When the pool is exhausted,
// callers queue for a connection until their deadline expires.
func NewPostgresRepository(ctx context.Context, databaseURL string, timeout time.Duration, maxConns int) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if maxConns <= 0 {
		maxConns = DefaultMaxConns
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &PostgresRepository{pool: pool, timeout: timeout}, nil
}

func (r *PostgresRepository) InsertLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "insert link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.pool.QueryRow(ctx,
			`INSERT INTO links (id, target_url) VALUES ($1, $2) RETURNING id, target_url`,
			id, targetURL,
		).Scan(&link.ID, &link.TargetURL)
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

// UpdateLink fails with pgx.ErrNoRows wrapped in domain.ErrDataStore when id is unknown.
func (r *PostgresRepository) UpdateLink(ctx context.Context, id, targetURL string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "update link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.pool.QueryRow(ctx,
			`UPDATE links SET target_url = $1 WHERE id = $2 RETURNING id, target_url`,
			targetURL, id,
		).Scan(&link.ID, &link.TargetURL)
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

func (r *PostgresRepository) FindLink(ctx context.Context, id string) (*domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "find link", func(ctx context.Context) (*domain.Link, error) {
		var link domain.Link
		err := r.pool.QueryRow(ctx,
			`SELECT id, target_url FROM links WHERE id = $1`, id,
		).Scan(&link.ID, &link.TargetURL)
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		return &link, nil
	})
}

func (r *PostgresRepository) ListLinks(ctx context.Context) ([]domain.Link, error) {
	return deadline.Run(ctx, r.timeout, "list links", func(ctx context.Context) ([]domain.Link, error) {
		rows, err := r.pool.Query(ctx, `SELECT id, target_url FROM links ORDER BY id`)
		if err != nil {
			return nil, err
		}
		return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.Link, error) {
			var l domain.Link
			err := row.Scan(&l.ID, &l.TargetURL)
			return l, err
		})
	})
}

func (r *PostgresRepository) RecordStatistic(ctx context.Context, event domain.LinkStatisticEvent) error {
	return deadline.Exec(ctx, r.timeout, "record statistic", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO link_statistics (link_id, referer, user_agent) VALUES ($1, $2, $3)`,
			event.LinkID, event.Referer, event.UserAgent,
		)
		return err
	})
}

func (r *PostgresRepository) AggregateStatistics(ctx context.Context, linkID string) ([]domain.CountedLinkStatistic, error) {
	return deadline.Run(ctx, r.timeout, "aggregate statistics", func(ctx context.Context) ([]domain.CountedLinkStatistic, error) {
		rows, err := r.pool.Query(ctx, `
			SELECT count(*) AS amount, referer, user_agent
			FROM link_statistics
			WHERE link_id = $1
			GROUP BY referer, user_agent
			ORDER BY amount DESC, referer, user_agent`, linkID)
		if err != nil {
			return nil, err
		}
		stats, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.CountedLinkStatistic, error) {
			var s domain.CountedLinkStatistic
			err := row.Scan(&s.Amount, &s.Referer, &s.UserAgent)
			return s, err
		})
		if err != nil {
			return nil, err
		}
		if stats == nil {
			stats = []domain.CountedLinkStatistic{}
		}
		return stats, nil
	})
}

func (r *PostgresRepository) GetSettings(ctx context.Context) (*domain.AuthSettings, error) {
	return deadline.Run(ctx, r.timeout, "get settings", func(ctx context.Context) (*domain.AuthSettings, error) {
		var s domain.AuthSettings
		err := r.pool.QueryRow(ctx,
			`SELECT id, encrypted_global_api_key FROM settings WHERE id = $1`, domain.SettingsID,
		).Scan(&s.ID, &s.EncryptedGlobalAPIKey)
		if err != nil {
			return nil, err
		}
		return &s, nil
	})
}

func (r *PostgresRepository) SaveSettings(ctx context.Context, settings domain.AuthSettings) error {
	return deadline.Exec(ctx, r.timeout, "save settings", func(ctx context.Context) error {
		_, err := r.pool.Exec(ctx, `
			INSERT INTO settings (id, encrypted_global_api_key) VALUES ($1, $2)
			ON CONFLICT (id) DO UPDATE SET encrypted_global_api_key = EXCLUDED.encrypted_global_api_key`,
			settings.ID, settings.EncryptedGlobalAPIKey,
		)
		return err
	})
}

func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

var _ ports.LinkRepository = (*PostgresRepository)(nil)
