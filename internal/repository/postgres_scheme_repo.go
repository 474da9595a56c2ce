package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anandk/sahay/internal/model"
)

// PostgresSchemeRepo はPostgreSQLを使用した制度告知リポジトリ。
type PostgresSchemeRepo struct {
	db *sql.DB
}

// NewPostgresSchemeRepo はPostgresSchemeRepoを生成する。
func NewPostgresSchemeRepo(db *sql.DB) *PostgresSchemeRepo {
	return &PostgresSchemeRepo{db: db}
}

// Upsert は制度告知をリンクURLをキーに挿入または更新する。
func (r *PostgresSchemeRepo) Upsert(ctx context.Context, scheme *model.Scheme) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO schemes (id, title, summary, link, published_at, fetched_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (link)
		 DO UPDATE SET title = EXCLUDED.title, summary = EXCLUDED.summary,
		               published_at = EXCLUDED.published_at, fetched_at = EXCLUDED.fetched_at`,
		scheme.ID, scheme.Title, scheme.Summary, scheme.Link, scheme.PublishedAt, scheme.FetchedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert scheme: %w", err)
	}
	return nil
}

// ListRecent は公開日時の新しい順に最大limit件を返す。
func (r *PostgresSchemeRepo) ListRecent(ctx context.Context, limit int) ([]*model.Scheme, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, title, summary, link, published_at, fetched_at
		 FROM schemes
		 ORDER BY published_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list schemes: %w", err)
	}
	defer rows.Close()

	var schemes []*model.Scheme
	for rows.Next() {
		s := &model.Scheme{}
		if err := rows.Scan(&s.ID, &s.Title, &s.Summary, &s.Link, &s.PublishedAt, &s.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan scheme: %w", err)
		}
		schemes = append(schemes, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate schemes: %w", err)
	}

	return schemes, nil
}

// compile-time interface check
var _ SchemeRepository = (*PostgresSchemeRepo)(nil)
