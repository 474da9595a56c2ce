package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/anandk/sahay/internal/model"
)

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。存在しない場合は (nil, nil) を返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	var contactName, contactPhone sql.NullString

	err := r.db.QueryRowContext(ctx,
		`SELECT id, email, name, emergency_contact_name, emergency_contact_phone, created_at, updated_at
		 FROM users
		 WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Email, &user.Name, &contactName, &contactPhone, &user.CreatedAt, &user.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	// 緊急連絡先は名前と電話番号が両方揃っている場合のみ有効とする
	if contactName.Valid && contactPhone.Valid {
		user.EmergencyContact = &model.EmergencyContact{
			Name:  contactName.String,
			Phone: contactPhone.String,
		}
	}

	return user, nil
}

// CreateWithIdentity はユーザーとIdP紐付けを同一トランザクションで作成する。
func (r *PostgresUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO users (id, email, name, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO identities (id, user_id, provider, provider_user_id, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		identity.ID, identity.UserID, identity.Provider, identity.ProviderUserID, identity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create identity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateEmergencyContact は緊急連絡先を更新する。contactがnilの場合は削除する。
func (r *PostgresUserRepo) UpdateEmergencyContact(ctx context.Context, userID string, contact *model.EmergencyContact) error {
	var name, phone sql.NullString
	if contact != nil {
		name = sql.NullString{String: contact.Name, Valid: true}
		phone = sql.NullString{String: contact.Phone, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`UPDATE users
		 SET emergency_contact_name = $2, emergency_contact_phone = $3, updated_at = now()
		 WHERE id = $1`,
		userID, name, phone,
	)
	if err != nil {
		return fmt.Errorf("failed to update emergency contact: %w", err)
	}
	return nil
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
