// Package repository はデータ永続化のインターフェースとPostgreSQL実装を提供する。
package repository

import (
	"context"

	"github.com/anandk/sahay/internal/model"
)

// UserRepository はユーザーの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。存在しない場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.User, error)
	// CreateWithIdentity はユーザーとIdP紐付けを同一トランザクションで作成する。
	CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error
	// UpdateEmergencyContact は緊急連絡先を更新する。contactがnilの場合は削除する。
	UpdateEmergencyContact(ctx context.Context, userID string, contact *model.EmergencyContact) error
}

// IdentityRepository は外部IdP紐付けの永続化インターフェース。
type IdentityRepository interface {
	// FindByProviderAndProviderUserID は指定プロバイダーの紐付けを取得する。
	// 存在しない場合は (nil, nil) を返す。
	FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

// SessionRepository はログインセッションの永続化インターフェース。
type SessionRepository interface {
	Create(ctx context.Context, session *model.Session) error
	// FindByID は指定IDのセッションを取得する。期限切れ・不存在の場合は (nil, nil) を返す。
	FindByID(ctx context.Context, id string) (*model.Session, error)
	DeleteByID(ctx context.Context, id string) error
	DeleteByUserID(ctx context.Context, userID string) error
}

// PreferenceRepository は表示設定キーバリューの永続化インターフェース。
// 値は不透明な文字列として保存され、解釈は呼び出し側（prefsパッケージ）が行う。
type PreferenceRepository interface {
	// Get は指定キーの値を取得する。未設定の場合は ("", false, nil) を返す。
	Get(ctx context.Context, userID, key string) (string, bool, error)
	// GetAll はユーザーの全設定をキーバリューのマップで返す。
	GetAll(ctx context.Context, userID string) (map[string]string, error)
	// Set は指定キーの値を保存する。既存値は上書きする（last-write-wins）。
	Set(ctx context.Context, userID, key, value string) error
}

// SchemeRepository は行政支援制度告知の永続化インターフェース。
type SchemeRepository interface {
	// Upsert は制度告知をリンクURLをキーに挿入または更新する。
	Upsert(ctx context.Context, scheme *model.Scheme) error
	// ListRecent は公開日時の新しい順に最大limit件を返す。
	ListRecent(ctx context.Context, limit int) ([]*model.Scheme, error)
}
