// Package model はドメインモデルを定義する。
package model

import "time"

// User はサービス利用ユーザーを表す。
type User struct {
	ID               string
	Email            string
	Name             string
	EmergencyContact *EmergencyContact // 未登録の場合はnil
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// EmergencyContact は緊急連絡先を表す。
type EmergencyContact struct {
	Name  string
	Phone string
}

// DefaultEmergencyContact は緊急連絡先が未登録の場合のフォールバック連絡先を返す。
// 緊急通話オーバーレイは連絡先なしでクラッシュしてはならない。
func DefaultEmergencyContact() EmergencyContact {
	return EmergencyContact{
		Name:  "Rahul",
		Phone: "+91 98765 43210",
	}
}

// Identity は外部IdPとの紐付け情報を表す。
// 将来的に複数のIdP（Google, GitHub等）に対応可能な構造。
type Identity struct {
	ID             string
	UserID         string
	Provider       string
	ProviderUserID string
	CreatedAt      time.Time
}

// Session はユーザーのログインセッションを表す。
type Session struct {
	ID        string
	UserID    string
	ExpiresAt time.Time
	CreatedAt time.Time
}
