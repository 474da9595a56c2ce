// Package prefs は表示設定のライトスルー永続化と復元を提供する。
package prefs

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
)

// Store はユーザーごとの表示設定を管理する。
// 書き込みはライトスルー（即時永続化）、読み込みはマウント時の1回のハイドレーションで行う。
// ストレージ障害は致命的エラーにしない: 読み込みはデフォルト値へフォールバックし、
// 書き込みは適用済みの値を返したうえで黙って諦める（ログのみ）。
type Store struct {
	repo repository.PreferenceRepository
}

// NewStore はStoreを生成する。
func NewStore(repo repository.PreferenceRepository) *Store {
	return &Store{repo: repo}
}

// Load はユーザーの表示設定を永続ストアから復元する。
// 未設定・解析不能・ストレージ障害のいずれの場合もハードコードされた
// デフォルト値 {darkMode=false, fontSize=1, contrast=1} で補完する。
// 数値は適用前に必ず許容範囲へクランプされる。
func (s *Store) Load(ctx context.Context, userID string) model.Preferences {
	prefs := model.DefaultPreferences()

	stored, err := s.repo.GetAll(ctx, userID)
	if err != nil {
		// ストレージ不可 -> デフォルトのまま。UIは劣化なしで動き続ける。
		slog.Warn("preference store unavailable, using defaults",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return prefs
	}

	if raw, ok := stored[model.PrefKeyDarkMode]; ok {
		if v, err := strconv.ParseBool(raw); err == nil {
			prefs.DarkMode = v
		} else {
			slog.Warn("unparseable darkMode preference, using default",
				slog.String("user_id", userID),
				slog.String("value", raw),
			)
		}
	}

	if raw, ok := stored[model.PrefKeyFontSize]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			prefs.FontSize = model.ClampFontSize(v)
		} else {
			slog.Warn("unparseable fontSize preference, using default",
				slog.String("user_id", userID),
				slog.String("value", raw),
			)
		}
	}

	if raw, ok := stored[model.PrefKeyContrast]; ok {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			prefs.Contrast = model.ClampContrast(v)
		} else {
			slog.Warn("unparseable contrast preference, using default",
				slog.String("user_id", userID),
				slog.String("value", raw),
			)
		}
	}

	return prefs
}

// SetDarkMode はダークモード設定をライトスルーで保存し、適用された値を返す。
func (s *Store) SetDarkMode(ctx context.Context, userID string, enabled bool) bool {
	s.set(ctx, userID, model.PrefKeyDarkMode, strconv.FormatBool(enabled))
	return enabled
}

// SetFontSize はフォントサイズを許容範囲にクランプしてから保存し、適用された値を返す。
func (s *Store) SetFontSize(ctx context.Context, userID string, size float64) float64 {
	clamped := model.ClampFontSize(size)
	s.set(ctx, userID, model.PrefKeyFontSize, formatFloat(clamped))
	return clamped
}

// SetContrast はコントラストを許容範囲にクランプしてから保存し、適用された値を返す。
func (s *Store) SetContrast(ctx context.Context, userID string, contrast float64) float64 {
	clamped := model.ClampContrast(contrast)
	s.set(ctx, userID, model.PrefKeyContrast, formatFloat(clamped))
	return clamped
}

// Language は保存済みの言語設定を返す。未設定・障害時は ("", false)。
func (s *Store) Language(ctx context.Context, userID string) (string, bool) {
	value, ok, err := s.repo.Get(ctx, userID, model.PrefKeyLanguage)
	if err != nil {
		slog.Warn("preference store unavailable for language lookup",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
		return "", false
	}
	return value, ok
}

// SetLanguage は言語設定をライトスルーで保存する。
func (s *Store) SetLanguage(ctx context.Context, userID, code string) {
	s.set(ctx, userID, model.PrefKeyLanguage, code)
}

// set は値を保存する。失敗してもエラーを伝播せず、ログのみ残す。
func (s *Store) set(ctx context.Context, userID, key, value string) {
	if err := s.repo.Set(ctx, userID, key, value); err != nil {
		slog.Warn("failed to persist preference",
			slog.String("user_id", userID),
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
