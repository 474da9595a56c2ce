// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, location, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized      = "UNAUTHORIZED"
	ErrCodeInvalidPreference = "INVALID_PREFERENCE"
	ErrCodeUnknownPreference = "UNKNOWN_PREFERENCE"
	ErrCodeInvalidLanguage   = "INVALID_LANGUAGE"
	ErrCodeLocationDenied    = "LOCATION_DENIED"
	ErrCodeSSRFBlocked       = "SSRF_BLOCKED"
	ErrCodeSchemeFetchFailed = "SCHEME_FETCH_FAILED"
	ErrCodeSchemeParseFailed = "SCHEME_PARSE_FAILED"
	ErrCodeUserNotFound      = "USER_NOT_FOUND"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "You are not signed in.",
		Category: "auth",
		Action:   "Please sign in again from the login page.",
	}
}

// NewInvalidPreferenceError は設定値が解析不能な場合のエラーを生成する。
func NewInvalidPreferenceError(key, value string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidPreference,
		Message:  fmt.Sprintf("Invalid value for preference %q: %q", key, value),
		Category: "validation",
		Action:   "Use the settings panel controls to change preferences.",
	}
}

// NewUnknownPreferenceError は未知の設定キーに対するエラーを生成する。
func NewUnknownPreferenceError(key string) *APIError {
	return &APIError{
		Code:     ErrCodeUnknownPreference,
		Message:  fmt.Sprintf("Unknown preference key: %q", key),
		Category: "validation",
		Action:   "Supported keys are darkMode, fontSize, contrast and language.",
	}
}

// NewInvalidLanguageError は未対応のロケールコードに対するエラーを生成する。
func NewInvalidLanguageError(code string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidLanguage,
		Message:  fmt.Sprintf("Unsupported language code: %q", code),
		Category: "validation",
		Action:   "Choose one of the languages offered by the language selector.",
	}
}

// NewLocationDeniedError は位置情報が取得できなかった場合のエラーを生成する。
// 位置情報なしでも機能は縮退動作するため、致命的エラーとしては扱わない。
func NewLocationDeniedError() *APIError {
	return &APIError{
		Code:     ErrCodeLocationDenied,
		Message:  "Your location could not be determined.",
		Category: "location",
		Action:   "Nearby suggestions are hidden. You can retry from the page.",
	}
}

// NewSSRFBlockedError はSSRFブロックエラーを生成する。
func NewSSRFBlockedError() *APIError {
	return &APIError{
		Code:     ErrCodeSSRFBlocked,
		Message:  "Access to the requested URL was blocked by security policy.",
		Category: "validation",
		Action:   "Only public scheme announcement feeds can be fetched.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User not found.",
		Category: "auth",
		Action:   "Please sign in again.",
	}
}
