// Package shell はルートごとのPage Shell（認証ゲート、設定ハイドレーション、
// 位置リクエスト、オーバーレイ状態）を提供する。
package shell

import (
	"context"
	"sync"
	"time"

	"github.com/anandk/sahay/internal/auth"
	"github.com/anandk/sahay/internal/model"
)

// Page はPage Shellがマウントされるルートを表す。
type Page string

const (
	PageLanding   Page = "landing"
	PageReligious Page = "religious"
	PageWellness  Page = "wellness"
	PageShopping  Page = "shopping"
	PageSchemes   Page = "schemes"
)

// Phase はPage Shellのライフサイクル状態。
type Phase int

const (
	// PhaseWelcome はランディングルートのみに存在する前段状態。タイマー駆動。
	PhaseWelcome Phase = iota
	// PhaseLoading は認証状態の解決中。
	PhaseLoading
	// PhaseReady は認証済み・ハイドレーション完了。コンテンツを描画できる。
	PhaseReady
	// PhaseRedirectLogin は未認証が確定した終端状態。保護コンテンツは一切描画しない。
	PhaseRedirectLogin
)

func (p Phase) String() string {
	switch p {
	case PhaseWelcome:
		return "welcome"
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseRedirectLogin:
		return "redirect_login"
	default:
		return "unknown"
	}
}

// AvatarMood はアシスタントアバターの表情。表示専用。
type AvatarMood string

const (
	MoodNeutral  AvatarMood = "neutral"
	MoodHappy    AvatarMood = "happy"
	MoodThinking AvatarMood = "thinking"
)

// Overlay はPage Shellごとのオーバーレイ状態レコード。
// マウントごとに新規作成され、ページ間で共有されない。
type Overlay struct {
	ShowSettings      bool
	ShowEmergencyCall bool
	AvatarMood        AvatarMood
}

// SessionResolver はセッションIDから認証状態を解決するインターフェース。
type SessionResolver interface {
	Resolve(ctx context.Context, sessionID string) auth.Resolution
}

// PreferenceService は表示設定の読み書きインターフェース。
type PreferenceService interface {
	Load(ctx context.Context, userID string) model.Preferences
	SetDarkMode(ctx context.Context, userID string, enabled bool) bool
	SetFontSize(ctx context.Context, userID string, size float64) float64
	SetContrast(ctx context.Context, userID string, contrast float64) float64
	Language(ctx context.Context, userID string) (string, bool)
	SetLanguage(ctx context.Context, userID, code string)
}

// LocationService は位置情報プロバイダーのインターフェース。
type LocationService interface {
	Request(ctx context.Context, userID string) (*model.Coordinate, error)
	Location(userID string) *model.Coordinate
	State(userID string) model.LocationState
}

// Translator は翻訳カタログのインターフェース。
type Translator interface {
	TIn(language, key string) string
	Language() string
	Has(language string) bool
	SetLanguage(code string) error
	Subscribe(fn func(language string)) (unsubscribe func())
}

// HeadingScaleFactor は見出しのフォント倍率。本文フォントサイズに掛ける。
const HeadingScaleFactor = 1.5

// Factory はプロセス全体で共有されるプロバイダー群を保持し、
// マウントごとにPage Shellを生成する。
type Factory struct {
	auth       SessionResolver
	prefs      PreferenceService
	location   LocationService
	translator Translator

	welcomeDuration time.Duration

	// RedirectHook は未認証リダイレクトの発生時に呼ばれる（省略可）。
	RedirectHook func(page Page)
	// ReadyHook はShellがReadyに到達したとき呼ばれる（省略可）。
	ReadyHook func(page Page)
}

// NewFactory はFactoryを生成する。
// welcomeDurationはランディングルートのウェルカム表示時間（テストではミリ秒を注入する）。
func NewFactory(
	authResolver SessionResolver,
	prefs PreferenceService,
	location LocationService,
	translator Translator,
	welcomeDuration time.Duration,
) *Factory {
	return &Factory{
		auth:            authResolver,
		prefs:           prefs,
		location:        location,
		translator:      translator,
		welcomeDuration: welcomeDuration,
	}
}

// Shell は1回のマウントに対応するPage Shellインスタンス。
// 認証ゲート -> ハイドレーション -> 位置リクエストの順序を保証し、
// オーバーレイ状態を排他的に所有する。
type Shell struct {
	factory *Factory
	page    Page

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	phase    Phase
	user     *model.User
	prefs    model.Preferences
	overlay  Overlay
	language string

	// locationRequested はこのマウントで位置リクエストを発行済みかどうか。
	// マウントごとに最大1回のリクエストを保証する。
	locationRequested bool
	// locationDone は位置リクエストのゴルーチンが終了するとcloseされる。
	locationDone chan struct{}

	unsubscribe func()
	unmountOnce sync.Once
}

// Mount はPage Shellを生成し、ライフサイクルを確定状態まで進める。
//
// 認証チェックは保護コンテンツの描画と位置リクエストより必ず先に
// 観測される。未認証が確定した場合はPhaseRedirectLoginで終端し、
// 設定の読み込みも位置リクエストも行わない。
func (f *Factory) Mount(ctx context.Context, page Page, sessionID string) *Shell {
	shellCtx, cancel := context.WithCancel(ctx)
	s := &Shell{
		factory:      f,
		page:         page,
		ctx:          shellCtx,
		cancel:       cancel,
		phase:        PhaseLoading,
		prefs:        model.DefaultPreferences(),
		overlay:      Overlay{AvatarMood: MoodNeutral},
		language:     f.translator.Language(),
		locationDone: make(chan struct{}),
	}

	if page == PageLanding {
		s.phase = PhaseWelcome
		select {
		case <-shellCtx.Done():
			close(s.locationDone)
			return s
		case <-time.After(f.welcomeDuration):
		}
		s.overlay.AvatarMood = MoodHappy
		s.phase = PhaseLoading
	}

	res := f.auth.Resolve(shellCtx, sessionID)
	switch res.State {
	case auth.StateUnauthenticated:
		s.phase = PhaseRedirectLogin
		close(s.locationDone)
		if f.RedirectHook != nil {
			f.RedirectHook(page)
		}
		return s
	case auth.StateUnknown:
		// 解決が実行できなかった。リダイレクトはせず、ローディング表示に留める。
		s.phase = PhaseLoading
		s.overlay.AvatarMood = MoodThinking
		close(s.locationDone)
		return s
	}

	s.user = res.User
	s.hydrate()
	s.subscribeLanguage()
	s.requestLocationIfAbsent()

	s.mu.Lock()
	s.phase = PhaseReady
	s.mu.Unlock()

	if f.ReadyHook != nil {
		f.ReadyHook(page)
	}
	return s
}

// hydrate は永続ストアから表示設定と言語を1回だけ読み込む。
func (s *Shell) hydrate() {
	s.prefs = s.factory.prefs.Load(s.ctx, s.user.ID)

	if code, ok := s.factory.prefs.Language(s.ctx, s.user.ID); ok && s.factory.translator.Has(code) {
		s.language = code
	}
}

// subscribeLanguage はプロセス全体の言語切り替え通知を購読する。
// 通知は同期的で、SetLanguageが返った時点でこのShellの解決言語も更新済み。
func (s *Shell) subscribeLanguage() {
	s.unsubscribe = s.factory.translator.Subscribe(func(language string) {
		s.mu.Lock()
		s.language = language
		s.mu.Unlock()
	})
}

// requestLocationIfAbsent は位置が未取得の場合に限り、このマウントで
// 1回だけ位置リクエストを発行する。リクエストは非同期で、拒否・失敗は
// 位置を不在のままにする（エラーにしない）。
func (s *Shell) requestLocationIfAbsent() {
	if s.factory.location.Location(s.user.ID) != nil || s.locationRequested {
		close(s.locationDone)
		return
	}
	s.locationRequested = true

	userID := s.user.ID
	go func() {
		defer close(s.locationDone)
		// 拒否・失敗はProvider側でログ済み。Shellは結果を待つだけで、
		// 位置の有無はViewがProviderから読み直す。
		s.factory.location.Request(s.ctx, userID) //nolint:errcheck
	}()
}

// Unmount はShellを破棄する。実行中の位置リクエストをキャンセルし、
// 言語購読を解除する。冪等。
func (s *Shell) Unmount() {
	s.unmountOnce.Do(func() {
		s.cancel()
		if s.unsubscribe != nil {
			s.unsubscribe()
		}
	})
}

// Phase は現在のライフサイクル状態を返す。
func (s *Shell) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.phase
}

// User は認証済みユーザーを返す。未認証・ログアウト後はnil。
func (s *Shell) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// Preferences は現在の表示設定を返す。
func (s *Shell) Preferences() model.Preferences {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prefs
}

// Language はこのShellの解決言語を返す。
func (s *Shell) Language() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.language
}

// T はこのShellの解決言語で翻訳キーを解決する。
func (s *Shell) T(key string) string {
	return s.factory.translator.TIn(s.Language(), key)
}

// SetLanguage はプロセス全体の言語を切り替え、ユーザーの言語設定を永続化する。
// 未対応の言語コードの場合はエラーを返し、何も変更されない。
func (s *Shell) SetLanguage(code string) error {
	if err := s.factory.translator.SetLanguage(code); err != nil {
		return err
	}
	// 購読通知でs.languageは更新済み
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user != nil {
		s.factory.prefs.SetLanguage(s.ctx, user.ID, code)
	}
	return nil
}

// SetDarkMode はダークモードをライトスルーで更新し、適用された値を返す。
func (s *Shell) SetDarkMode(enabled bool) bool {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return enabled
	}
	applied := s.factory.prefs.SetDarkMode(s.ctx, user.ID, enabled)
	s.mu.Lock()
	s.prefs.DarkMode = applied
	s.mu.Unlock()
	return applied
}

// SetFontSize はフォントサイズをクランプ・ライトスルーで更新し、適用された値を返す。
func (s *Shell) SetFontSize(size float64) float64 {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return model.ClampFontSize(size)
	}
	applied := s.factory.prefs.SetFontSize(s.ctx, user.ID, size)
	s.mu.Lock()
	s.prefs.FontSize = applied
	s.mu.Unlock()
	return applied
}

// SetContrast はコントラストをクランプ・ライトスルーで更新し、適用された値を返す。
func (s *Shell) SetContrast(contrast float64) float64 {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return model.ClampContrast(contrast)
	}
	applied := s.factory.prefs.SetContrast(s.ctx, user.ID, contrast)
	s.mu.Lock()
	s.prefs.Contrast = applied
	s.mu.Unlock()
	return applied
}

// ToggleSettings は設定パネルの表示を切り替え、切り替え後の値を返す。
func (s *Shell) ToggleSettings() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay.ShowSettings = !s.overlay.ShowSettings
	return s.overlay.ShowSettings
}

// ToggleEmergencyCall は緊急通話オーバーレイの表示を切り替え、切り替え後の値を返す。
// 閉じてもSessionやPreferencesへの副作用はない。
func (s *Shell) ToggleEmergencyCall() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay.ShowEmergencyCall = !s.overlay.ShowEmergencyCall
	return s.overlay.ShowEmergencyCall
}

// EmergencyContact は緊急通話オーバーレイに表示する連絡先を返す。
// ユーザーに連絡先が未登録の場合、またはログアウト後は固定の
// フォールバック連絡先を返す（クラッシュさせない）。
func (s *Shell) EmergencyContact() model.EmergencyContact {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil && s.user.EmergencyContact != nil {
		return *s.user.EmergencyContact
	}
	return model.DefaultEmergencyContact()
}

// Logout はこのShellが保持するユーザーへの参照をすべて取り除く。
// セッション自体の破棄は認証サービス側で行われる。オーバーレイは閉じ、
// 緊急連絡先はフォールバックに戻る。
func (s *Shell) Logout() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	s.overlay.ShowSettings = false
	s.overlay.ShowEmergencyCall = false
	s.overlay.AvatarMood = MoodNeutral
}

// HeadingScale は見出しの描画倍率を返す（1.5 × フォントサイズ）。
func (s *Shell) HeadingScale() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return HeadingScaleFactor * s.prefs.FontSize
}
