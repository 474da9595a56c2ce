package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/anandk/sahay/internal/metrics"
	"github.com/anandk/sahay/internal/middleware"
	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
	"github.com/anandk/sahay/internal/shell"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	SessionFinder     middleware.SessionFinder
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	CSRFConfig        middleware.CSRFConfig

	// 認証
	AuthService AuthServiceInterface
	AuthConfig  AuthHandlerConfig

	// Page Shellとページ描画
	ShellFactory *shell.Factory
	Translator   shell.Translator
	SchemeRepo   repository.SchemeRepository
	Stores       []model.Store

	// API
	Prefs           shell.PreferenceService
	Location        shell.LocationService
	LocationClearer LocationClearer
	UserRepo        repository.UserRepository
	Contacts        EmergencyContactUpdater

	// メトリクス
	Gatherer prometheus.Gatherer
}

// NewRouter は全ルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// 外側のミドルウェアスタック（全ルート共通）:
//
//	Recovery → SecurityHeaders → Logging → CORS
//
// ページルートはセッションミドルウェアの外に置く。ゲーティングは
// Page Shellが行い、未認証時はページハンドラーが303を返す。
// JSON API（/api/*）のみ Session → CSRF → RateLimit(General) の背後に置く。
func NewRouter(deps *RouterDeps) (http.Handler, error) {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))

	authHandler := NewAuthHandler(deps.AuthService, deps.LocationClearer, deps.AuthConfig)
	apiHandler := NewAPIHandler(deps.Prefs, deps.Translator, deps.Location, deps.UserRepo, deps.Contacts)
	pageHandler, err := NewPageHandler(deps.ShellFactory, deps.Translator, deps.SchemeRepo, deps.Stores)
	if err != nil {
		return nil, err
	}

	// --- サーバーレンダリングされるページ ---
	r.Get("/", pageHandler.Landing)
	r.Get("/religious", pageHandler.Religious)
	r.Get("/wellness", pageHandler.Wellness)
	r.Get("/shopping", pageHandler.Shopping)
	r.Get("/schemes", pageHandler.Schemes)
	r.Get("/login", pageHandler.Login)

	// --- 認証ルート（OAuthフロー） ---
	r.Route("/auth", func(r chi.Router) {
		r.Get("/google/login", authHandler.Login)
		r.Get("/google/callback", authHandler.Callback)
		r.Post("/logout", authHandler.Logout)
		r.Get("/me", authHandler.Me)
	})

	// --- JSON API ---
	// ミドルウェアスタック: Session → CSRF → RateLimit(General)
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAPISessionMiddleware(deps.SessionFinder))
		r.Use(middleware.NewCSRFMiddleware(deps.CSRFConfig))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		r.Route("/api", func(r chi.Router) {
			r.Get("/preferences", apiHandler.GetPreferences)
			r.Put("/preferences", apiHandler.UpdatePreferences)
			r.Put("/language", apiHandler.UpdateLanguage)

			// POST /api/location/request - 位置リクエスト（専用レート制限を追加）
			r.With(deps.RateLimiter.LocationMiddleware()).Post("/location/request", apiHandler.RequestLocation)

			r.Get("/emergency-contact", apiHandler.GetEmergencyContact)
			r.Put("/emergency-contact", apiHandler.UpdateEmergencyContact)
		})
	})

	// CSRFトークン配布はセッション必須だがCSRF検証の対象外
	r.With(middleware.NewAPISessionMiddleware(deps.SessionFinder)).
		Get("/api/csrf-token", middleware.NewCSRFTokenHandler(deps.CSRFConfig).ServeHTTP)

	// --- 運用エンドポイント ---
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler(deps.Gatherer))

	return r, nil
}
