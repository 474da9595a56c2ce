package handler

import (
	"bytes"
	"embed"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/anandk/sahay/internal/middleware"
	"github.com/anandk/sahay/internal/mode"
	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
	"github.com/anandk/sahay/internal/shell"
)

//go:embed templates/*.html
var templatesFS embed.FS

// schemeListLimit は制度ページに表示する最大件数。
const schemeListLimit = 20

// pageData はテンプレートに渡す描画データ。
type pageData struct {
	View    shell.ViewState
	Content mode.Content

	translate func(key string) string
}

// T は現在の言語でキーを翻訳する。テンプレートから呼ばれる。
func (d pageData) T(key string) string {
	return d.translate(key)
}

// PageHandler はサーバーレンダリングされる各ページのハンドラー。
// ページのゲーティングはPage Shellが行い、未認証時はここで303を返す。
type PageHandler struct {
	factory    *shell.Factory
	translator shell.Translator
	schemeRepo repository.SchemeRepository
	stores     []model.Store
	templates  map[string]*template.Template
}

// NewPageHandler はPageHandlerを生成し、埋め込みテンプレートを解析する。
func NewPageHandler(
	factory *shell.Factory,
	translator shell.Translator,
	schemeRepo repository.SchemeRepository,
	stores []model.Store,
) (*PageHandler, error) {
	pages := map[string]string{
		"landing": "templates/landing.html",
		"mode":    "templates/mode.html",
		"login":   "templates/login.html",
	}

	templates := make(map[string]*template.Template, len(pages))
	for name, file := range pages {
		tmpl, err := template.ParseFS(templatesFS, "templates/layout.html", file)
		if err != nil {
			return nil, err
		}
		templates[name] = tmpl
	}

	return &PageHandler{
		factory:    factory,
		translator: translator,
		schemeRepo: schemeRepo,
		stores:     stores,
		templates:  templates,
	}, nil
}

// Landing はランディングページを描画する。
// GET /
func (h *PageHandler) Landing(w http.ResponseWriter, r *http.Request) {
	h.renderShellPage(w, r, shell.PageLanding)
}

// Religious は宗教モードページを描画する。
// GET /religious
func (h *PageHandler) Religious(w http.ResponseWriter, r *http.Request) {
	h.renderShellPage(w, r, shell.PageReligious)
}

// Wellness は健康モードページを描画する。
// GET /wellness
func (h *PageHandler) Wellness(w http.ResponseWriter, r *http.Request) {
	h.renderShellPage(w, r, shell.PageWellness)
}

// Shopping は買い物モードページを描画する。
// GET /shopping
func (h *PageHandler) Shopping(w http.ResponseWriter, r *http.Request) {
	h.renderShellPage(w, r, shell.PageShopping)
}

// Schemes は政府制度モードページを描画する。
// GET /schemes
func (h *PageHandler) Schemes(w http.ResponseWriter, r *http.Request) {
	h.renderShellPage(w, r, shell.PageSchemes)
}

// Login はログインページを描画する。Shellを経由しない唯一のページ。
// GET /login
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	language := h.translator.Language()
	data := pageData{
		View: shell.ViewState{
			Page:             "login",
			Phase:            shell.PhaseReady,
			Language:         language,
			Prefs:            model.DefaultPreferences(),
			HeadingScale:     shell.HeadingScaleFactor,
			Overlay:          shell.Overlay{AvatarMood: shell.MoodNeutral},
			EmergencyContact: model.DefaultEmergencyContact(),
		},
		translate: func(key string) string {
			return h.translator.TIn(language, key)
		},
	}
	h.render(w, "login", data)
}

// renderShellPage はShellをマウントしてページを描画する共通処理。
// Shellが未認証リダイレクトで終端した場合は/loginへ303を返す。
func (h *PageHandler) renderShellPage(w http.ResponseWriter, r *http.Request, page shell.Page) {
	s := h.factory.Mount(r.Context(), page, middleware.ReadSessionID(r))
	defer s.Unmount()

	if s.Phase() == shell.PhaseRedirectLogin {
		http.Redirect(w, r, "/login", http.StatusSeeOther)
		return
	}

	view := s.View()
	in := mode.Input{
		DarkMode: view.Prefs.DarkMode,
		FontSize: view.Prefs.FontSize,
		Location: view.Location,
	}

	tmplName := "mode"
	var content mode.Content
	switch page {
	case shell.PageLanding:
		tmplName = "landing"
	case shell.PageReligious:
		content = mode.Religious(in)
	case shell.PageWellness:
		content = mode.Wellness(in)
	case shell.PageShopping:
		content = mode.Shopping(in, h.stores)
	case shell.PageSchemes:
		content = mode.Schemes(in, h.recentSchemes(r))
	}

	data := pageData{
		View:      view,
		Content:   content,
		translate: s.T,
	}
	h.render(w, tmplName, data)
}

// recentSchemes は最新の制度告知を取得する。失敗時は空リストで劣化表示する。
func (h *PageHandler) recentSchemes(r *http.Request) []model.Scheme {
	rows, err := h.schemeRepo.ListRecent(r.Context(), schemeListLimit)
	if err != nil {
		slog.Error("failed to list schemes", slog.String("error", err.Error()))
		return nil
	}
	schemes := make([]model.Scheme, 0, len(rows))
	for _, s := range rows {
		schemes = append(schemes, *s)
	}
	return schemes
}

// render はテンプレートをバッファへ実行してから書き出す。
func (h *PageHandler) render(w http.ResponseWriter, name string, data pageData) {
	tmpl, ok := h.templates[name]
	if !ok {
		slog.Error("unknown page template", slog.String("template", name))
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		slog.Error("failed to render page",
			slog.String("template", name),
			slog.String("error", err.Error()),
		)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	buf.WriteTo(w)
}
