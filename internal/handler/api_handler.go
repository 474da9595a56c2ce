package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/anandk/sahay/internal/middleware"
	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
	"github.com/anandk/sahay/internal/shell"
)

// EmergencyContactUpdater は緊急連絡先の更新インターフェース。
type EmergencyContactUpdater interface {
	UpdateEmergencyContact(ctx context.Context, userID string, contact *model.EmergencyContact) error
}

// APIHandler はJSON APIのハンドラー群。
// 全エンドポイントはセッションミドルウェアの背後に置かれ、
// コンテキストからユーザーIDを取得する。
type APIHandler struct {
	prefs      shell.PreferenceService
	translator shell.Translator
	location   shell.LocationService
	userRepo   repository.UserRepository
	contacts   EmergencyContactUpdater
}

// NewAPIHandler はAPIHandlerを生成する。
func NewAPIHandler(
	prefs shell.PreferenceService,
	translator shell.Translator,
	location shell.LocationService,
	userRepo repository.UserRepository,
	contacts EmergencyContactUpdater,
) *APIHandler {
	return &APIHandler{
		prefs:      prefs,
		translator: translator,
		location:   location,
		userRepo:   userRepo,
		contacts:   contacts,
	}
}

// preferencesResponse は表示設定のレスポンスボディ。
type preferencesResponse struct {
	DarkMode bool    `json:"darkMode"`
	FontSize float64 `json:"fontSize"`
	Contrast float64 `json:"contrast"`
	Language string  `json:"language"`
}

// GetPreferences は現在の表示設定を返す。
// GET /api/preferences
func (h *APIHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	prefs := h.prefs.Load(r.Context(), userID)
	language, stored := h.prefs.Language(r.Context(), userID)
	if !stored || !h.translator.Has(language) {
		language = h.translator.Language()
	}

	writeJSON(w, http.StatusOK, preferencesResponse{
		DarkMode: prefs.DarkMode,
		FontSize: prefs.FontSize,
		Contrast: prefs.Contrast,
		Language: language,
	})
}

// updatePreferencesRequest は部分更新リクエスト。省略されたキーは変更しない。
type updatePreferencesRequest struct {
	DarkMode *bool    `json:"darkMode"`
	FontSize *float64 `json:"fontSize"`
	Contrast *float64 `json:"contrast"`
}

// UpdatePreferences は表示設定を部分更新する。
// 範囲外の値はクランプして保存し、クランプ後の値を返す。
// PUT /api/preferences
func (h *APIHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updatePreferencesRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		if key, unknown := unknownFieldKey(err); unknown {
			middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewUnknownPreferenceError(key))
			return
		}
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidPreferenceError("body", err.Error()))
		return
	}

	if req.DarkMode != nil {
		h.prefs.SetDarkMode(r.Context(), userID, *req.DarkMode)
	}
	if req.FontSize != nil {
		h.prefs.SetFontSize(r.Context(), userID, *req.FontSize)
	}
	if req.Contrast != nil {
		h.prefs.SetContrast(r.Context(), userID, *req.Contrast)
	}

	prefs := h.prefs.Load(r.Context(), userID)
	language, stored := h.prefs.Language(r.Context(), userID)
	if !stored || !h.translator.Has(language) {
		language = h.translator.Language()
	}

	writeJSON(w, http.StatusOK, preferencesResponse{
		DarkMode: prefs.DarkMode,
		FontSize: prefs.FontSize,
		Contrast: prefs.Contrast,
		Language: language,
	})
}

// updateLanguageRequest は言語切り替えリクエスト。
type updateLanguageRequest struct {
	Language string `json:"language"`
}

// UpdateLanguage はプロセス全体の表示言語を切り替え、設定として永続化する。
// PUT /api/language
func (h *APIHandler) UpdateLanguage(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateLanguageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidLanguageError(""))
		return
	}

	if err := h.translator.SetLanguage(req.Language); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest, model.NewInvalidLanguageError(req.Language))
		return
	}

	h.prefs.SetLanguage(r.Context(), userID, req.Language)

	writeJSON(w, http.StatusOK, map[string]string{"language": req.Language})
}

// locationResponse は位置リクエストのレスポンスボディ。
// 位置が取得できなくても200で返し、locationはnullになる。
type locationResponse struct {
	Location        *model.Coordinate `json:"location"`
	RequestInFlight bool              `json:"requestInFlight"`
}

// RequestLocation はユーザーの位置取得を要求する。
// 拒否は縮退動作でありエラーにしない。既知位置があれば即座に返す。
// POST /api/location/request
func (h *APIHandler) RequestLocation(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	if _, err := h.location.Request(r.Context(), userID); err != nil {
		// 拒否以外の失敗もlocation:nullの縮退レスポンスで返す
		slog.Warn("location request failed",
			slog.String("user_id", userID),
			slog.String("error", err.Error()),
		)
	}

	state := h.location.State(userID)
	writeJSON(w, http.StatusOK, locationResponse{
		Location:        state.Location,
		RequestInFlight: state.RequestInFlight,
	})
}

// emergencyContactResponse は緊急連絡先のレスポンスボディ。
// fallbackは登録済み連絡先がなくデフォルトを返したことを示す。
type emergencyContactResponse struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Fallback bool   `json:"fallback"`
}

// GetEmergencyContact は緊急連絡先を返す。未登録時はデフォルト連絡先を返す。
// GET /api/emergency-contact
func (h *APIHandler) GetEmergencyContact(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.userRepo.FindByID(r.Context(), userID)
	if err != nil {
		slog.Error("failed to find user", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	if user == nil {
		middleware.WriteErrorResponse(w, http.StatusNotFound, model.NewUserNotFoundError())
		return
	}

	if user.EmergencyContact == nil {
		fallback := model.DefaultEmergencyContact()
		writeJSON(w, http.StatusOK, emergencyContactResponse{
			Name:     fallback.Name,
			Phone:    fallback.Phone,
			Fallback: true,
		})
		return
	}

	writeJSON(w, http.StatusOK, emergencyContactResponse{
		Name:  user.EmergencyContact.Name,
		Phone: user.EmergencyContact.Phone,
	})
}

// updateEmergencyContactRequest は緊急連絡先の更新リクエスト。
type updateEmergencyContactRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// UpdateEmergencyContact は緊急連絡先を登録・更新する。
// PUT /api/emergency-contact
func (h *APIHandler) UpdateEmergencyContact(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req updateEmergencyContactRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidPreferenceError("emergencyContact", err.Error()))
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Phone = strings.TrimSpace(req.Phone)
	if req.Name == "" || req.Phone == "" {
		middleware.WriteErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidPreferenceError("emergencyContact", "name and phone are required"))
		return
	}

	contact := &model.EmergencyContact{Name: req.Name, Phone: req.Phone}
	if err := h.contacts.UpdateEmergencyContact(r.Context(), userID, contact); err != nil {
		slog.Error("failed to update emergency contact", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}

	writeJSON(w, http.StatusOK, emergencyContactResponse{
		Name:  contact.Name,
		Phone: contact.Phone,
	})
}

// unknownFieldKey はjsonデコードエラーから未知フィールド名を取り出す。
func unknownFieldKey(err error) (string, bool) {
	const prefix = `json: unknown field `
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	key, unquoteErr := strconv.Unquote(strings.TrimPrefix(msg, prefix))
	if unquoteErr != nil {
		return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
	}
	return key, true
}

// writeJSON はJSONレスポンスを書き出す共通ヘルパー。
func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Error("failed to encode response", slog.String("error", err.Error()))
	}
}
