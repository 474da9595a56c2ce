package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/anandk/sahay/internal/location"
	"github.com/anandk/sahay/internal/middleware"
	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
)

// mockUserRepo はユーザーリポジトリのモック実装。
type mockUserRepo struct {
	FindByIDFunc               func(ctx context.Context, id string) (*model.User, error)
	UpdateEmergencyContactFunc func(ctx context.Context, userID string, contact *model.EmergencyContact) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(_ context.Context, _ *model.User, _ *model.Identity) error {
	return nil
}

func (m *mockUserRepo) UpdateEmergencyContact(ctx context.Context, userID string, contact *model.EmergencyContact) error {
	if m.UpdateEmergencyContactFunc != nil {
		return m.UpdateEmergencyContactFunc(ctx, userID, contact)
	}
	return nil
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

// newTestAPIHandler はAPIHandlerとその依存を組み立てる。
func newTestAPIHandler(t *testing.T, geocoder location.Geocoder, userRepo *mockUserRepo) (*APIHandler, *fakePrefService, *location.Provider) {
	t.Helper()
	catalog := newTestCatalog(t)
	prefs := newFakePrefService()
	provider := location.NewProvider(geocoder)
	h := NewAPIHandler(prefs, catalog, provider, userRepo, userRepo)
	return h, prefs, provider
}

// userRequest は認証済みユーザーIDをコンテキストに持つリクエストを作る。
func userRequest(method, target, body string) *http.Request {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	return req.WithContext(middleware.ContextWithUserID(req.Context(), "user-1"))
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestGetPreferences_ReturnsDefaultsForNewUser(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.GetPreferences(rec, userRequest(http.MethodGet, "/api/preferences", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got preferencesResponse
	decodeBody(t, rec, &got)
	if got.DarkMode || got.FontSize != 1.0 || got.Contrast != 1.0 {
		t.Errorf("preferences = %+v, want defaults", got)
	}
	if got.Language != "en" {
		t.Errorf("language = %q, want en", got.Language)
	}
}

func TestGetPreferences_RequiresUserID(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	req := httptest.NewRequest(http.MethodGet, "/api/preferences", nil)
	rec := httptest.NewRecorder()
	h.GetPreferences(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestUpdatePreferences_PartialUpdateClampsOutOfRange(t *testing.T) {
	h, prefs, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})
	prefs.SetDarkMode(context.Background(), "user-1", true)

	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, userRequest(http.MethodPut, "/api/preferences", `{"fontSize": 9.0}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got preferencesResponse
	decodeBody(t, rec, &got)
	if got.FontSize != model.FontSizeMax {
		t.Errorf("fontSize = %v, want clamped %v", got.FontSize, model.FontSizeMax)
	}
	// 省略されたキーは変更しない
	if !got.DarkMode {
		t.Error("darkMode should be untouched by a partial update")
	}
}

func TestUpdatePreferences_UnknownKeyRejected(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, userRequest(http.MethodPut, "/api/preferences", `{"fontWeight": "bold"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	body := rec.Body.String()
	if !strings.Contains(body, model.ErrCodeUnknownPreference) {
		t.Errorf("body = %q, want code %s", body, model.ErrCodeUnknownPreference)
	}
	if !strings.Contains(body, "fontWeight") {
		t.Errorf("body = %q, want the offending key named", body)
	}
}

func TestUpdatePreferences_MalformedBodyRejected(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.UpdatePreferences(rec, userRequest(http.MethodPut, "/api/preferences", `{"fontSize": `))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateLanguage_SwitchesCatalogAndPersists(t *testing.T) {
	h, prefs, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.UpdateLanguage(rec, userRequest(http.MethodPut, "/api/language", `{"language": "hi"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if lang, ok := prefs.Language(context.Background(), "user-1"); !ok || lang != "hi" {
		t.Errorf("persisted language = %q (stored=%v), want hi", lang, ok)
	}
}

func TestUpdateLanguage_UnsupportedCodeRejected(t *testing.T) {
	h, prefs, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.UpdateLanguage(rec, userRequest(http.MethodPut, "/api/language", `{"language": "fr"}`))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if !strings.Contains(rec.Body.String(), model.ErrCodeInvalidLanguage) {
		t.Errorf("body = %q, want code %s", rec.Body.String(), model.ErrCodeInvalidLanguage)
	}
	if _, ok := prefs.Language(context.Background(), "user-1"); ok {
		t.Error("unsupported language should not be persisted")
	}
}

func TestRequestLocation_ReturnsCoordinate(t *testing.T) {
	coord := &model.Coordinate{Lat: 28.6315, Lng: 77.2167}
	geocoder := &stubGeocoder{
		LocateFunc: func(_ context.Context, _ string) (*model.Coordinate, error) {
			return coord, nil
		},
	}
	h, _, _ := newTestAPIHandler(t, geocoder, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.RequestLocation(rec, userRequest(http.MethodPost, "/api/location/request", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got locationResponse
	decodeBody(t, rec, &got)
	if got.Location == nil || got.Location.Lat != coord.Lat || got.Location.Lng != coord.Lng {
		t.Errorf("location = %+v, want %+v", got.Location, coord)
	}
}

func TestRequestLocation_DenialIsNotAnError(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.RequestLocation(rec, userRequest(http.MethodPost, "/api/location/request", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got locationResponse
	decodeBody(t, rec, &got)
	if got.Location != nil {
		t.Errorf("location = %+v, want null after denial", got.Location)
	}
	if got.RequestInFlight {
		t.Error("requestInFlight should be false after a settled denial")
	}
}

func TestGetEmergencyContact_FallsBackWhenUnregistered(t *testing.T) {
	userRepo := &mockUserRepo{
		FindByIDFunc: func(_ context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Amma"}, nil
		},
	}
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, userRepo)

	rec := httptest.NewRecorder()
	h.GetEmergencyContact(rec, userRequest(http.MethodGet, "/api/emergency-contact", ""))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}

	var got emergencyContactResponse
	decodeBody(t, rec, &got)
	fallback := model.DefaultEmergencyContact()
	if got.Name != fallback.Name || got.Phone != fallback.Phone {
		t.Errorf("contact = %+v, want fallback %+v", got, fallback)
	}
	if !got.Fallback {
		t.Error("fallback flag should be set for the default contact")
	}
}

func TestGetEmergencyContact_UserNotFound(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.GetEmergencyContact(rec, userRequest(http.MethodGet, "/api/emergency-contact", ""))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestUpdateEmergencyContact_RequiresNameAndPhone(t *testing.T) {
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, &mockUserRepo{})

	rec := httptest.NewRecorder()
	h.UpdateEmergencyContact(rec, userRequest(http.MethodPut, "/api/emergency-contact", `{"name": "  ", "phone": ""}`))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestUpdateEmergencyContact_UpdatesThroughService(t *testing.T) {
	var gotContact *model.EmergencyContact
	userRepo := &mockUserRepo{
		UpdateEmergencyContactFunc: func(_ context.Context, userID string, contact *model.EmergencyContact) error {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			gotContact = contact
			return nil
		},
	}
	h, _, _ := newTestAPIHandler(t, &stubGeocoder{}, userRepo)

	rec := httptest.NewRecorder()
	h.UpdateEmergencyContact(rec, userRequest(http.MethodPut, "/api/emergency-contact",
		`{"name": "Priya", "phone": "+91 91234 56789"}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotContact == nil || gotContact.Name != "Priya" || gotContact.Phone != "+91 91234 56789" {
		t.Errorf("stored contact = %+v, want Priya / +91 91234 56789", gotContact)
	}
}

func TestUnknownFieldKey_ParsesDecoderError(t *testing.T) {
	var req updatePreferencesRequest
	decoder := json.NewDecoder(strings.NewReader(`{"volume": 5}`))
	decoder.DisallowUnknownFields()
	err := decoder.Decode(&req)
	if err == nil {
		t.Fatal("expected a decode error")
	}

	key, unknown := unknownFieldKey(err)
	if !unknown || key != "volume" {
		t.Errorf("unknownFieldKey() = (%q, %v), want (volume, true)", key, unknown)
	}
}
