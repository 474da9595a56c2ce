package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/anandk/sahay/internal/model"
	"github.com/anandk/sahay/internal/repository"
)

// --- モック定義 ---

type mockUserRepo struct {
	findByIDFn               func(ctx context.Context, id string) (*model.User, error)
	createWithIdentityFn     func(ctx context.Context, user *model.User, identity *model.Identity) error
	updateEmergencyContactFn func(ctx context.Context, userID string, contact *model.EmergencyContact) error
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) CreateWithIdentity(ctx context.Context, user *model.User, identity *model.Identity) error {
	if m.createWithIdentityFn != nil {
		return m.createWithIdentityFn(ctx, user, identity)
	}
	return nil
}

func (m *mockUserRepo) UpdateEmergencyContact(ctx context.Context, userID string, contact *model.EmergencyContact) error {
	if m.updateEmergencyContactFn != nil {
		return m.updateEmergencyContactFn(ctx, userID, contact)
	}
	return nil
}

type mockIdentityRepo struct {
	findByProviderFn func(ctx context.Context, provider, providerUserID string) (*model.Identity, error)
}

func (m *mockIdentityRepo) FindByProviderAndProviderUserID(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
	if m.findByProviderFn != nil {
		return m.findByProviderFn(ctx, provider, providerUserID)
	}
	return nil, nil
}

type mockSessionRepo struct {
	createFn         func(ctx context.Context, session *model.Session) error
	findByIDFn       func(ctx context.Context, id string) (*model.Session, error)
	deleteByIDFn     func(ctx context.Context, id string) error
	deleteByUserIDFn func(ctx context.Context, userID string) error
}

func (m *mockSessionRepo) Create(ctx context.Context, session *model.Session) error {
	if m.createFn != nil {
		return m.createFn(ctx, session)
	}
	return nil
}

func (m *mockSessionRepo) FindByID(ctx context.Context, id string) (*model.Session, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockSessionRepo) DeleteByID(ctx context.Context, id string) error {
	if m.deleteByIDFn != nil {
		return m.deleteByIDFn(ctx, id)
	}
	return nil
}

func (m *mockSessionRepo) DeleteByUserID(ctx context.Context, userID string) error {
	if m.deleteByUserIDFn != nil {
		return m.deleteByUserIDFn(ctx, userID)
	}
	return nil
}

type mockOAuthProvider struct {
	getLoginURLFn  func(state string) string
	exchangeCodeFn func(ctx context.Context, code string) (*OAuthUserInfo, error)
}

func (m *mockOAuthProvider) GetLoginURL(state string) string {
	if m.getLoginURLFn != nil {
		return m.getLoginURLFn(state)
	}
	return ""
}

func (m *mockOAuthProvider) ExchangeCode(ctx context.Context, code string) (*OAuthUserInfo, error) {
	if m.exchangeCodeFn != nil {
		return m.exchangeCodeFn(ctx, code)
	}
	return nil, nil
}

// --- compile-time interface checks ---
var _ repository.UserRepository = (*mockUserRepo)(nil)
var _ repository.IdentityRepository = (*mockIdentityRepo)(nil)
var _ repository.SessionRepository = (*mockSessionRepo)(nil)
var _ OAuthProvider = (*mockOAuthProvider)(nil)

// --- Resolve テスト ---

func TestResolve_EmptySessionID_IsUnauthenticated(t *testing.T) {
	svc := NewService(nil, nil, nil, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400})

	res := svc.Resolve(context.Background(), "")

	if res.State != StateUnauthenticated {
		t.Errorf("State = %v, want %v", res.State, StateUnauthenticated)
	}
	if res.User != nil {
		t.Error("User should be nil for unauthenticated resolution")
	}
}

func TestResolve_ValidSession_IsAuthenticatedWithUser(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return &model.Session{ID: id, UserID: "user-1", ExpiresAt: time.Now().Add(time.Hour)}, nil
		},
	}
	userRepo := &mockUserRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Name: "Asha"}, nil
		},
	}
	svc := NewService(nil, userRepo, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	res := svc.Resolve(context.Background(), "session-1")

	if res.State != StateAuthenticated {
		t.Fatalf("State = %v, want %v", res.State, StateAuthenticated)
	}
	if res.User == nil || res.User.ID != "user-1" {
		t.Errorf("User = %+v, want user-1", res.User)
	}
}

func TestResolve_ExpiredSession_IsUnauthenticated(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			// 期限切れ -> リポジトリはnilを返す
			return nil, nil
		},
	}
	svc := NewService(nil, nil, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	res := svc.Resolve(context.Background(), "expired")

	if res.State != StateUnauthenticated {
		t.Errorf("State = %v, want %v", res.State, StateUnauthenticated)
	}
}

func TestResolve_RepositoryError_ResolvesToUnauthenticated(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Session, error) {
			return nil, errors.New("db down")
		},
	}
	svc := NewService(nil, nil, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	// 解決失敗は曖昧なまま残さず、未認証（リダイレクト）に倒す
	res := svc.Resolve(context.Background(), "session-1")

	if res.State != StateUnauthenticated {
		t.Errorf("State = %v, want %v", res.State, StateUnauthenticated)
	}
}

// --- HandleCallback テスト ---

func TestHandleCallback_NewUser_CreatesUserIdentityAndSession(t *testing.T) {
	ctx := context.Background()

	var createdUser *model.User
	var createdIdentity *model.Identity
	var createdSession *model.Session

	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return &OAuthUserInfo{
				ProviderUserID: "google-user-123",
				Email:          "asha@example.com",
				Name:           "Asha Devi",
				Provider:       "google",
			}, nil
		},
	}
	userRepo := &mockUserRepo{
		createWithIdentityFn: func(ctx context.Context, user *model.User, identity *model.Identity) error {
			createdUser = user
			createdIdentity = identity
			return nil
		},
	}
	identityRepo := &mockIdentityRepo{
		findByProviderFn: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			return nil, nil // 新規ユーザー
		},
	}
	sessionRepo := &mockSessionRepo{
		createFn: func(ctx context.Context, session *model.Session) error {
			createdSession = session
			return nil
		},
	}

	svc := NewService(provider, userRepo, identityRepo, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	session, err := svc.HandleCallback(ctx, "auth-code-123")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}

	if session == nil || session.ID == "" {
		t.Fatal("expected session with non-empty ID")
	}
	if createdUser == nil || createdUser.Email != "asha@example.com" {
		t.Fatalf("created user = %+v, want email asha@example.com", createdUser)
	}
	if createdIdentity == nil || createdIdentity.ProviderUserID != "google-user-123" {
		t.Fatalf("created identity = %+v, want provider user google-user-123", createdIdentity)
	}
	if createdSession == nil || createdSession.UserID != createdUser.ID {
		t.Fatalf("created session = %+v, want userID %q", createdSession, createdUser.ID)
	}
	if createdSession.ExpiresAt.Before(time.Now()) {
		t.Error("session should not be expired at creation")
	}
}

func TestHandleCallback_ExistingUser_ReusesUserID(t *testing.T) {
	ctx := context.Background()
	existingUserID := "existing-user-456"

	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return &OAuthUserInfo{ProviderUserID: "google-789", Provider: "google"}, nil
		},
	}
	identityRepo := &mockIdentityRepo{
		findByProviderFn: func(ctx context.Context, provider, providerUserID string) (*model.Identity, error) {
			return &model.Identity{ID: "ident-1", UserID: existingUserID}, nil
		},
	}
	svc := NewService(provider, &mockUserRepo{}, identityRepo, &mockSessionRepo{}, ServiceConfig{SessionMaxAge: 86400})

	session, err := svc.HandleCallback(ctx, "auth-code")
	if err != nil {
		t.Fatalf("HandleCallback() error = %v", err)
	}
	if session.UserID != existingUserID {
		t.Errorf("session userID = %q, want %q", session.UserID, existingUserID)
	}
}

func TestHandleCallback_OAuthError_ReturnsError(t *testing.T) {
	provider := &mockOAuthProvider{
		exchangeCodeFn: func(ctx context.Context, code string) (*OAuthUserInfo, error) {
			return nil, errors.New("oauth exchange failed")
		},
	}
	svc := NewService(provider, nil, nil, nil, ServiceConfig{SessionMaxAge: 86400})

	if _, err := svc.HandleCallback(context.Background(), "bad-code"); err == nil {
		t.Fatal("expected error from HandleCallback")
	}
}

// --- Logout テスト ---

func TestLogout_DeletesSession(t *testing.T) {
	var deletedSessionID string
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deletedSessionID = id
			return nil
		},
	}
	svc := NewService(nil, nil, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	if err := svc.Logout(context.Background(), "session-to-delete"); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if deletedSessionID != "session-to-delete" {
		t.Errorf("deleted session ID = %q, want %q", deletedSessionID, "session-to-delete")
	}
}

func TestLogout_EmptySessionID_IsIdempotentNoOp(t *testing.T) {
	deleteCalled := false
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			deleteCalled = true
			return nil
		},
	}
	svc := NewService(nil, nil, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("Logout() with empty ID should succeed, got %v", err)
	}
	if deleteCalled {
		t.Error("DeleteByID should not be called for empty session ID")
	}
}

func TestLogout_Twice_SecondCallSucceeds(t *testing.T) {
	sessionRepo := &mockSessionRepo{
		deleteByIDFn: func(ctx context.Context, id string) error {
			// 既に削除済みでもリポジトリはエラーを返さない（冪等）
			return nil
		},
	}
	svc := NewService(nil, nil, nil, sessionRepo, ServiceConfig{SessionMaxAge: 86400})
	ctx := context.Background()

	if err := svc.Logout(ctx, "session-1"); err != nil {
		t.Fatalf("first Logout() error = %v", err)
	}
	if err := svc.Logout(ctx, "session-1"); err != nil {
		t.Fatalf("second Logout() error = %v", err)
	}
}

// --- UpdateEmergencyContact テスト ---

func TestUpdateEmergencyContact_PassesThroughToRepo(t *testing.T) {
	var gotUserID string
	var gotContact *model.EmergencyContact
	userRepo := &mockUserRepo{
		updateEmergencyContactFn: func(ctx context.Context, userID string, contact *model.EmergencyContact) error {
			gotUserID = userID
			gotContact = contact
			return nil
		},
	}
	svc := NewService(nil, userRepo, nil, nil, ServiceConfig{})

	contact := &model.EmergencyContact{Name: "Meera", Phone: "+91 91234 56789"}
	if err := svc.UpdateEmergencyContact(context.Background(), "user-1", contact); err != nil {
		t.Fatalf("UpdateEmergencyContact() error = %v", err)
	}
	if gotUserID != "user-1" || gotContact != contact {
		t.Errorf("repo got (%q, %+v), want (user-1, %+v)", gotUserID, gotContact, contact)
	}
}
