package authapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"hub/cmd/auth"
	"hub/cmd/identity"
	"hub/cmd/internal/errkit"
	"hub/cmd/security/keys"
	"hub/cmd/session"
	"hub/cmd/token"
)

type memUsers struct {
	byUUID map[string]identity.User
}

func newMemUsers() *memUsers { return &memUsers{byUUID: map[string]identity.User{}} }

func (m *memUsers) Insert(ctx context.Context, now time.Time, username, email, passwordPlain string) (identity.User, error) {
	for _, u := range m.byUUID {
		if identity.NormalizeUsername(u.Username) == identity.NormalizeUsername(username) {
			return identity.User{}, errkit.ConflictError{Op: "test.Insert", Field: "username"}
		}
		if identity.NormalizeEmail(u.Email) == identity.NormalizeEmail(email) {
			return identity.User{}, errkit.ConflictError{Op: "test.Insert", Field: "email"}
		}
	}
	hash, err := identity.HashPassword(passwordPlain, identity.DefaultArgon2idParams())
	if err != nil {
		return identity.User{}, err
	}
	u := identity.User{
		UUID: uuid.NewString(), Username: username, Email: email, Password: hash,
		Status: identity.StatusActive, Other: map[string]any{}, UpdatedAt: now, CreatedAt: now,
	}
	m.byUUID[u.UUID] = u
	return u, nil
}

func (m *memUsers) FindBy(ctx context.Context, by identity.Lookup, value string) (identity.User, error) {
	for _, u := range m.byUUID {
		switch by {
		case identity.ByUUID:
			if u.UUID == value {
				return u, nil
			}
		case identity.ByUsername:
			if identity.NormalizeUsername(u.Username) == identity.NormalizeUsername(value) {
				return u, nil
			}
		case identity.ByEmail:
			if identity.NormalizeEmail(u.Email) == identity.NormalizeEmail(value) {
				return u, nil
			}
		}
	}
	return identity.User{}, errkit.NotFound("test.FindBy", "user")
}

func (m *memUsers) UpdatePassword(ctx context.Context, now time.Time, id, newPasswordPlain string) error {
	u, ok := m.byUUID[id]
	if !ok {
		return errkit.NotFound("test.UpdatePassword", "user")
	}
	hash, err := identity.HashPassword(newPasswordPlain, identity.DefaultArgon2idParams())
	if err != nil {
		return err
	}
	u.Password = hash
	m.byUUID[id] = u
	return nil
}

type memSessions struct {
	rows map[string]session.Row
}

func newMemSessions() *memSessions { return &memSessions{rows: map[string]session.Row{}} }

func (m *memSessions) New(ctx context.Context, now time.Time, sub string, ct token.ClientType, exp time.Time) (session.Row, error) {
	for k, r := range m.rows {
		if r.Sub == sub && r.Ct == ct {
			delete(m.rows, k)
		}
	}
	row := session.Row{UUID: uuid.NewString(), Sub: sub, Token: uuid.NewString(), Ct: ct, Exp: exp, UpdatedAt: now, CreatedAt: now}
	m.rows[row.UUID] = row
	return row, nil
}

func (m *memSessions) FindBy(ctx context.Context, ct token.ClientType, by session.Lookup, value string) (session.Row, error) {
	for _, r := range m.rows {
		if r.Ct != ct {
			continue
		}
		switch by {
		case session.ByUUID:
			if r.UUID == value {
				return r, nil
			}
		case session.BySub:
			if r.Sub == value {
				return r, nil
			}
		case session.ByToken:
			if r.Token == value {
				return r, nil
			}
		}
	}
	return session.Row{}, session.ErrNotFound
}

func (m *memSessions) Refresh(ctx context.Context, ct token.ClientType, uuidVal string, newExp time.Time) (string, error) {
	r, ok := m.rows[uuidVal]
	if !ok || r.Ct != ct {
		return "", session.ErrNotFound
	}
	r.Token = uuid.NewString()
	r.Exp = newExp
	m.rows[uuidVal] = r
	return r.Token, nil
}

func (m *memSessions) Delete(ctx context.Context, ct token.ClientType, uuidVal string) error {
	delete(m.rows, uuidVal)
	return nil
}

func (m *memSessions) DeleteAllForSub(ctx context.Context, sub string) error {
	for k, r := range m.rows {
		if r.Sub == sub {
			delete(m.rows, k)
		}
	}
	return nil
}

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	k, err := keys.Generate()
	if err != nil {
		t.Fatalf("keys.Generate: %v", err)
	}
	users := newMemUsers()
	sessions := newMemSessions()
	svc := auth.NewService(auth.DefaultConfig(), users, sessions, token.NewCodec(k))
	return &Handler{
		cfg: Config{
			MaxBodyBytes:   1 << 20,
			CookieName:     "hub-rt",
			CookiePath:     "/",
			CookieSecure:   true,
			CookieSameSite: http.SameSiteLaxMode,
			HubName:        "hub",
			HubVersion:     "dev",
			APIVersion:     "1",
			Mode:           "testing",
		},
		dbEnabled: true,
		identity:  users,
		authSvc:   svc,
		keys:      k,
	}
}

func newTestMux(h *Handler) *http.ServeMux {
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func TestHandler_Status(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/status", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var body hubStatusResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Mode != "testing" {
		t.Fatalf("unexpected mode: %q", body.Mode)
	}
}

func TestHandler_Pubkey_DefaultsToHex(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/pubkey", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != h.keys.PublicHex() {
		t.Fatalf("expected hex-encoded public key body")
	}
}

func TestHandler_RegisterThenLogin(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	regBody, _ := json.Marshal(registerRequest{Username: "alice", Email: "alice@example.com", Password: "pw123456"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(regBody)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	loginBody, _ := json.Marshal(loginRequest{Username: "alice", Password: "pw123456", Ct: "web"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(loginBody)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	accessToken := rr.Body.String()
	if accessToken == "" {
		t.Fatalf("expected a bearer access token in the body")
	}

	cookies := rr.Result().Cookies()
	var rt *http.Cookie
	for _, c := range cookies {
		if c.Name == "hub-rt" {
			rt = c
		}
	}
	if rt == nil {
		t.Fatalf("expected a hub-rt cookie to be set")
	}

	dataReq := httptest.NewRequest(http.MethodGet, "/user/data", nil)
	dataReq.Header.Set("Authorization", "Bearer "+accessToken)
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, dataReq)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var data userDataResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &data); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if data.Username != "alice" {
		t.Fatalf("unexpected username: %q", data.Username)
	}
}

func TestHandler_UserData_MissingBearerIsExpectationFailed(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/data", nil))
	if rr.Code != http.StatusExpectationFailed {
		t.Fatalf("expected 417, got %d", rr.Code)
	}
}

func TestHandler_TokenRefresh_MissingCookieIsExpectationFailed(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token/refresh", nil))
	if rr.Code != http.StatusExpectationFailed {
		t.Fatalf("expected 417, got %d", rr.Code)
	}
}

func TestHandler_Register_DuplicateUsernameConflicts(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	body, _ := json.Marshal(registerRequest{Username: "bob", Email: "bob@example.com", Password: "pw123456"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	body2, _ := json.Marshal(registerRequest{Username: "bob", Email: "bob2@example.com", Password: "pw123456"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(body2)))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.Contains(rr.Body.String(), "username") {
		t.Fatalf("expected conflict message to mention username, got %s", rr.Body.String())
	}
}

func TestHandler_Login_BadPasswordIsUnauthorized(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	body, _ := json.Marshal(registerRequest{Username: "carol", Email: "carol@example.com", Password: "pw123456"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(body)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}

	loginBody, _ := json.Marshal(loginRequest{Username: "carol", Password: "wrong", Ct: "web"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(loginBody)))
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rr.Code)
	}
}

func registerAndLogin(t *testing.T, mux *http.ServeMux, username, ct string) (accessToken string, cookie *http.Cookie) {
	t.Helper()
	regBody, _ := json.Marshal(registerRequest{Username: username, Email: username + "@example.com", Password: "pw123456"})
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/register", bytes.NewReader(regBody)))
	if rr.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d body=%s", rr.Code, rr.Body.String())
	}

	loginBody, _ := json.Marshal(loginRequest{Username: username, Password: "pw123456", Ct: ct})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(loginBody)))
	if rr.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	accessToken = rr.Body.String()
	for _, c := range rr.Result().Cookies() {
		if c.Name == "hub-rt" {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatalf("expected a hub-rt cookie to be set")
	}
	return accessToken, cookie
}

func TestHandler_UserInfo_ByUsername(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	registerAndLogin(t, mux, "dave", "web")

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/info?username=dave", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var info userInfoResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Username != "dave" {
		t.Fatalf("unexpected username: %q", info.Username)
	}
}

func TestHandler_UserInfo_BothParamsIsBadRequest(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/user/info?uuid=x&username=y", nil))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestHandler_UserSessions_ReturnsActiveSession(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "erin", "game")

	req := httptest.NewRequest(http.MethodGet, "/user/sessions", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	var res userSessionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &res); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if res.Game == nil {
		t.Fatalf("expected a game session summary")
	}
	if res.Web != nil || res.Mobile != nil {
		t.Fatalf("expected only the game session to be populated")
	}
}

func TestHandler_PasswordChange_WrongOldPasswordIsNotModified(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "frank", "web")

	body, _ := json.Marshal(passwordChangeRequest{OldPassword: "wrong", NewPassword: "newpw12345"})
	req := httptest.NewRequest(http.MethodPut, "/user/password", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusNotModified {
		t.Fatalf("expected 304, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHandler_PasswordChange_Succeeds(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "grace", "web")

	body, _ := json.Marshal(passwordChangeRequest{OldPassword: "pw123456", NewPassword: "newpw12345"})
	req := httptest.NewRequest(http.MethodPut, "/user/password", bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	loginBody, _ := json.Marshal(loginRequest{Username: "grace", Password: "newpw12345", Ct: "web"})
	rr = httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/user/login", bytes.NewReader(loginBody)))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected login with new password to succeed, got %d", rr.Code)
	}
}

func TestHandler_TokenRevoke_ClearsSession(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "heidi", "web")

	req := httptest.NewRequest(http.MethodGet, "/token/revoke", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	var cleared bool
	for _, c := range rr.Result().Cookies() {
		if c.Name == "hub-rt" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Fatalf("expected hub-rt cookie to be cleared")
	}
}

func TestHandler_TokenRevoke_MissingBearerIsExpectationFailed(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)

	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/token/revoke", nil))
	if rr.Code != http.StatusExpectationFailed {
		t.Fatalf("expected 417, got %d", rr.Code)
	}
}

func TestHandler_TokenRevokeAll_IssuesFreshTokenForCaller(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "ivan", "web")

	req := httptest.NewRequest(http.MethodGet, "/token/revoke_all", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() == "" {
		t.Fatalf("expected a fresh bearer access token in the body")
	}
	var rt *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "hub-rt" {
			rt = c
		}
	}
	if rt == nil || rt.Value == "" {
		t.Fatalf("expected a fresh hub-rt cookie to be set")
	}
}

func TestHandler_TokenPIT_RequiresValidServerID(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "judy", "web")

	req := httptest.NewRequest(http.MethodGet, "/token/pit?sid=short", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHandler_TokenPIT_MintsTokenForAuthenticatedUser(t *testing.T) {
	h := newTestHandler(t)
	mux := newTestMux(h)
	accessToken, _ := registerAndLogin(t, mux, "karl", "web")

	req := httptest.NewRequest(http.MethodGet, "/token/pit?sid=abcdefghijkl", nil)
	req.Header.Set("Authorization", "Bearer "+accessToken)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Body.String() == "" {
		t.Fatalf("expected a PIT token in the body")
	}
}
