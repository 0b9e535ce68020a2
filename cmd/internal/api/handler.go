package authapi

import (
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"hub/cmd/auth"
	"hub/cmd/identity"
	"hub/cmd/internal/errkit"
	"hub/cmd/internal/metrics"
	"hub/cmd/security/keys"
	"hub/cmd/session"
	"hub/cmd/token"
)

// Handler wires Hub's HTTP surface to the identity store and the auth
// state machine.
type Handler struct {
	log *slog.Logger
	cfg Config

	dbEnabled bool
	pool      *pgxpool.Pool

	identity identity.Store
	authSvc  *auth.Service
	keys     *keys.Keys
}

// NewHandler constructs a Handler. If dbEnabled is false, every
// database-backed route returns 503.
func NewHandler(log *slog.Logger, pool *pgxpool.Pool, cfg Config, k *keys.Keys, dbEnabled bool) (*Handler, error) {
	if log == nil {
		log = slog.Default()
	}

	h := &Handler{log: log, cfg: cfg, dbEnabled: dbEnabled, pool: pool, keys: k}

	if !dbEnabled {
		return h, nil
	}
	if pool == nil {
		return nil, errors.New("api: nil db pool")
	}
	if k == nil {
		return nil, errors.New("api: nil key material")
	}

	idStore, err := identity.NewPostgresStore(pool)
	if err != nil {
		return nil, err
	}
	h.identity = idStore

	sessStore := session.NewPostgresStore(pool)
	codec := token.NewCodec(k)
	h.authSvc = auth.NewService(auth.DefaultConfig(), idStore, sessStore, codec)

	return h, nil
}

// Register wires Hub's routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	if h == nil || mux == nil {
		return
	}
	mux.HandleFunc("/", h.handleRoot)
	mux.HandleFunc("/status", h.handleStatus)
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/pubkey", h.handlePubkey)
	mux.HandleFunc("/user/info", h.handleUserInfo)
	mux.HandleFunc("/user/data", h.handleUserData)
	mux.HandleFunc("/user/login", h.handleLogin)
	mux.HandleFunc("/user/register", h.handleRegister)
	mux.HandleFunc("/user/password", h.handlePasswordChange)
	mux.HandleFunc("/user/sessions", h.handleUserSessions)
	mux.HandleFunc("/token/refresh", h.handleTokenRefresh)
	mux.HandleFunc("/token/revoke", h.handleTokenRevoke)
	mux.HandleFunc("/token/revoke_all", h.handleTokenRevokeAll)
	mux.HandleFunc("/token/pit", h.handleTokenPIT)
}

// ---- status / health / pubkey ----

func (h *Handler) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	h.handleStatus(w, r)
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, hubStatusResponse{
		Name:       h.cfg.HubName,
		HubVersion: h.cfg.HubVersion,
		APIVersion: h.cfg.APIVersion,
		Mode:       h.cfg.Mode,
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handlePubkey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if h.keys == nil {
		writeError(w, http.StatusServiceUnavailable, "key_unavailable", "key material not configured")
		return
	}

	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	switch format {
	case "", "hex":
		_, _ = w.Write([]byte(h.keys.PublicHex()))
	case "pem":
		_, _ = w.Write([]byte(h.keys.PublicPEM()))
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "format must be hex or pem")
	}
}

// ---- user ----

func (h *Handler) handleUserInfo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	q := r.URL.Query()
	uuidVal := strings.TrimSpace(q.Get("uuid"))
	username := strings.TrimSpace(q.Get("username"))
	if (uuidVal == "") == (username == "") {
		writeError(w, http.StatusBadRequest, "invalid_request", "exactly one of uuid or username is required")
		return
	}

	var (
		u   identity.User
		err error
	)
	if uuidVal != "" {
		u, err = h.identity.FindBy(r.Context(), identity.ByUUID, uuidVal)
	} else {
		u, err = h.identity.FindBy(r.Context(), identity.ByUsername, username)
	}
	if err != nil {
		writeDomainError(w, "user.info", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserInfoResponse(u))
}

func (h *Handler) handleUserData(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	u, err := h.identity.FindBy(r.Context(), identity.ByUUID, claims.Sub)
	if err != nil {
		writeDomainError(w, "user.data", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserDataResponse(u))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	password := req.Password
	ct := token.ClientType(strings.ToLower(strings.TrimSpace(req.Ct)))
	if username == "" || password == "" || !ct.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_request", "username, password, and a valid ct are required")
		return
	}

	now := time.Now().UTC()
	issued, err := h.authSvc.Login(r.Context(), now, username, password, ct)
	metrics.ObserveTokenOp("login", err)
	if err != nil {
		h.logIfInternal("user.login", err)
		writeDomainError(w, "user.login", err)
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(issued.AccessToken))
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)
	if username == "" || email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "username, email, and password are required")
		return
	}

	now := time.Now().UTC()
	u, err := h.identity.Insert(r.Context(), now, username, email, req.Password)
	if err != nil {
		h.logIfInternal("user.register", err)
		writeDomainError(w, "user.register", err)
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{UUID: u.UUID})
}

func (h *Handler) handlePasswordChange(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	var req passwordChangeRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "old_password and new_password are required")
		return
	}

	now := time.Now().UTC()
	if err := h.authSvc.ChangePassword(r.Context(), now, claims.Sub, req.OldPassword, req.NewPassword); err != nil {
		h.logIfInternal("user.password", err)
		writeDomainError(w, "user.password", err)
		return
	}

	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	claims, ok := h.requireAccess(w, r)
	if !ok {
		return
	}

	rows, err := h.authSvc.SessionsBySub(r.Context(), claims.Sub)
	if err != nil {
		h.logIfInternal("user.sessions", err)
		writeDomainError(w, "user.sessions", err)
		return
	}

	var res userSessionsResponse
	if row, ok := rows[token.ClientTypeWeb]; ok {
		res.Web = &sessionSummary{UUID: row.UUID, Exp: row.Exp}
	}
	if row, ok := rows[token.ClientTypeGame]; ok {
		res.Game = &sessionSummary{UUID: row.UUID, Exp: row.Exp}
	}
	if row, ok := rows[token.ClientTypeMobile]; ok {
		res.Mobile = &sessionSummary{UUID: row.UUID, Exp: row.Exp}
	}

	writeJSON(w, http.StatusOK, res)
}

// ---- token ----

func (h *Handler) handleTokenRefresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	rt, ok := refreshTokenFromCookie(r, h.cfg.CookieName)
	if !ok {
		writeExpectationFailed(w, "missing hub-rt cookie")
		return
	}

	now := time.Now().UTC()
	issued, err := h.authSvc.Refresh(r.Context(), now, rt)
	metrics.ObserveTokenOp("refresh", err)
	if err != nil {
		h.logIfInternal("token.refresh", err)
		writeDomainError(w, "token.refresh", err)
		return
	}

	if issued.RefreshToken != "" {
		h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(issued.AccessToken))
}

func (h *Handler) handleTokenRevoke(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	accessToken, ok := bearerToken(r)
	if !ok {
		writeExpectationFailed(w, "missing bearer token")
		return
	}

	now := time.Now().UTC()
	err := h.authSvc.Revoke(r.Context(), now, accessToken)
	metrics.ObserveTokenOp("revoke", err)
	if err != nil {
		h.logIfInternal("token.revoke", err)
		writeDomainError(w, "token.revoke", err)
		return
	}
	h.clearRefreshCookie(w)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleTokenRevokeAll(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	accessToken, ok := bearerToken(r)
	if !ok {
		writeExpectationFailed(w, "missing bearer token")
		return
	}

	now := time.Now().UTC()
	issued, err := h.authSvc.RevokeAll(r.Context(), now, accessToken)
	metrics.ObserveTokenOp("revoke_all", err)
	if err != nil {
		h.logIfInternal("token.revoke_all", err)
		writeDomainError(w, "token.revoke_all", err)
		return
	}

	h.setRefreshCookie(w, issued.RefreshToken, issued.RefreshExp)
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(issued.AccessToken))
}

var serverIDRe = regexp.MustCompile(`^[A-Za-z0-9]{12}$`)

func (h *Handler) handleTokenPIT(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	if !h.dbEnabled {
		writeError(w, http.StatusServiceUnavailable, "db_unavailable", "database not configured")
		return
	}

	accessToken, ok := bearerToken(r)
	if !ok {
		writeExpectationFailed(w, "missing bearer token")
		return
	}

	serverID := strings.TrimSpace(r.URL.Query().Get("sid"))
	if !serverIDRe.MatchString(serverID) {
		writeError(w, http.StatusBadRequest, "invalid_request", "sid must match ^[A-Za-z0-9]{12}$")
		return
	}

	now := time.Now().UTC()
	pit, err := h.authSvc.PIT(r.Context(), now, accessToken, serverID)
	metrics.ObserveTokenOp("pit", err)
	if err != nil {
		h.logIfInternal("token.pit", err)
		writeDomainError(w, "token.pit", err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(pit))
}

// ---- shared auth extraction ----

// requireAccess extracts and verifies the Authorization: Bearer header,
// writing 417 when absent and 403 when decode fails.
func (h *Handler) requireAccess(w http.ResponseWriter, r *http.Request) (token.AccessClaims, bool) {
	raw, ok := bearerToken(r)
	if !ok {
		writeExpectationFailed(w, "missing bearer token")
		return token.AccessClaims{}, false
	}
	claims, err := h.authSvc.Authenticate(time.Now().UTC(), raw)
	if err != nil {
		writeDomainError(w, "auth.authenticate", err)
		return token.AccessClaims{}, false
	}
	return claims, true
}

func (h *Handler) logIfInternal(op string, err error) {
	if errors.Is(err, errkit.ErrInvalidInput) || errors.Is(err, errkit.ErrUnauthorized) ||
		errors.Is(err, errkit.ErrForbidden) || errors.Is(err, errkit.ErrNotFound) ||
		errors.Is(err, errkit.ErrGone) || errors.Is(err, errkit.ErrInactive) ||
		errors.Is(err, errkit.ErrNotModified) || errkit.IsConflict(err) {
		return
	}
	h.log.Error(op+".fail", "err", err)
}
