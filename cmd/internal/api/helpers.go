package authapi

import (
	"net/http"
	"strings"

	"hub/cmd/identity"
)

func statusString(s identity.Status) string {
	switch s {
	case identity.StatusActive:
		return "active"
	case identity.StatusInactive:
		return "inactive"
	case identity.StatusBanned:
		return "banned"
	default:
		return "unknown"
	}
}

func toUserInfoResponse(u identity.User) userInfoResponse {
	return userInfoResponse{UUID: u.UUID, Username: u.Username, Status: statusString(u.Status)}
}

func toUserDataResponse(u identity.User) userDataResponse {
	return userDataResponse{
		UUID:      u.UUID,
		Username:  u.Username,
		Email:     u.Email,
		Status:    statusString(u.Status),
		CreatedAt: u.CreatedAt,
	}
}

// bearerToken reads the Authorization: Bearer <token> header.
func bearerToken(r *http.Request) (string, bool) {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if raw == "" {
		return "", false
	}
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", false
	}
	v := strings.TrimSpace(parts[1])
	if v == "" {
		return "", false
	}
	return v, true
}

// writeExpectationFailed reports a missing required credential (bearer
// header or refresh cookie), per the Hub error taxonomy's 417 entry.
func writeExpectationFailed(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusExpectationFailed, "credential_required", msg)
}
