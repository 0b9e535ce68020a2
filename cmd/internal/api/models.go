package authapi

import "time"

type hubStatusResponse struct {
	Name       string `json:"name"`
	HubVersion string `json:"hub_version"`
	APIVersion string `json:"api_version"`
	Mode       string `json:"mode"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Ct       string `json:"ct"`
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type registerResponse struct {
	UUID string `json:"uuid"`
}

type passwordChangeRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

type userInfoResponse struct {
	UUID     string `json:"uuid"`
	Username string `json:"username"`
	Status   string `json:"status"`
}

type userDataResponse struct {
	UUID      string    `json:"uuid"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

type sessionSummary struct {
	UUID string    `json:"uuid"`
	Exp  time.Time `json:"exp"`
}

type userSessionsResponse struct {
	Web    *sessionSummary `json:"web,omitempty"`
	Game   *sessionSummary `json:"game,omitempty"`
	Mobile *sessionSummary `json:"mobile,omitempty"`
}
