package httpapi

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/signalbridge/platform/internal/auth"
	"github.com/signalbridge/platform/internal/domain"
)

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	AccessToken string    `json:"access_token"`
	UserID      uuid.UUID `json:"user_id"`
	Email       string    `json:"email"`
	Username    string    `json:"username"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Username == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email, username and password are required")
		return
	}

	exists, err := a.store.Users.ExistsByEmailOrUsername(req.Email, req.Username)
	if err != nil {
		writeErr(w, err)
		return
	}
	if exists {
		writeError(w, http.StatusConflict, "email or username already in use")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeErr(w, err)
		return
	}

	user := domain.User{
		ID:           uuid.New(),
		Email:        req.Email,
		Username:     req.Username,
		PasswordHash: hash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	if err := a.store.Users.Create(user); err != nil {
		writeErr(w, err)
		return
	}
	if err := a.store.Preferences.Upsert(domain.DefaultPreferences(user.ID)); err != nil {
		writeErr(w, err)
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{AccessToken: token, UserID: user.ID, Email: user.Email, Username: user.Username})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := a.store.Users.ByEmail(req.Email)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !auth.VerifyPassword(req.Password, user.PasswordHash) {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if !user.Active {
		writeError(w, http.StatusUnauthorized, "account is inactive")
		return
	}

	token, err := a.tokens.Issue(user.ID)
	if err != nil {
		writeErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{AccessToken: token, UserID: user.ID, Email: user.Email, Username: user.Username})
}
