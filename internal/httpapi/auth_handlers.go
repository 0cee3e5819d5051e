package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"hfrat.org/internal/auth"
	"hfrat.org/internal/obs"
	"hfrat.org/internal/registry"
)

type registerRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FacilityID string `json:"facility_id"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string     `json:"access_token"`
	ExpiresAt   time.Time  `json:"expires_at"`
	Role        auth.Role  `json:"role"`
	FacilityID  string     `json:"facility_id,omitempty"`
	User        *auth.User `json:"user,omitempty"`
}

func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	roleValue := req.Role
	if strings.TrimSpace(roleValue) == "" {
		roleValue = string(auth.RoleReporter)
	}
	role, err := auth.ParseRole(roleValue)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role")
		return
	}
	// Admin accounts are provisioned, never self-registered.
	if role == auth.RoleAdmin {
		writeError(w, r, http.StatusForbidden, "admin accounts cannot self-register")
		return
	}

	facilityID := strings.TrimSpace(req.FacilityID)
	if role != auth.RoleReporter && facilityID != "" {
		writeError(w, r, http.StatusBadRequest, "facility_id allowed only for reporter role")
		return
	}
	if role == auth.RoleReporter {
		if facilityID == "" {
			writeError(w, r, http.StatusBadRequest, "facility_id is required for reporter")
			return
		}
		if _, err := a.registry.GetFacility(r.Context(), facilityID); err != nil {
			if errors.Is(err, registry.ErrNotFound) {
				writeError(w, r, http.StatusNotFound, "facility not found")
				return
			}
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	user := &auth.User{
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FacilityID:   facilityID,
	}
	if err := a.users.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, auth.ErrAlreadyExists) {
			writeError(w, r, http.StatusConflict, "email already registered")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "internal error")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.Principal())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	obs.TokenIssued()

	a.audit(r.Context(), "auth.register", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})

	writeJSON(w, http.StatusCreated, tokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Role:        user.Role,
		FacilityID:  user.FacilityID,
		User:        user,
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email, err := normalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	user, err := a.users.FindUserByEmail(r.Context(), email)
	if err != nil {
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		a.audit(r.Context(), "auth.login.failed", map[string]any{"email": email})
		writeError(w, r, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := a.tokens.Issue(user.Principal())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "token generation failed")
		return
	}
	obs.TokenIssued()

	a.audit(r.Context(), "auth.login", map[string]any{
		"user_id": user.ID,
		"role":    string(user.Role),
	})

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		ExpiresAt:   expiresAt,
		Role:        user.Role,
		FacilityID:  user.FacilityID,
	})
}

func (a *API) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	token, ok := auth.TokenFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "authentication required")
		return
	}
	if err := a.tokens.Revoke(r.Context(), token); err != nil {
		writeError(w, r, http.StatusInternalServerError, "logout failed")
		return
	}
	obs.TokenRevoked()

	a.audit(r.Context(), "auth.logout", nil)

	writeJSON(w, http.StatusOK, map[string]any{"message": "logged out"})
}

func normalizeEmail(raw string) (string, error) {
	email := strings.TrimSpace(strings.ToLower(raw))
	if email == "" {
		return "", errors.New("email is required")
	}
	if len(email) > 255 {
		return "", errors.New("email is too long")
	}
	at := strings.Index(email, "@")
	if at <= 0 || at == len(email)-1 || !strings.Contains(email[at:], ".") {
		return "", errors.New("invalid email format")
	}
	return email, nil
}
