package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"hfrat.org/internal/auth"
)

type createUserRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	Role       string `json:"role"`
	FacilityID string `json:"facility_id"`
}

type createFacilityRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
	City    string `json:"city"`
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.ActionManage, ""); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		users, err := a.users.ListUsers(r.Context())
		if err != nil {
			writeError(w, r, http.StatusInternalServerError, "internal error")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"users": users})
	case http.MethodPost:
		a.handleCreateUser(w, r)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	email, err := normalizeEmail(req.Email)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	role, err := auth.ParseRole(req.Role)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid role")
		return
	}

	facilityID := strings.TrimSpace(req.FacilityID)
	if role == auth.RoleReporter {
		if facilityID == "" {
			writeError(w, r, http.StatusBadRequest, "facility_id is required for reporter")
			return
		}
		if _, err := a.registry.GetFacility(r.Context(), facilityID); err != nil {
			handleRegistryError(w, r, err)
			return
		}
	} else if facilityID != "" {
		writeError(w, r, http.StatusBadRequest, "facility_id allowed only for reporter role")
		return
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

	a.audit(r.Context(), "admin.user.created", map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    string(user.Role),
	})

	writeJSON(w, http.StatusCreated, user)
}

func (a *API) handleFacilities(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.authorize(w, r, auth.ActionManage, ""); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		facilities, err := a.registry.ListFacilities(r.Context())
		if err != nil {
			handleRegistryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"facilities": facilities})
	case http.MethodPost:
		var req createFacilityRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		facility, err := a.registry.CreateFacility(r.Context(), req.Name, req.Country, req.City)
		if err != nil {
			handleRegistryError(w, r, err)
			return
		}
		a.audit(r.Context(), "admin.facility.created", map[string]any{
			"facility_id": facility.ID,
			"name":        facility.Name,
		})
		writeJSON(w, http.StatusCreated, facility)
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodPost)
	}
}

func (a *API) handleFacilityResource(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/admin/facilities/")
	if id == "" || strings.Contains(id, "/") {
		writeError(w, r, http.StatusNotFound, "not found")
		return
	}

	if _, ok := a.authorize(w, r, auth.ActionManage, ""); !ok {
		return
	}

	switch r.Method {
	case http.MethodGet:
		facility, err := a.registry.GetFacility(r.Context(), id)
		if err != nil {
			handleRegistryError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, facility)
	case http.MethodDelete:
		if err := a.registry.DeleteFacility(r.Context(), id); err != nil {
			handleRegistryError(w, r, err)
			return
		}
		a.audit(r.Context(), "admin.facility.deleted", map[string]any{"facility_id": id})
		writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
	default:
		methodNotAllowed(w, r, http.MethodGet, http.MethodDelete)
	}
}
