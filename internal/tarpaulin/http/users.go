package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/opencourse/tarpaulin/internal/tarpaulin/domain"
	"github.com/opencourse/tarpaulin/internal/tarpaulin/service"
	"github.com/opencourse/tarpaulin/pkg/httpx"
	"github.com/opencourse/tarpaulin/pkg/slogx"
)

type UsersHandler struct {
	Users     *service.UserService
	Identity  *service.IdentityService
	Authorize *service.AuthorizeService
	Validate  *validator.Validate
}

type createUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Role     string `json:"role" validate:"required,oneof=admin instructor student"`
}

type userResponse struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Email   string   `json:"email"`
	Role    string   `json:"role"`
	Courses []string `json:"courses,omitempty"`
}

// HandleCreate registers a new user account. Anonymous callers may only
// create student accounts.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	var actor *domain.Identity
	if id, ok := IdentityFrom(r.Context()); ok {
		actor = &id
	}

	userID, err := h.Users.CreateUser(r.Context(), actor, req.Name, req.Email, req.Password, domain.Role(req.Role))
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, map[string]string{"id": userID})
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleLogin exchanges an email/password pair for a bearer credential.
func (h *UsersHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.Validate.Struct(req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	token, err := h.Identity.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.NoCache(w)
	httpx.WriteJSON(w, http.StatusOK, map[string]string{"token": token})
}

// HandleGet returns a user's profile. Students see their enrollments,
// instructors the courses they teach.
func (h *UsersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	identity, _ := IdentityFrom(r.Context())
	userID := r.PathValue("id")

	if err := h.Authorize.Authorize(r.Context(), identity, domain.ActionViewUser, domain.ResourceRef{UserID: userID}); err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	profile, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, slogx.FromContext(r.Context()), err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, userResponse{
		ID:      profile.User.ID,
		Name:    profile.User.Name,
		Email:   profile.User.Email,
		Role:    string(profile.User.Role),
		Courses: profile.CourseIDs,
	})
}
