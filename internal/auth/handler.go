package auth

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cinewave/cinewave-api/internal/httputil"
	"github.com/cinewave/cinewave-api/internal/logging"
	"github.com/cinewave/cinewave-api/internal/user"
)

// RateLimiter throttles credential endpoints per client IP.
type RateLimiter interface {
	CheckIPRateLimitWithPurpose(ctx context.Context, ip, purpose string) (bool, error)
	RecordIPRequestWithPurpose(ctx context.Context, ip, purpose string) error
	Reset(ctx context.Context, ip, purpose string) error
}

// Handler contains HTTP handlers for account endpoints
type Handler struct {
	service     *Service
	rateLimiter RateLimiter
}

func NewHandler(service *Service, rateLimiter RateLimiter) *Handler {
	return &Handler{
		service:     service,
		rateLimiter: rateLimiter,
	}
}

// RegisterRequest represents the registration request body
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Password  string `json:"password"`
}

// LoginRequest represents the login request body
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateUserRequest represents the account update body. Omitted fields are unchanged.
type UpdateUserRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Password  string `json:"password,omitempty"`
}

// Register handles user registration
// @Summary      Register a new user
// @Description  Create a new account with name, email and password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body RegisterRequest true "Registration data"
// @Success      201 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/register [post]
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.throttled(w, r, logger, ip, "register") {
		return
	}

	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid registration request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "register"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	newUser, err := h.service.Register(r.Context(), RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateEmail) {
			logger.Warn("registration failed: email already exists")
			httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
			return
		}
		if respondValidationError(w, logger, err) {
			return
		}
		logger.Error("registration failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to register user", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	logger.Info("user registered successfully", "user_id", newUser.ID)
	httputil.RespondJSON(w, newUser, http.StatusCreated)
}

// Login handles user login
// @Summary      User login
// @Description  Authenticate with email and password and receive a bearer token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} LoginResult
// @Failure      400 {object} httputil.ErrorResponse "Invalid request body"
// @Failure      401 {object} httputil.ErrorResponse "Invalid credentials"
// @Failure      429 {object} httputil.ErrorResponse "Too many requests"
// @Failure      500 {object} httputil.ErrorResponse "Internal server error"
// @Router       /api/auth/login [post]
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	ip := getClientIP(r)
	if h.throttled(w, r, logger, ip, "login") {
		return
	}

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	logger = logger.WithFields(map[string]any{"email": req.Email})

	if err := h.rateLimiter.RecordIPRequestWithPurpose(r.Context(), ip, "login"); err != nil {
		logger.Error("failed to record IP request", "error", err.Error())
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			logger.Warn("login failed: invalid credentials")
			httputil.RespondErrorWithCode(w, "Invalid credentials", httputil.CodeInvalidCredentials, http.StatusUnauthorized)
			return
		}
		logger.Error("login failed: internal error", "error", err.Error())
		httputil.RespondErrorWithCode(w, "failed to login", httputil.CodeInternalError, http.StatusInternalServerError)
		return
	}

	if err := h.rateLimiter.Reset(r.Context(), ip, "login"); err != nil {
		logger.Warn("failed to reset login rate limit", "error", err.Error())
	}

	logger.Info("user logged in successfully", "user_id", result.User.ID)
	httputil.RespondJSON(w, result, http.StatusOK)
}

// Profile returns the authenticated user
// @Summary      Current user profile
// @Tags         auth
// @Produce      json
// @Security     BearerAuth
// @Success      200 {object} user.User
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/auth/profile [get]
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	principal, ok := PrincipalFromContext(r.Context())
	if !ok {
		httputil.RespondErrorWithCode(w, ReasonAuthenticationFailed.Message(), httputil.CodeAuthenticationFailed, http.StatusUnauthorized)
		return
	}

	u, err := h.service.Profile(r.Context(), principal)
	if err != nil {
		respondUserError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// ListUsers returns every account
// @Summary      List users
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} user.User
// @Failure      401 {object} httputil.ErrorResponse "Unauthorized"
// @Router       /api/auth/users [get]
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		respondUserError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, users, http.StatusOK)
}

// GetUser returns one account by id
// @Summary      Get user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      200 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Invalid id"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/auth/user/{id} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}

	u, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		respondUserError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// GetUserByEmail returns one account by email
// @Summary      Get user by email
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        email path string true "Email"
// @Success      200 {object} user.User
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/auth/user/email/{email} [get]
func (h *Handler) GetUserByEmail(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	u, err := h.service.GetUserByEmail(r.Context(), chi.URLParam(r, "email"))
	if err != nil {
		respondUserError(w, logger, err)
		return
	}

	httputil.RespondJSON(w, u, http.StatusOK)
}

// UpdateUser changes the caller's own account
// @Summary      Update user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Param        request body UpdateUserRequest true "Fields to change"
// @Success      200 {object} user.User
// @Failure      400 {object} httputil.ErrorResponse "Invalid request or validation error"
// @Failure      403 {object} httputil.ErrorResponse "Not your account"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Failure      409 {object} httputil.ErrorResponse "Email already exists"
// @Router       /api/auth/user/{id} [put]
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update request body", "error", err.Error())
		httputil.RespondErrorWithCode(w, "invalid request body", httputil.CodeInvalidRequestBody, http.StatusBadRequest)
		return
	}

	u, err := h.service.UpdateUser(r.Context(), principal, id, UpdateInput(req))
	if err != nil {
		if respondValidationError(w, logger, err) {
			return
		}
		respondUserError(w, logger, err)
		return
	}

	logger.Info("user updated", "user_id", u.ID)
	httputil.RespondJSON(w, u, http.StatusOK)
}

// DeleteUser removes the caller's own account
// @Summary      Delete user
// @Tags         users
// @Security     BearerAuth
// @Param        id path string true "User ID"
// @Success      204
// @Failure      403 {object} httputil.ErrorResponse "Not your account"
// @Failure      404 {object} httputil.ErrorResponse "User not found"
// @Router       /api/auth/user/{id} [delete]
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	logger := logging.GetLoggerFromContext(r.Context())

	id, ok := parseUserID(w, r)
	if !ok {
		return
	}
	principal, _ := PrincipalFromContext(r.Context())

	if err := h.service.DeleteUser(r.Context(), principal, id); err != nil {
		respondUserError(w, logger, err)
		return
	}

	logger.Info("user deleted", "user_id", id)
	w.WriteHeader(http.StatusNoContent)
}

// throttled writes a 429 when ip is over its limit. A limiter failure is
// logged and the request goes through.
func (h *Handler) throttled(w http.ResponseWriter, r *http.Request, logger *logging.Logger, ip, purpose string) bool {
	exceeded, err := h.rateLimiter.CheckIPRateLimitWithPurpose(r.Context(), ip, purpose)
	if err != nil {
		logger.Error("failed to check IP rate limit", "error", err.Error())
		return false
	}
	if exceeded {
		logger.Warn("IP rate limit exceeded for "+purpose, "ip", ip)
		httputil.RespondErrorWithCode(w, "too many requests, please try again later", httputil.CodeTooManyRequests, http.StatusTooManyRequests)
		return true
	}
	return false
}

func respondValidationError(w http.ResponseWriter, logger *logging.Logger, err error) bool {
	var code string
	switch {
	case errors.Is(err, ErrInvalidEmailFormat), errors.Is(err, ErrEmailRequired):
		code = httputil.CodeInvalidEmailFormat
	case errors.Is(err, ErrPasswordTooShort), errors.Is(err, ErrPasswordWeak):
		code = httputil.CodePasswordPolicy
	case errors.Is(err, ErrFirstNameRequired), errors.Is(err, ErrLastNameRequired):
		code = httputil.CodeValidationFailed
	default:
		return false
	}

	logger.Warn("validation error", "error", err.Error())
	httputil.RespondErrorWithCode(w, err.Error(), code, http.StatusBadRequest)
	return true
}

func respondUserError(w http.ResponseWriter, logger *logging.Logger, err error) {
	switch {
	case errors.Is(err, user.ErrNotFound):
		httputil.RespondErrorWithCode(w, "user not found", httputil.CodeNotFound, http.StatusNotFound)
	case errors.Is(err, ErrForbidden):
		logger.Warn("forbidden account operation")
		httputil.RespondErrorWithCode(w, err.Error(), httputil.CodeForbidden, http.StatusForbidden)
	case errors.Is(err, user.ErrDuplicateEmail):
		httputil.RespondErrorWithCode(w, "email already exists", httputil.CodeEmailAlreadyExists, http.StatusConflict)
	default:
		logger.Error("user operation failed", "error", err.Error())
		httputil.RespondErrorWithCode(w, "internal server error", httputil.CodeInternalError, http.StatusInternalServerError)
	}
}

func parseUserID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		httputil.RespondErrorWithCode(w, "invalid user id", httputil.CodeInvalidQueryParam, http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// getClientIP returns the host part of RemoteAddr. Forwarding headers are
// only honoured through middleware.RealIP, which the router installs when
// proxy headers are trusted.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		// RealIP stores a bare address without a port
		return r.RemoteAddr
	}
	return host
}
