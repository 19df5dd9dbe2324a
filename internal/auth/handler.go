package auth

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-cms/meridian-cms/internal/observability"
	"github.com/meridian-cms/meridian-cms/internal/platform/httpx"
	"github.com/meridian-cms/meridian-cms/internal/shared"
)

// invalidCredentialsMessage is the single user-visible message for every
// credential failure. Unknown username and wrong password must read the same.
const invalidCredentialsMessage = "invalid username or password"

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger     *slog.Logger
	service    *Service
	validator  *validator.Validate
	metrics    *observability.Metrics
	cookieName string
	secure     bool

	// requireReset gates the administrative reset-password route. The gate
	// lives at the route, not inside Service.ResetPassword.
	requireReset func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics, cookieName string, secure bool, requireReset func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:       logger,
		service:      service,
		validator:    validator.New(),
		metrics:      metrics,
		cookieName:   cookieName,
		secure:       secure,
		requireReset: requireReset,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Post("/change-password", h.handleChangePassword)

	authMW := Middleware{Service: h.service, Logger: h.logger}
	r.Group(func(r chi.Router) {
		r.Use(authMW.RequireToken)
		if h.requireReset != nil {
			r.With(h.requireReset).Post("/reset-password", h.handleResetPassword)
		} else {
			r.Post("/reset-password", h.handleResetPassword)
		}
		r.Get("/me", h.handleMe)
	})
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token string `json:"token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username and password are required")
		return
	}

	token, err := h.service.Authenticate(r.Context(), req.Username, req.Password, r.RemoteAddr, r.UserAgent())
	if err != nil {
		switch {
		case errors.Is(err, ErrTooManyAttempts):
			h.metrics.ObserveLogin("throttled")
			httpx.Problem(w, http.StatusTooManyRequests, "Too Many Requests", "too many failed login attempts, try again later")
		case errors.Is(err, ErrInvalidCredentials):
			h.metrics.ObserveLogin("failure")
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", invalidCredentialsMessage)
		default:
			h.logger.Error("authenticate", slog.Any("error", err))
			h.metrics.ObserveLogin("error")
			httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		}
		return
	}

	// Edge session marker: the gate checks only that this cookie exists.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   h.service.TokenTTL(),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	h.metrics.ObserveLogin("success")
	httpx.JSON(w, http.StatusOK, loginResponse{Token: token})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	// Stateless tokens cannot be revoked server-side; logout just clears the
	// edge marker. Safe to call when already logged out.
	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

type changePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "new password must be at least 8 characters")
		return
	}
	if err := h.service.ChangePassword(r.Context(), req.Username, req.OldPassword, req.NewPassword); err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", invalidCredentialsMessage)
			return
		}
		h.logger.Error("change password", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "password changed"})
}

type resetPasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

func (h *Handler) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetPasswordRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "new password must be at least 8 characters")
		return
	}
	if err := h.service.ResetPassword(r.Context(), req.Username, req.NewPassword); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "no such user")
			return
		}
		h.logger.Error("reset password", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "password reset"})
}

// meResponse is the wire form of the authorization record. Permissions use
// the external "action:subject" strings.
type meResponse struct {
	UserID      int64    `json:"userId"`
	Username    string   `json:"username"`
	RoleID      int64    `json:"roleId"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	rec := shared.RecordFromContext(r.Context())
	if rec == nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
		return
	}
	httpx.JSON(w, http.StatusOK, meResponse{
		UserID:      rec.UserID,
		Username:    rec.Username,
		RoleID:      rec.RoleID,
		Role:        rec.RoleName,
		Permissions: rec.Permissions.Strings(),
	})
}
