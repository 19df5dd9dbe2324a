package users

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-cms/meridian-cms/internal/authz"
	"github.com/meridian-cms/meridian-cms/internal/platform/httpx"
	"github.com/meridian-cms/meridian-cms/internal/rbac"
)

// Handler exposes user administration endpoints.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	rbacSvc   *rbac.Service
	validator *validator.Validate
	rbac      rbac.Middleware
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbacSvc *rbac.Service, mw rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbacSvc: rbacSvc, validator: validator.New(), rbac: mw}
}

// MountRoutes registers user routes. Mounted behind the bearer-token
// middleware by the router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermReadUser, authz.PermManageUser))
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(authz.PermManageUser))
		r.Post("/", h.createUser)
		r.Put("/{id}/role", h.assignRole)
		r.Put("/{id}/active", h.setActive)
		r.Delete("/{id}", h.deleteUser)
	})
}

type userResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
	RoleID   int64  `json:"roleId"`
	Role     string `json:"role"`
	IsActive bool   `json:"isActive"`
}

func toUserResponse(u User) userResponse {
	return userResponse{
		ID:       u.ID,
		Username: u.Username,
		FullName: u.FullName,
		RoleID:   u.RoleID,
		Role:     u.RoleName,
		IsActive: u.IsActive,
	}
}

type listUsersResponse struct {
	Users      []userResponse `json:"users"`
	Page       int            `json:"page"`
	PerPage    int            `json:"perPage"`
	Total      int            `json:"total"`
	TotalPages int            `json:"totalPages"`
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("perPage"))
	list, p, err := h.service.ListUsers(r.Context(), page, perPage)
	if err != nil {
		h.logger.Error("list users", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	out := make([]userResponse, len(list))
	for i, u := range list {
		out[i] = toUserResponse(u)
	}
	httpx.JSON(w, http.StatusOK, listUsersResponse{
		Users:      out,
		Page:       p.Page,
		PerPage:    p.PerPage,
		Total:      p.Total,
		TotalPages: p.TotalPages,
	})
}

func (h *Handler) getUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	user, err := h.service.GetUser(r.Context(), id)
	if err != nil {
		h.respondError(w, err, "get user")
		return
	}
	httpx.JSON(w, http.StatusOK, toUserResponse(user))
}

type createUserRequest struct {
	Username string `json:"username" validate:"required"`
	FullName string `json:"fullName"`
	Password string `json:"password" validate:"required,min=8"`
	RoleID   int64  `json:"roleId" validate:"required"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "username, password (min 8) and roleId are required")
		return
	}
	user, err := h.service.CreateUser(r.Context(), req.Username, req.FullName, req.Password, req.RoleID)
	if err != nil {
		h.respondError(w, err, "create user")
		return
	}
	httpx.JSON(w, http.StatusCreated, toUserResponse(user))
}

type assignRoleRequest struct {
	RoleID int64 `json:"roleId" validate:"required"`
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req assignRoleRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "roleId is required")
		return
	}
	if err := h.rbacSvc.AssignRole(r.Context(), id, req.RoleID); err != nil {
		if errors.Is(err, rbac.ErrNotFound) {
			httpx.Problem(w, http.StatusNotFound, "Not Found", "user or role not found")
			return
		}
		h.logger.Error("assign role", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "role assigned"})
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	var req setActiveRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if err := h.service.SetActive(r.Context(), id, req.Active); err != nil {
		h.respondError(w, err, "set active")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user updated"})
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid user id")
		return
	}
	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		h.respondError(w, err, "delete user")
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"message": "user deleted"})
}

func (h *Handler) respondError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "user not found")
	case errors.Is(err, ErrDuplicateUsername):
		httpx.Problem(w, http.StatusConflict, "Duplicate", "username already exists")
	default:
		h.logger.Error(op, slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}
