package auth

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/meridian-apparel/meridian-console/internal/authz"
	"github.com/meridian-apparel/meridian-console/internal/platform/httpx"
	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Auditor records sign-in and sign-out events. A nil Auditor disables the
// trail without disabling the flow.
type Auditor interface {
	SignedIn(ctx context.Context, actorID int64)
	SignedOut(ctx context.Context, actorID int64)
}

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	resolver       *authz.Resolver
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	auditor        Auditor
	validator      *validator.Validate
	loginLimiter   func(http.Handler) http.Handler
}

// NewHandler constructs a Handler instance. loginLimiter, when non-nil, is
// applied to the login endpoint only.
func NewHandler(logger *slog.Logger, service *Service, resolver *authz.Resolver, sessions *shared.SessionManager, csrf *shared.CSRFManager, auditor Auditor, loginLimiter func(http.Handler) http.Handler) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		resolver:       resolver,
		sessionManager: sessions,
		csrfManager:    csrf,
		auditor:        auditor,
		validator:      validator.New(),
		loginLimiter:   loginLimiter,
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h.loginLimiter != nil {
		r.With(h.loginLimiter).Post("/login", h.handleLogin)
	} else {
		r.Post("/login", h.handleLogin)
	}
	r.Post("/logout", h.handleLogout)
	r.Get("/me", h.handleMe)
	r.Get("/menu", h.handleMenu)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

type userPayload struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type sessionPayload struct {
	User      userPayload `json:"user"`
	Menu      authz.Menu  `json:"menu"`
	CSRFToken string      `json:"csrf_token"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed login payload")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "email and password are required")
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid email or password")
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	sess.SetUser(strconv.FormatInt(user.ID, 10), user.Role.String())

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	if h.auditor != nil {
		h.auditor.SignedIn(r.Context(), user.ID)
	}

	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), sess)
	httpx.JSON(w, http.StatusOK, sessionPayload{
		User:      toUserPayload(user),
		Menu:      h.resolver.BuildMenu(user.Role),
		CSRFToken: csrfToken,
	})
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil && sess.ID != "" {
		if h.auditor != nil {
			if actorID, err := strconv.ParseInt(sess.User(), 10, 64); err == nil {
				h.auditor.SignedOut(r.Context(), actorID)
			}
		}
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "signed_out"})
}

func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	csrfToken, _ := h.csrfManager.EnsureToken(r.Context(), shared.SessionFromContext(r.Context()))
	httpx.JSON(w, http.StatusOK, sessionPayload{
		User:      toUserPayload(user),
		Menu:      h.resolver.BuildMenu(user.Role),
		CSRFToken: csrfToken,
	})
}

func (h *Handler) handleMenu(w http.ResponseWriter, r *http.Request) {
	user, ok := h.currentUser(w, r)
	if !ok {
		return
	}
	httpx.JSON(w, http.StatusOK, h.resolver.BuildMenu(user.Role))
}

// currentUser resolves the signed-in account or writes a 401. A session
// carrying a stale or malformed identity is treated as no identity.
func (h *Handler) currentUser(w http.ResponseWriter, r *http.Request) (*User, bool) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return nil, false
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return nil, false
	}
	user, err := h.service.CurrentUser(r.Context(), userID)
	if err != nil {
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
		return nil, false
	}
	return user, true
}

func toUserPayload(user *User) userPayload {
	return userPayload{ID: user.ID, Email: user.Email, Name: user.Name, Role: user.Role.String()}
}
