package authz

import (
	"context"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/meridian-apparel/meridian-console/internal/platform/httpx"
	"github.com/meridian-apparel/meridian-console/internal/shared"
)

// Middleware wires the route guard into HTTP handlers. Denials are rendered
// before the guarded handler runs; the guarded content is never reached on
// deny.
type Middleware struct {
	Guard  *Guard
	Logger *slog.Logger
	// OnDeny, when set, observes denied navigation attempts (metrics,
	// audit trail).
	OnDeny func(ctx context.Context, subject *Subject, path string)
}

// DenialPayload is the body rendered on a denied navigation attempt. It
// carries enough context for the client to display a helpful message.
type DenialPayload struct {
	Title         string   `json:"title"`
	Status        int      `json:"status"`
	Detail        string   `json:"detail"`
	ActualRole    string   `json:"actual_role"`
	RequiredRoles []string `json:"required_roles"`
}

// RequireRoute guards the subtree by resolving the request path against the
// module catalog.
func (m Middleware) RequireRoute() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := m.subject(r)
			m.respond(w, r, next, subject, m.Guard.EvaluateRoute(subject, r.URL.Path))
		})
	}
}

// RequireModule guards the subtree with a module key and optional action,
// independent of the request path.
func (m Middleware) RequireModule(key ModuleKey, action Action) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := m.subject(r)
			m.respond(w, r, next, subject, m.Guard.EvaluateModule(subject, key, action))
		})
	}
}

// RequireRoles guards the subtree with an explicit role list attached at the
// routing layer.
func (m Middleware) RequireRoles(roles ...Role) func(http.Handler) http.Handler {
	required := RoleSet(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := m.subject(r)
			m.respond(w, r, next, subject, m.Guard.EvaluateRoles(subject, required))
		})
	}
}

// RequireAuthenticated only checks for a signed-in identity.
func (m Middleware) RequireAuthenticated() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject := m.subject(r)
			if subject == nil {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
		})
	}
}

func (m Middleware) respond(w http.ResponseWriter, r *http.Request, next http.Handler, subject *Subject, outcome GuardOutcome) {
	switch outcome.State {
	case GuardAllowed:
		next.ServeHTTP(w, r.WithContext(ContextWithSubject(r.Context(), subject)))
	case GuardUnauthenticated:
		// The requested path is intentionally discarded; there is no
		// post-login redirect-back.
		httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "sign in required")
	default:
		if m.OnDeny != nil {
			m.OnDeny(r.Context(), subject, r.URL.Path)
		}
		if m.Logger != nil {
			m.Logger.Warn("navigation denied",
				slog.String("path", r.URL.Path),
				slog.String("role", string(outcome.Decision.ActualRole)))
		}
		httpx.JSON(w, http.StatusForbidden, DenialPayload{
			Title:         "Access Denied",
			Status:        http.StatusForbidden,
			Detail:        "your role does not permit this section",
			ActualRole:    string(outcome.Decision.ActualRole),
			RequiredRoles: outcome.Decision.RequiredRoles.Strings(),
		})
	}
}

// subject derives the engine's view of the caller from the session. A
// missing session, empty user, or malformed role all count as no identity.
func (m Middleware) subject(r *http.Request) *Subject {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		return nil
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz: malformed session user id", slog.String("value", sess.User()))
		}
		return nil
	}
	role, err := ParseRole(sess.UserRole())
	if err != nil {
		if m.Logger != nil {
			m.Logger.Error("authz: malformed session role", slog.String("value", sess.UserRole()))
		}
		return nil
	}
	return &Subject{UserID: userID, Role: role}
}

type subjectContextKey struct{}

// ContextWithSubject stores the authenticated subject in context.
func ContextWithSubject(ctx context.Context, subject *Subject) context.Context {
	return context.WithValue(ctx, subjectContextKey{}, subject)
}

// SubjectFromContext extracts the authenticated subject, nil when absent.
func SubjectFromContext(ctx context.Context) *Subject {
	subject, _ := ctx.Value(subjectContextKey{}).(*Subject)
	return subject
}
