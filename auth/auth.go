// Package auth resolves the caller of a request. Authentication itself happens
// upstream; this package trusts the identity headers set by the gateway.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go-bank-ledger/model"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Headers carrying the authenticated identity.
const (
	HeaderUserID = "X-User-ID"
	HeaderRole   = "X-User-Role"
)

// ErrUnauthenticated is returned when a request carries no usable identity.
var ErrUnauthenticated = errors.New("unauthenticated")

// Role gates worker-only operations.
type Role string

const (
	RoleUser   Role = "user"
	RoleWorker Role = "worker"
)

// Identity is the authenticated owner and their role.
type Identity struct {
	OwnerID uuid.UUID `json:"owner_id"`
	Role    Role      `json:"role"`
}

// IsWorker reports whether the identity may approve loans and read ledger stats.
func (i Identity) IsWorker() bool {
	return i.Role == RoleWorker
}

// Provider resolves the identity of an HTTP request.
type Provider interface {
	Identify(r *http.Request) (Identity, error)
}

// HeaderProvider reads the identity from X-User-ID and X-User-Role.
type HeaderProvider struct{}

// Identify implements Provider. A missing role means RoleUser.
func (HeaderProvider) Identify(r *http.Request) (Identity, error) {
	raw := r.Header.Get(HeaderUserID)
	if raw == "" {
		return Identity{}, fmt.Errorf("%w: missing %s", ErrUnauthenticated, HeaderUserID)
	}
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return Identity{}, fmt.Errorf("%w: invalid %s", ErrUnauthenticated, HeaderUserID)
	}

	role := Role(r.Header.Get(HeaderRole))
	switch role {
	case "":
		role = RoleUser
	case RoleUser, RoleWorker:
	default:
		return Identity{}, fmt.Errorf("%w: unknown role %q", ErrUnauthenticated, role)
	}
	return Identity{OwnerID: id, Role: role}, nil
}

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by Middleware.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// Middleware rejects requests without an identity and stores it in the
// request context otherwise.
func Middleware(p Provider, log logrus.FieldLogger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := p.Identify(r)
			if err != nil {
				log.WithField("path", r.URL.Path).WithError(err).Debug("rejected request")
				http.Error(w, "Unauthenticated", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireWorker allows only worker identities through.
func RequireWorker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok || !id.IsWorker() {
			http.Error(w, "Worker role required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CheckOwner fails with model.ErrForbidden unless acc belongs to id.
func CheckOwner(id Identity, acc *model.Account) error {
	if acc.OwnerID != id.OwnerID {
		return fmt.Errorf("%w: account %s is not owned by caller", model.ErrForbidden, acc.Number)
	}
	return nil
}
