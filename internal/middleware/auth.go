// Package middleware provides HTTP middleware for the storefront API.
package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/dongnae-labs/storefront/internal/app/services/auth"
	"github.com/dongnae-labs/storefront/internal/errors"
	"github.com/dongnae-labs/storefront/internal/httputil"
	"github.com/dongnae-labs/storefront/pkg/logger"
)

type contextKey string

const storeIDKey contextKey = "store_id"

// StoreAuth validates session tokens issued at login and binds the store id
// to the request context.
type StoreAuth struct {
	auth *auth.Service
	log  *logger.Logger
}

// NewStoreAuth creates the session auth middleware.
func NewStoreAuth(authService *auth.Service, log *logger.Logger) *StoreAuth {
	if log == nil {
		log = logger.NewDefault("middleware-auth")
	}
	return &StoreAuth{auth: authService, log: log}
}

// Handler rejects requests without a valid Bearer session token.
func (m *StoreAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, serviceErr := bearerToken(r)
		if serviceErr != nil {
			httputil.WriteServiceError(w, serviceErr)
			return
		}

		claims, err := m.auth.ParseToken(token)
		if err != nil {
			m.log.WithError(err).Warn("session token rejected")
			httputil.WriteError(w, err)
			return
		}

		ctx := context.WithValue(r.Context(), storeIDKey, claims.StoreID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// StoreID returns the authenticated store id bound to the context, or "".
func StoreID(ctx context.Context) string {
	id, _ := ctx.Value(storeIDKey).(string)
	return id
}

// AdminAuth gates the admin surface behind a shared token.
type AdminAuth struct {
	token string
	log   *logger.Logger
}

// NewAdminAuth creates the admin auth middleware.
func NewAdminAuth(token string, log *logger.Logger) *AdminAuth {
	if log == nil {
		log = logger.NewDefault("middleware-admin")
	}
	return &AdminAuth{token: token, log: log}
}

// Handler rejects requests whose Bearer token does not match the configured
// admin token. An empty configured token disables the admin surface.
func (m *AdminAuth) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.token == "" {
			httputil.WriteServiceError(w, errors.Unauthorized("admin surface is not configured"))
			return
		}
		token, serviceErr := bearerToken(r)
		if serviceErr != nil {
			httputil.WriteServiceError(w, serviceErr)
			return
		}
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.token)) != 1 {
			m.log.WithField("path", r.URL.Path).Warn("admin token rejected")
			httputil.WriteServiceError(w, errors.Unauthorized("invalid admin token"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) (string, *errors.ServiceError) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.Unauthorized("missing Authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", errors.Unauthorized("invalid Authorization header format")
	}
	return parts[1], nil
}
