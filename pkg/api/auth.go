package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Scope is one of the permission levels spec.md §6's authentication
// contract resolves a request into.
type Scope string

const (
	ScopeRead    Scope = "read"
	ScopeWrite   Scope = "write"
	ScopeExecute Scope = "execute"
	ScopeAdmin   Scope = "admin"
)

// Principal is what an Authenticator resolves an API key into: the project
// the caller may act on and the scopes it holds. Admin implies every other
// scope, per spec.md §6.
type Principal struct {
	ProjectID uuid.UUID
	Scopes    map[Scope]bool
}

// Allows reports whether the principal holds scope (or admin, which
// implies every scope).
func (p Principal) Allows(scope Scope) bool {
	return p.Scopes[ScopeAdmin] || p.Scopes[scope]
}

// Authenticator resolves an API key into a Principal. The engine never
// parses tokens itself — this is an injected external collaborator,
// matching spec.md's "the auth subsystem is external".
type Authenticator interface {
	Authenticate(apiKey string) (Principal, error)
}

// ErrUnauthorized is returned by an Authenticator when the key is unknown.
var ErrUnauthorized = errAuthMessage("invalid or missing API key")

type errAuthMessage string

func (e errAuthMessage) Error() string { return string(e) }

// StaticAuthenticator resolves API keys from a fixed, in-memory map —
// suitable for local development and the CLI adapter, grounded on the
// teacher's pkg/api/auth.go "resolve caller identity from a fixed header
// convention" shape, adapted here to a key → Principal table instead of an
// oauth2-proxy header convention (this repo has no reverse-proxy in front
// of it by default).
type StaticAuthenticator struct {
	keys map[string]Principal
}

// NewStaticAuthenticator builds a StaticAuthenticator from a key → Principal
// table, typically loaded from a config file at startup.
func NewStaticAuthenticator(keys map[string]Principal) *StaticAuthenticator {
	return &StaticAuthenticator{keys: keys}
}

func (a *StaticAuthenticator) Authenticate(apiKey string) (Principal, error) {
	p, ok := a.keys[apiKey]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}

const principalContextKey = "api.principal"

// RequireAuth parses "Authorization: Bearer <key>" and resolves it to a
// Principal via auth, storing it in the gin context for downstream
// handlers and RequireScope.
func RequireAuth(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(header, prefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": ErrUnauthorized.Error()})
			return
		}
		key := strings.TrimPrefix(header, prefix)

		principal, err := auth.Authenticate(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		c.Set(principalContextKey, principal)
		c.Next()
	}
}

// RequireScope is a middleware factory gating a route on the caller's
// resolved Principal holding scope, mirroring the teacher's
// require_scope-style middleware factory pattern.
func RequireScope(scope Scope) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal, ok := principalFrom(c)
		if !ok || !principal.Allows(scope) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "missing required scope: " + string(scope)})
			return
		}
		c.Next()
	}
}

func principalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalContextKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}
