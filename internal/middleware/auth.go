package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"foodcatalog/internal/auth"
	"foodcatalog/internal/service"
	"foodcatalog/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// SessionCookie is the name of the HttpOnly cookie carrying the session token
const SessionCookie = "access_token"

const principalKey = "principal"

// PrincipalResolver loads the current role set for a session subject
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, userID uuid.UUID) (*auth.Principal, error)
}

// principalCacheEntry stores a resolved principal with TTL
type principalCacheEntry struct {
	principal *auth.Principal
	expiresAt time.Time
}

// Authenticator validates session tokens and resolves the caller once per request
type Authenticator struct {
	tokens       *auth.TokenManager
	resolver     PrincipalResolver
	cache        sync.Map // uuid.UUID -> principalCacheEntry
	cacheTTL     time.Duration
	secureCookie bool
	log          zerolog.Logger
}

func NewAuthenticator(tokens *auth.TokenManager, resolver PrincipalResolver, cacheTTL time.Duration, secureCookie bool, log zerolog.Logger) *Authenticator {
	return &Authenticator{
		tokens:       tokens,
		resolver:     resolver,
		cacheTTL:     cacheTTL,
		secureCookie: secureCookie,
		log:          log,
	}
}

// SetSessionCookie sets the session token as an HttpOnly, SameSite=Strict cookie
func (a *Authenticator) SetSessionCookie(c *gin.Context, token string) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, token, int(a.tokens.TTL().Seconds()), "/", "", a.secureCookie, true)
}

// ClearSessionCookie removes the session cookie
func (a *Authenticator) ClearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(SessionCookie, "", -1, "/", "", a.secureCookie, true)
}

// Forget evicts a cached principal so the next request sees fresh roles
func (a *Authenticator) Forget(userID uuid.UUID) {
	a.cache.Delete(userID)
}

// Authenticate resolves the caller when a valid session is present. Requests
// without one continue anonymously; gating is left to RequireAuth and RequireRole.
func (a *Authenticator) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, fromCookie := readToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := a.tokens.Parse(tokenString)
		if err != nil {
			if fromCookie {
				a.ClearSessionCookie(c)
			}
			c.Next()
			return
		}
		userID := uuid.MustParse(claims.Subject)

		principal, err := a.resolve(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, service.ErrUnauthenticated) {
				// Account vanished while the session was alive
				a.Forget(userID)
				if fromCookie {
					a.ClearSessionCookie(c)
				}
				c.Next()
				return
			}
			a.log.Error().Err(err).Str("user_id", userID.String()).Msg("failed to resolve principal")
			c.AbortWithStatusJSON(http.StatusInternalServerError, response.Error(http.StatusInternalServerError, "Failed to verify session"))
			return
		}

		// Sliding expiration
		if fromCookie && a.tokens.NeedsRefresh(claims) {
			if fresh, err := a.tokens.Issue(principal.UserID, principal.Username); err == nil {
				a.SetSessionCookie(c, fresh)
			} else {
				a.log.Warn().Err(err).Msg("failed to refresh session token")
			}
		}

		c.Set(principalKey, principal)
		c.Next()
	}
}

func (a *Authenticator) resolve(ctx context.Context, userID uuid.UUID) (*auth.Principal, error) {
	if entry, ok := a.cache.Load(userID); ok {
		cached := entry.(principalCacheEntry)
		if time.Now().Before(cached.expiresAt) {
			return cached.principal, nil
		}
	}

	principal, err := a.resolver.ResolvePrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}
	a.cache.Store(userID, principalCacheEntry{principal: principal, expiresAt: time.Now().Add(a.cacheTTL)})
	return principal, nil
}

// RequireAuth rejects anonymous callers with 401
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if CurrentPrincipal(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}
		c.Next()
	}
}

// RequireRole rejects anonymous callers with 401 and callers outside allowedRoles with 403
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		principal := CurrentPrincipal(c)
		if principal == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Authentication required"))
			return
		}
		if !principal.HasAnyRole(allowedRoles...) {
			c.AbortWithStatusJSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Access denied: insufficient permissions"))
			return
		}
		c.Next()
	}
}

// CurrentPrincipal returns the caller resolved by Authenticate, or nil
func CurrentPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	principal, _ := v.(*auth.Principal)
	return principal
}

// readToken tries the cookie first, then the Authorization header
func readToken(c *gin.Context) (string, bool) {
	if tokenString, err := c.Cookie(SessionCookie); err == nil && tokenString != "" {
		return tokenString, true
	}
	parts := strings.Split(c.GetHeader("Authorization"), " ")
	if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
		return parts[1], false
	}
	return "", false
}
