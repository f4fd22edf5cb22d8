package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/barysai/barysai/internal/auth"
	"github.com/barysai/barysai/internal/models"
	"github.com/barysai/barysai/internal/repository"
	"github.com/barysai/barysai/internal/session"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Context keys for values the auth middleware stores in gin.Context.
const (
	ContextKeyIdentity = "identity"
	ContextKeyToken    = "token"
)

// TokenCookie is the name of the httpOnly session cookie.
const TokenCookie = "token"

// Policy decides what happens to a request whose token is missing or
// unusable.
//
// Two kinds of route groups exist:
//   - Chat routes use DegradeToGuest. The client works without an
//     account, so a missing, expired or revoked token is not an error:
//     the request continues as auth.Guest() and the service layer answers
//     guests with echoes (writes) or not-found (reads). A browser with a
//     stale cookie keeps working instead of looping on 401s.
//   - Admin routes use Reject. Anything short of a valid, unrevoked token
//     for an existing user stops the chain with 401 before a handler runs.
//
// The policy only covers the token. Ownership of a chat is checked in the
// service and reported as 404, whatever the policy.
type Policy int

const (
	// DegradeToGuest lets the request through as a guest.
	DegradeToGuest Policy = iota
	// Reject answers 401.
	Reject
)

// UserLookup re-reads the user a token names.
type UserLookup interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
}

type Options struct {
	Policy Policy

	// ConfirmUser, when set, makes the middleware load the user row on
	// every request. A deleted user is then treated like a bad token and
	// the role comes from the row instead of the token.
	ConfirmUser UserLookup
}

// Authenticator turns the session cookie (or bearer header) into an
// auth.Identity on the gin context.
type Authenticator struct {
	tokens  *auth.TokenService
	revoker session.Revoker
	logger  *zap.Logger
}

func NewAuthenticator(tokens *auth.TokenService, revoker session.Revoker, logger *zap.Logger) *Authenticator {
	return &Authenticator{tokens: tokens, revoker: revoker, logger: logger}
}

// Middleware returns the gin handler for one route group.
//
// Each step either hands the request to fail (which applies the policy)
// or moves on:
//  1. find the token: cookie first, then the Authorization header;
//  2. verify signature, issuer and expiry;
//  3. ask the revoker whether the token was logged out. An error here
//     counts as revoked: a Redis outage must not resurrect sessions;
//  4. optionally re-read the user row, so deleted users lose access and
//     the role comes from the database.
//
// On success the identity and raw token are stored under
// ContextKeyIdentity and ContextKeyToken.
func (a *Authenticator) Middleware(opts Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Step 1: locate the token.
		token := TokenFromRequest(c)
		if token == "" {
			a.fail(c, opts.Policy, "authentication required")
			return
		}

		// Step 2: signature, issuer, expiry.
		claims, err := a.tokens.Parse(token)
		if err != nil {
			a.fail(c, opts.Policy, "invalid or expired token")
			return
		}

		// Step 3: logged out?
		revoked, err := a.revoker.IsRevoked(c.Request.Context(), token)
		if err != nil {
			a.logger.Error("revocation check failed", zap.Error(err))
			a.fail(c, opts.Policy, "invalid or expired token")
			return
		}
		if revoked {
			a.fail(c, opts.Policy, "invalid or expired token")
			return
		}

		identity := auth.Authenticated(claims.UserID, claims.Email, claims.Role)

		// Step 4: the user must still exist. A lookup failure that is not
		// "not found" is a 500 on strict routes; chat routes fall back to
		// guest so a database blip does not log everyone out for good.
		if opts.ConfirmUser != nil {
			user, err := opts.ConfirmUser.GetByID(c.Request.Context(), claims.UserID)
			switch {
			case errors.Is(err, repository.ErrNotFound):
				a.fail(c, opts.Policy, "user no longer exists")
				return
			case err != nil:
				a.logger.Error("failed to confirm session user", zap.Int64("user_id", claims.UserID), zap.Error(err))
				if opts.Policy == Reject {
					c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "server error"})
					return
				}
				setIdentity(c, auth.Guest(), "")
				c.Next()
				return
			}
			identity = auth.Authenticated(user.ID, user.Email, user.Role)
		}

		setIdentity(c, identity, token)
		c.Next()
	}
}

func (a *Authenticator) fail(c *gin.Context, policy Policy, reason string) {
	if policy == Reject {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": reason})
		return
	}
	setIdentity(c, auth.Guest(), "")
	c.Next()
}

func setIdentity(c *gin.Context, id auth.Identity, token string) {
	c.Set(ContextKeyIdentity, id)
	c.Set(ContextKeyToken, token)
}

// RequireRole must run after a Reject-policy Middleware.
func RequireRole(role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := GetIdentity(c)
		if id.IsGuest() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		if id.Role() != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		c.Next()
	}
}

// TokenFromRequest reads the session cookie, then falls back to an
// "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) string {
	if cookie, err := c.Cookie(TokenCookie); err == nil && cookie != "" {
		return cookie
	}

	header := c.GetHeader("Authorization")
	parts := strings.SplitN(header, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// GetIdentity returns a guest when no auth middleware ran.
func GetIdentity(c *gin.Context) auth.Identity {
	val, exists := c.Get(ContextKeyIdentity)
	if !exists {
		return auth.Guest()
	}
	id, ok := val.(auth.Identity)
	if !ok {
		return auth.Guest()
	}
	return id
}

func GetToken(c *gin.Context) string {
	val, exists := c.Get(ContextKeyToken)
	if !exists {
		return ""
	}
	token, ok := val.(string)
	if !ok {
		return ""
	}
	return token
}
