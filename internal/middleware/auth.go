package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/models"
	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/token"

	"github.com/gin-gonic/gin"
)

const (
	// SessionUserID is the browser session key set by the OIDC login callback.
	SessionUserID = "user_id"

	contextUser        = "user"
	contextTokenResult = "token_result"
)

// TokenValidator verifies a bearer access token.
type TokenValidator interface {
	Validate(ctx context.Context, tokenString string) (*token.ValidationResult, error)
}

// UserLoader resolves the active account a token was issued for.
type UserLoader interface {
	GetActiveUser(ctx context.Context, id string) (*models.User, error)
}

// BearerToken returns the token from an "Authorization: Bearer" header, or "".
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

func abortUnauthorized(c *gin.Context, message string) {
	c.Header("WWW-Authenticate", `Bearer realm="fleet"`)
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"success": false,
		"message": message,
	})
}

// RequireToken accepts first-party access tokens only. Tokens minted for an
// OIDC client carry a client_id and are meant for the client's own API calls
// such as userinfo, not for account management.
func RequireToken(validator TokenValidator, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := BearerToken(c)
		if raw == "" {
			abortUnauthorized(c, "Bearer token required")
			return
		}

		result, err := validator.Validate(c.Request.Context(), raw)
		if err != nil {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}
		if result.ClientID != "" {
			abortUnauthorized(c, "Token was issued to a client application")
			return
		}

		user, err := users.GetActiveUser(c.Request.Context(), result.UserID)
		if err != nil {
			abortUnauthorized(c, "Account is not active")
			return
		}

		c.Set(contextTokenResult, result)
		c.Set(contextUser, user)
		c.Request = c.Request.WithContext(models.SetUserContext(c.Request.Context(), user))
		c.Next()
	}
}

// RequirePermission must run after RequireToken. The admin role passes every check.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := TokenResult(c)
		if result == nil {
			abortUnauthorized(c, "Bearer token required")
			return
		}
		if !result.HasRole(models.RoleAdmin) && !result.HasPermission(permission) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"message": "Permission denied",
			})
			return
		}
		c.Next()
	}
}

// RequireAdmin gates client administration.
func RequireAdmin() gin.HandlerFunc {
	return RequirePermission(models.PermissionClientsManage)
}

// TokenResult returns the validated token placed by RequireToken.
func TokenResult(c *gin.Context) *token.ValidationResult {
	if v, ok := c.Get(contextTokenResult); ok {
		if result, ok := v.(*token.ValidationResult); ok {
			return result
		}
	}
	return nil
}

// CurrentUser returns the account placed by RequireToken.
func CurrentUser(c *gin.Context) *models.User {
	return models.GetUserFromContext(c)
}
