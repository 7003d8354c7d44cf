package middleware

import (
	"net/http"

	"github.com/ghudulf/uhhwipspacetimedbapi-sub000/internal/util"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	csrfTokenKey    = "csrf_token"
	csrfFormField   = "csrf_token"
	csrfHeaderField = "X-CSRF-Token"
)

// CSRFMiddleware protects the cookie-session endpoints of the browser login
// flow. The token lives in the session; unsafe methods must echo it back in
// the form body or the X-CSRF-Token header.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)

		token, _ := session.Get(csrfTokenKey).(string)
		if token == "" {
			var err error
			token, err = util.RandomToken(32)
			if err == nil {
				session.Set(csrfTokenKey, token)
				err = session.Save()
			}
			if err != nil {
				log.Error().Err(err).Msg("failed to save csrf token")
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"message": "Internal server error",
				})
				return
			}
		}

		c.Set(csrfTokenKey, token)

		switch c.Request.Method {
		case http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodPatch:
			submitted := c.PostForm(csrfFormField)
			if submitted == "" {
				submitted = c.GetHeader(csrfHeaderField)
			}
			if submitted == "" || !util.ConstantTimeEqual(submitted, token) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
					"success": false,
					"message": "CSRF token validation failed",
				})
				return
			}
		}

		c.Next()
	}
}

// GetCSRFToken retrieves the CSRF token from the context
func GetCSRFToken(c *gin.Context) string {
	if token, exists := c.Get(csrfTokenKey); exists {
		if tokenStr, ok := token.(string); ok {
			return tokenStr
		}
	}
	return ""
}
