package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCSRFRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(sessions.Sessions("test_session", cookie.NewStore([]byte("0123456789abcdef0123456789abcdef"))))
	r.Use(CSRFMiddleware())
	r.GET("/form", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"csrf_token": GetCSRFToken(c)})
	})
	r.POST("/form", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func fetchCSRF(t *testing.T, r http.Handler) (string, []*http.Cookie) {
	t.Helper()
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/form", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		CSRFToken string `json:"csrf_token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.NotEmpty(t, body.CSRFToken)
	return body.CSRFToken, w.Result().Cookies()
}

func postForm(r http.Handler, cookies []*http.Cookie, form url.Values, header string) int {
	req := httptest.NewRequest(http.MethodPost, "/form", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if header != "" {
		req.Header.Set("X-CSRF-Token", header)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Code
}

func TestCSRFMiddleware(t *testing.T) {
	r := newCSRFRouter()
	token, cookies := fetchCSRF(t, r)

	t.Run("form field", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, postForm(r, cookies, url.Values{"csrf_token": {token}}, ""))
	})
	t.Run("header", func(t *testing.T) {
		assert.Equal(t, http.StatusNoContent, postForm(r, cookies, url.Values{}, token))
	})
	t.Run("missing", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, postForm(r, cookies, url.Values{}, ""))
	})
	t.Run("wrong token", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, postForm(r, cookies, url.Values{"csrf_token": {"nope"}}, ""))
	})
	t.Run("token without its session", func(t *testing.T) {
		assert.Equal(t, http.StatusForbidden, postForm(r, nil, url.Values{"csrf_token": {token}}, ""))
	})
}
