package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protectedRouter(role string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/secure", RequireAuthWithRole(role), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doRequest(r *gin.Engine, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/secure", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestRequireAuthMissingHeader(t *testing.T) {
	w := doRequest(protectedRouter("admin"), "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthInvalidToken(t *testing.T) {
	w := doRequest(protectedRouter("admin"), "not-a-token")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuthWithRole(t *testing.T) {
	token, err := GenerateToken(1, "admin")
	require.NoError(t, err)

	w := doRequest(protectedRouter("admin"), token)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireAuthWrongRole(t *testing.T) {
	token, err := GenerateToken(1, "viewer")
	require.NoError(t, err)

	w := doRequest(protectedRouter("admin"), token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
