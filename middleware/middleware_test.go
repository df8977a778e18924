package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func bearerRouter(secret string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(BearerAuth(secret))
	r.GET("/protected", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func doGet(r *gin.Engine, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBearerAuth(t *testing.T) {
	r := bearerRouter("secret")

	assert.Equal(t, http.StatusOK, doGet(r, "Bearer secret").Code)
	// scheme matching is case-insensitive
	assert.Equal(t, http.StatusOK, doGet(r, "bearer secret").Code)

	assert.Equal(t, http.StatusUnauthorized, doGet(r, "").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "Bearer wrong").Code)
	assert.Equal(t, http.StatusUnauthorized, doGet(r, "secret").Code)
}

func TestBearerAuthUnconfigured(t *testing.T) {
	r := bearerRouter("")
	assert.Equal(t, http.StatusInternalServerError, doGet(r, "Bearer anything").Code)
}
