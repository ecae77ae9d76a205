package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/journey-records-api/internal/models"
	"github.com/noah-isme/journey-records-api/internal/service"
	appErrors "github.com/noah-isme/journey-records-api/pkg/errors"
)

type validatorStub struct {
	claims map[string]*models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if claims, ok := v.claims[token]; ok {
		return claims, nil
	}
	return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
}

func newProtectedRouter(roles ...models.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	auth := validatorStub{claims: map[string]*models.JWTClaims{
		"student-token": {Username: "est01", Role: models.RoleStudent},
		"teacher-token": {Username: "doc01", Role: models.RoleTeacher},
		"admin-token":   {Username: "admin", Role: models.RoleAdmin},
	}}
	r := gin.New()
	r.GET("/protected", JWT(auth), RequireRoles(roles...), func(c *gin.Context) {
		claims := c.MustGet(ContextUserKey).(*models.JWTClaims)
		c.String(http.StatusOK, claims.Username)
	})
	r.GET("/optional", OptionalJWT(auth), func(c *gin.Context) {
		if _, ok := c.Get(ContextUserKey); ok {
			c.String(http.StatusOK, "auth")
			return
		}
		c.String(http.StatusOK, "anon")
	})
	return r
}

func doRequest(r http.Handler, path, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTRejectsMissingOrMalformedHeader(t *testing.T) {
	r := newProtectedRouter(models.RoleStudent)

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "Token student-token").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "Bearer ").Code)
	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/protected", "Bearer forged").Code)
}

func TestRequireRoles(t *testing.T) {
	r := newProtectedRouter(models.RoleStudent)

	w := doRequest(r, "/protected", "Bearer student-token")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "est01", w.Body.String())

	assert.Equal(t, http.StatusForbidden, doRequest(r, "/protected", "bearer teacher-token").Code)
	assert.Equal(t, http.StatusOK, doRequest(r, "/protected", "Bearer admin-token").Code)
}

func TestRequireRolesWithoutClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/", RequireRoles(models.RoleTeacher), func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusUnauthorized, doRequest(r, "/", "").Code)
}

func TestOptionalJWT(t *testing.T) {
	r := newProtectedRouter()

	assert.Equal(t, "anon", doRequest(r, "/optional", "").Body.String())
	assert.Equal(t, "anon", doRequest(r, "/optional", "Bearer forged").Body.String())
	assert.Equal(t, "auth", doRequest(r, "/optional", "Bearer teacher-token").Body.String())
}

func TestMetricsMiddlewareRecordsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics))
	r.GET("/ping", func(c *gin.Context) {
		time.Sleep(time.Millisecond)
		c.Status(http.StatusNoContent)
	})

	doRequest(r, "/ping", "")
	doRequest(r, "/ping", "")

	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareSkipsAndGroupsUnmatched(t *testing.T) {
	gin.SetMode(gin.TestMode)
	metrics := service.NewMetricsService()
	r := gin.New()
	r.Use(Metrics(metrics, "/metrics"))
	r.GET("/metrics", func(c *gin.Context) { c.Status(http.StatusOK) })

	doRequest(r, "/metrics", "")
	assert.Equal(t, uint64(0), metrics.Snapshot().RequestsTotal)

	assert.Equal(t, http.StatusNotFound, doRequest(r, "/nope/1", "").Code)
	doRequest(r, "/nope/2", "")
	assert.Equal(t, uint64(2), metrics.Snapshot().RequestsTotal)
}

func TestMetricsMiddlewareNilService(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Metrics(nil))
	r.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, doRequest(r, "/ping", "").Code)
}
