package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

type stubValidator struct {
	claims *models.JWTClaims
	err    error
	token  string
}

func (s *stubValidator) ValidateToken(token string) (*models.JWTClaims, error) {
	s.token = token
	return s.claims, s.err
}

type stubObserver struct {
	method string
	path   string
	status int
}

func (s *stubObserver) ObserveHTTPRequest(method, path string, status int, _ time.Duration) {
	s.method, s.path, s.status = method, path, status
}

func newRouter(handlers ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers = append(handlers, func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/schedules/:id", handlers...)
	return r
}

func serve(r *gin.Engine, path, auth string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestJWTMiddleware(t *testing.T) {
	validator := &stubValidator{claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleAdmin}}
	r := newRouter(JWT(validator))

	assert.Equal(t, http.StatusUnauthorized, serve(r, "/schedules/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/schedules/1", "Basic abc").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/schedules/1", "Bearer   ").Code)

	assert.Equal(t, http.StatusNoContent, serve(r, "/schedules/1", "Bearer good-token").Code)
	assert.Equal(t, "good-token", validator.token)

	validator.err = appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	assert.Equal(t, http.StatusUnauthorized, serve(r, "/schedules/1", "Bearer bad").Code)
}

func TestRequireRoles(t *testing.T) {
	setClaims := func(role models.UserRole) gin.HandlerFunc {
		return func(c *gin.Context) {
			c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1", Role: role})
		}
	}
	guard := RequireRoles(models.RoleSuperAdmin, models.RoleSchoolAdmin)

	assert.Equal(t, http.StatusNoContent, serve(newRouter(setClaims(models.RoleSchoolAdmin), guard), "/schedules/1", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(newRouter(setClaims(models.RoleTeacher), guard), "/schedules/1", "").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(newRouter(guard), "/schedules/1", "").Code)
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	observer := &stubObserver{}
	r := newRouter(Metrics(observer))

	serve(r, "/schedules/abc", "")
	assert.Equal(t, http.MethodGet, observer.method)
	assert.Equal(t, "/schedules/:id", observer.path)
	assert.Equal(t, http.StatusNoContent, observer.status)
}

func TestBearerToken(t *testing.T) {
	token, err := bearerToken("bearer  abc.def ")
	assert.NoError(t, err)
	assert.Equal(t, "abc.def", token)

	_, err = bearerToken("Token abc")
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestClaimsIgnoresForeignValues(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	_, ok := Claims(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, "not-claims")
	_, ok = Claims(c)
	assert.False(t, ok)

	c.Set(ContextUserKey, &models.JWTClaims{UserID: "user-1"})
	claims, ok := Claims(c)
	assert.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestResponseMetaRecordsProcessingTime(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var meta map[string]interface{}
	r.GET("/stats", WithResponseMeta(), func(c *gin.Context) {
		SetCacheHit(c, true)
		SetMeta(c, "critical_conflicts", 2)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	serve(r, "/stats", "")

	assert.Equal(t, true, meta[cacheHitKey])
	assert.Equal(t, 2, meta["critical_conflicts"])
	assert.Contains(t, meta, "processing_time_ms")
}
