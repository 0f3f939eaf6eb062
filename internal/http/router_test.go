package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpH "github.com/yungbote/resourcehub-backend/internal/http/handlers"
	httpMW "github.com/yungbote/resourcehub-backend/internal/http/middleware"
	"github.com/yungbote/resourcehub-backend/internal/observability"
	"github.com/yungbote/resourcehub-backend/internal/platform/logger"
	"github.com/yungbote/resourcehub-backend/internal/services"
)

func TestRouterGuardsAPIAndServesHealth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	as, err := services.NewAuthService(logger.Nop(), "secret")
	require.NoError(t, err)

	r := NewRouter(RouterConfig{
		Log:               logger.Nop(),
		Metrics:           observability.NewMetrics(),
		AuthMiddleware:    httpMW.NewAuthMiddleware(logger.Nop(), as),
		ResourceHandler:   httpH.NewResourceHandler(logger.Nop(), nil),
		CollectionHandler: httpH.NewCollectionHandler(logger.Nop(), nil),
		HealthHandler:     httpH.NewHealthHandler(nil),
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	for _, target := range []string{"/api/resources", "/api/collections"} {
		rec = httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rh_api_requests_total{method="GET",route="/api/resources",status="401"} 1`)
}
