package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/vyrodovalexey/chatrelay/internal/observability"
)

func TestMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)

	m := observability.NewMetrics("test")

	router := gin.New()
	router.Use(Metrics(m))
	router.POST("/chat", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"reply": "hi"})
	})

	for i := 0; i < 3; i++ {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/chat", nil))
	}
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/unknown/path", nil))

	reg := m.Registry()
	assert.Equal(t, float64(3), metricValue(t, reg, "test_http_requests_total",
		map[string]string{"method": "POST", "route": "/chat", "status": "200"}))
	assert.Equal(t, float64(1), metricValue(t, reg, "test_http_requests_total",
		map[string]string{"method": "GET", "route": "unmatched", "status": "404"}))
	assert.Equal(t, float64(3), metricValue(t, reg, "test_http_request_duration_seconds",
		map[string]string{"route": "/chat"}))
	assert.Equal(t, float64(0), metricValue(t, reg, "test_http_active_requests", nil))
}
