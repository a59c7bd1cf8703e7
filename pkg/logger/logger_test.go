package logger

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-engine/pkg/config"
)

func TestNew_BuildsDevelopmentLogger(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "debug", Format: "console"}})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNew_BuildsProductionLogger(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvProduction, Log: config.LogConfig{Level: "warn", Format: "json"}})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestNew_FallsBackToInfoOnInvalidLevel(t *testing.T) {
	l, err := New(&config.Config{Env: config.EnvDevelopment, Log: config.LogConfig{Level: "not-a-level"}})
	require.NoError(t, err)
	require.NotNil(t, l)
}

func TestGinMiddleware_LogsRequestWithoutPanicking(t *testing.T) {
	gin.SetMode(gin.TestMode)
	l, err := New(&config.Config{Env: config.EnvDevelopment})
	require.NoError(t, err)

	r := gin.New()
	r.Use(GinMiddleware(l))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	})
	assert.Equal(t, http.StatusOK, rec.Code)
}
