package bootstrap

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yigit/unisphere-scheduler/internal/config"
	"github.com/yigit/unisphere-scheduler/internal/db"
	"github.com/yigit/unisphere-scheduler/internal/pkg/lock"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func loadTestConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Setenv("JWT_SECRET", "bootstrap-secret")
	cfg, err := config.LoadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	return cfg
}

func TestSetupLockerFallsBackToLocal(t *testing.T) {
	cfg := loadTestConfig(t)

	locker, redisDB, err := SetupLocker(cfg, zerolog.Nop())
	require.NoError(t, err)
	assert.Nil(t, redisDB)
	assert.IsType(t, &lock.LocalLocker{}, locker)
}

func TestRouterWiring(t *testing.T) {
	cfg := loadTestConfig(t)
	deps, err := BuildDependencies(cfg, &db.PostgresDB{}, lock.NewLocalLocker(), zerolog.Nop())
	require.NoError(t, err)

	healthy := HealthHandler(map[string]Pinger{"database": pingFunc(func(context.Context) error { return nil })})
	router := SetupRouter(cfg, deps, healthy)
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"ping", "/ping", http.StatusOK},
		{"health", "/api/v1/health", http.StatusOK},
		{"metrics", "/metrics", http.StatusOK},
		{"schedule needs a token", "/api/v1/schedule?semester=FALL&year=2026", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestHealthHandlerReportsFailures(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", HealthHandler(map[string]Pinger{
		"database": pingFunc(func(context.Context) error { return nil }),
		"redis":    pingFunc(func(context.Context) error { return errors.New("connection refused") }),
	}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), `"redis":"connection refused"`)
	assert.Contains(t, rec.Body.String(), `"database":"ok"`)
}
