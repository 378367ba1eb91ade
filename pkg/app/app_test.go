package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/cache"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/adapters/repository/sqlite"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/config"
	"github.com/wadjakorntonsri/go-link-redirector/pkg/logging"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		DatabaseURL: "file:" + t.Name() + "?mode=memory&cache=shared",
		DBMaxConns:  10,
		DBTimeout:   time.Second,
		CacheTTL:    time.Minute,
	}
}

func TestNew_SQLite(t *testing.T) {
	a, err := New(context.Background(), testConfig(t), logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.IsType(t, &sqlite.SQLiteRepository{}, a.Repo)

	rr := httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(`{"targetUrl":"https://example.com"}`)))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	a.Router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `unauthenticated_calls_count{route="POST /create"} 1`)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}

func TestNew_WithRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.RedisURL = "redis://" + mr.Addr()

	a, err := New(context.Background(), cfg, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })

	assert.IsType(t, &cache.LinkCache{}, a.Repo)
}

func TestNew_InvalidRedisURL(t *testing.T) {
	cfg := testConfig(t)
	cfg.RedisURL = "not-a-redis-url"

	_, err := New(context.Background(), cfg, logging.Discard())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse redis url")
}
