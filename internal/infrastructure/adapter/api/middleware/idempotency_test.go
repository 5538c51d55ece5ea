package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	applogger "github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type idempotencyFixture struct {
	router *gin.Engine
	redis  *miniredis.Miniredis
	calls  *atomic.Int32
	status *atomic.Int32
}

func setupIdempotency(t *testing.T) *idempotencyFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	f := &idempotencyFixture{redis: mr, calls: &atomic.Int32{}, status: &atomic.Int32{}}
	f.status.Store(http.StatusCreated)

	f.router = gin.New()
	f.router.Use(Idempotency(client, "test", time.Minute, 10*time.Second, applogger.NewNoopLogger()))
	f.router.POST("/resource", func(c *gin.Context) {
		n := f.calls.Add(1)
		c.Header("X-Call", strconv.Itoa(int(n)))
		c.JSON(int(f.status.Load()), gin.H{"call": n})
	})
	f.router.GET("/resource", func(c *gin.Context) {
		f.calls.Add(1)
		c.JSON(http.StatusOK, gin.H{})
	})
	return f
}

func (f *idempotencyFixture) do(method, key string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, "/resource", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set(IdempotencyKeyHeader, key)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	f := setupIdempotency(t)

	first := f.do(http.MethodPost, "abc123")
	require.Equal(t, http.StatusCreated, first.Code)
	assert.Empty(t, first.Header().Get(ReplayedHeader))

	second := f.do(http.MethodPost, "abc123")
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get(ReplayedHeader))
	assert.Equal(t, "1", second.Header().Get("X-Call"))
	assert.Equal(t, int32(1), f.calls.Load())

	third := f.do(http.MethodPost, "other")
	assert.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestIdempotency_PassesThroughWithoutKeyOrForSafeMethods(t *testing.T) {
	f := setupIdempotency(t)

	f.do(http.MethodPost, "")
	f.do(http.MethodPost, "")
	f.do(http.MethodGet, "abc")
	f.do(http.MethodGet, "abc")

	assert.Equal(t, int32(4), f.calls.Load())
	assert.Empty(t, f.redis.Keys())
}

func TestIdempotency_InFlightDuplicateIsConflict(t *testing.T) {
	f := setupIdempotency(t)
	require.NoError(t, f.redis.Set("test:idempotency:POST:/resource:busy", inProgressMarker))

	rec := f.do(http.MethodPost, "busy")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Zero(t, f.calls.Load())
}

func TestIdempotency_ServerErrorsAreNotStored(t *testing.T) {
	f := setupIdempotency(t)
	f.status.Store(http.StatusServiceUnavailable)

	rec := f.do(http.MethodPost, "retry-me")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.False(t, f.redis.Exists("test:idempotency:POST:/resource:retry-me"))

	f.status.Store(http.StatusCreated)
	rec = f.do(http.MethodPost, "retry-me")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestIdempotency_ClientErrorsAreReplayed(t *testing.T) {
	f := setupIdempotency(t)
	f.status.Store(http.StatusBadRequest)

	f.do(http.MethodPost, "bad")
	rec := f.do(http.MethodPost, "bad")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, int32(1), f.calls.Load())
}

func TestIdempotency_ExpiresWithTTL(t *testing.T) {
	f := setupIdempotency(t)

	f.do(http.MethodPost, "ttl")
	f.redis.FastForward(2 * time.Minute)
	f.do(http.MethodPost, "ttl")

	assert.Equal(t, int32(2), f.calls.Load())
}

func TestIdempotency_ReservationUsesInFlightTTL(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	const key = "test:idempotency:POST:/slow:k1"
	var reservedFor time.Duration

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(Idempotency(client, "test", time.Hour, 15*time.Second, applogger.NewNoopLogger()))
	router.POST("/slow", func(c *gin.Context) {
		reservedFor = mr.TTL(key)
		c.JSON(http.StatusCreated, gin.H{})
	})

	req := httptest.NewRequest(http.MethodPost, "/slow", nil)
	req.Header.Set(IdempotencyKeyHeader, "k1")
	router.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, 15*time.Second, reservedFor)
	assert.Equal(t, time.Hour, mr.TTL(key), "the stored response keeps the full ttl")
}

func TestIdempotency_PanicReleasesKey(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	var calls atomic.Int32
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(ErrorHandler(applogger.NewNoopLogger()))
	router.Use(Idempotency(client, "test", time.Minute, 10*time.Second, applogger.NewNoopLogger()))
	router.POST("/transfer", func(c *gin.Context) {
		if calls.Add(1) == 1 {
			panic("handler bug")
		}
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})

	post := func() *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/transfer", strings.NewReader("{}"))
		req.Header.Set(IdempotencyKeyHeader, "k1")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	first := post()
	assert.Equal(t, http.StatusInternalServerError, first.Code)
	assert.False(t, mr.Exists("test:idempotency:POST:/transfer:k1"))

	second := post()
	assert.Equal(t, http.StatusCreated, second.Code)
	assert.Empty(t, second.Header().Get(ReplayedHeader))
	assert.Equal(t, int32(2), calls.Load())
}

func TestIdempotency_StoreDownIsUnavailable(t *testing.T) {
	f := setupIdempotency(t)
	f.redis.Close()

	rec := f.do(http.MethodPost, "abc")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Zero(t, f.calls.Load())
}
