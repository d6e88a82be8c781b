package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/labstack/echo/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRateLimitedServer(limiter *RateLimiter) *echo.Echo {
	e := echo.New()
	e.Use(limiter.TicketRateLimit())
	e.GET("/", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	return e
}

func doRateLimited(e *echo.Echo) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestTicketRateLimit(t *testing.T) {
	client, mock := redismock.NewClientMock()
	e := newRateLimitedServer(NewRateLimiter(client, 2))

	key := "ratelimit:tickets:192.0.2.1"
	mock.ExpectIncr(key).SetVal(1)
	mock.ExpectExpire(key, time.Minute).SetVal(true)
	assert.Equal(t, http.StatusOK, doRateLimited(e).Code)

	mock.ExpectIncr(key).SetVal(2)
	assert.Equal(t, http.StatusOK, doRateLimited(e).Code)

	mock.ExpectIncr(key).SetVal(3)
	rec := doRateLimited(e)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Rate limit exceeded")

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestTicketRateLimit_Disabled(t *testing.T) {
	e := newRateLimitedServer(NewRateLimiter(nil, 0))
	assert.Equal(t, http.StatusOK, doRateLimited(e).Code)
}

func TestTicketRateLimit_RedisFailureFallsOpen(t *testing.T) {
	client, mock := redismock.NewClientMock()
	e := newRateLimitedServer(NewRateLimiter(client, 2))

	mock.ExpectIncr("ratelimit:tickets:192.0.2.1").SetErr(assert.AnError)
	assert.Equal(t, http.StatusOK, doRateLimited(e).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}
