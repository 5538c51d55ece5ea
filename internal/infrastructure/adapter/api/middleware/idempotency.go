package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	errs "github.com/amirhossein-jamali/wallet-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/wallet-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/wallet-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// IdempotencyKeyHeader names the client-chosen key of an unsafe request
	IdempotencyKeyHeader = "Idempotency-Key"
	// ReplayedHeader is set on responses served from the idempotency store
	ReplayedHeader = "Idempotent-Replayed"

	inProgressMarker = "__in_progress__"
	redisTimeout     = 2 * time.Second
)

type storedResponse struct {
	Status  int               `json:"status"`
	Body    string            `json:"body"`
	Headers map[string]string `json:"headers"`
}

type bodyCapture struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyCapture) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyCapture) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Idempotency replays the stored response of a POST or PATCH that carries an
// Idempotency-Key already seen within ttl. A key is reserved with SETNX for
// inFlightTTL before the handler runs; a duplicate arriving while the first is
// still in flight gets 409. Requests without the header pass through. Server
// errors and panics release the key, so the client may retry with the same key.
func Idempotency(client *redis.Client, prefix string, ttl, inFlightTTL time.Duration, logger coreport.Logger) gin.HandlerFunc {
	if inFlightTTL <= 0 || inFlightTTL > ttl {
		inFlightTTL = ttl
	}

	return func(c *gin.Context) {
		method := c.Request.Method
		if method != http.MethodPost && method != http.MethodPatch {
			c.Next()
			return
		}

		key := strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader))
		if key == "" {
			c.Next()
			return
		}

		cacheKey := prefix + ":idempotency:" + method + ":" + c.Request.URL.Path + ":" + key
		fields := map[string]any{"key": key, "path": c.Request.URL.Path}

		ctx, cancel := context.WithTimeout(c.Request.Context(), redisTimeout)
		reserved, err := client.SetNX(ctx, cacheKey, inProgressMarker, inFlightTTL).Result()
		if err == nil && !reserved {
			var cached string
			cached, err = client.Get(ctx, cacheKey).Result()
			if errors.Is(err, redis.Nil) {
				// expired between SETNX and GET; treat as in flight
				cached, err = inProgressMarker, nil
			}
			if err == nil {
				cancel()
				replay(c, cached, logger, fields)
				return
			}
		}
		cancel()
		if err != nil {
			fields["error"] = err.Error()
			logger.Error("Idempotency store unavailable", fields)
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, dto.ErrorResponse{
				Code:    errs.CodeStorageUnavailable,
				Message: "Service temporarily unavailable",
			})
			return
		}

		capture := &bodyCapture{ResponseWriter: c.Writer}
		c.Writer = capture

		finished := false
		defer func() {
			// the handler panicked; the recovery middleware answers 500
			if !finished {
				release(c.Request.Context(), client, cacheKey, logger, fields)
			}
		}()
		c.Next()
		finished = true

		status := capture.Status()
		if status >= http.StatusInternalServerError {
			release(c.Request.Context(), client, cacheKey, logger, fields)
			return
		}

		stored := storedResponse{
			Status:  status,
			Body:    capture.body.String(),
			Headers: make(map[string]string),
		}
		for name, values := range capture.Header() {
			if len(values) > 0 && !strings.EqualFold(name, "Content-Length") && !strings.EqualFold(name, RequestIDHeader) {
				stored.Headers[name] = values[0]
			}
		}

		persistCtx, persistCancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), redisTimeout)
		defer persistCancel()

		payload, err := json.Marshal(stored)
		if err == nil {
			err = client.Set(persistCtx, cacheKey, payload, ttl).Err()
		}
		if err != nil {
			fields["error"] = err.Error()
			logger.Warn("Failed to persist idempotent response", fields)
			release(c.Request.Context(), client, cacheKey, logger, fields)
		}
	}
}

// release drops a reservation even when the request context is already done
func release(ctx context.Context, client *redis.Client, cacheKey string, logger coreport.Logger, fields map[string]any) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), redisTimeout)
	defer cancel()

	if err := client.Del(ctx, cacheKey).Err(); err != nil {
		fields["error"] = err.Error()
		logger.Warn("Failed to release idempotency key", fields)
	}
}

func replay(c *gin.Context, cached string, logger coreport.Logger, fields map[string]any) {
	if cached == inProgressMarker {
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{
			Code:    errs.CodeConflict,
			Message: "Duplicate request is still being processed",
		})
		return
	}

	var stored storedResponse
	if err := json.Unmarshal([]byte(cached), &stored); err != nil {
		fields["error"] = err.Error()
		logger.Warn("Failed to decode stored idempotent response", fields)
		c.AbortWithStatusJSON(http.StatusConflict, dto.ErrorResponse{
			Code:    errs.CodeConflict,
			Message: "Duplicate request",
		})
		return
	}

	for name, value := range stored.Headers {
		c.Header(name, value)
	}
	c.Header(ReplayedHeader, "true")
	c.Status(stored.Status)
	_, _ = c.Writer.WriteString(stored.Body)
	c.Abort()
}
