package middleware

import (
	"bytes"
	"net/http"
	"strings"

	"github.com/flexprice/invoicer/internal/idempotency"
	"github.com/flexprice/invoicer/internal/logger"
	"github.com/flexprice/invoicer/internal/types"
	"github.com/gin-gonic/gin"
)

type bodyRecorder struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *bodyRecorder) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *bodyRecorder) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// IdempotencyMiddleware replays the stored response of a successful request
// carrying the same Idempotency-Key, caller and path. Requests without the
// header and failed responses are never stored.
func IdempotencyMiddleware(scope idempotency.Scope, store *idempotency.Store, logger *logger.Logger) gin.HandlerFunc {
	generator := idempotency.NewGenerator()

	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(types.HeaderIdempotencyKey))
		if key == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		storeKey := generator.GenerateKey(scope, map[string]interface{}{
			"caller": types.GetUserID(ctx),
			"path":   c.Request.URL.Path,
			"key":    key,
		})

		if resp, ok := store.Get(ctx, storeKey); ok {
			logger.Debugw("replaying idempotent response",
				"scope", scope,
				"path", c.Request.URL.Path,
				"stored_at", resp.StoredAt,
			)
			c.Header(types.HeaderIdempotentReplay, "true")
			c.Data(resp.StatusCode, resp.ContentType, resp.Body)
			c.Abort()
			return
		}

		recorder := &bodyRecorder{ResponseWriter: c.Writer}
		c.Writer = recorder
		c.Next()

		status := recorder.Status()
		if len(c.Errors) > 0 || status < http.StatusOK || status >= http.StatusMultipleChoices {
			return
		}

		store.Save(ctx, storeKey, &idempotency.Response{
			StatusCode:  status,
			ContentType: recorder.Header().Get("Content-Type"),
			Body:        bytes.Clone(recorder.body.Bytes()),
		})
	}
}
