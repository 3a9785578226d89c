package middleware

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Logger is the process-wide structured logger. Every record emitted
// through a request-scoped context carries the request's identity.
var Logger *slog.Logger

type logCtxKey string

const (
	requestIDCtxKey logCtxKey = "request_id"
	userIDCtxKey    logCtxKey = "user_id"
	traceIDCtxKey   logCtxKey = "trace_id"
)

// contextHandler decorates every record with whatever request identity
// the context holds.
type contextHandler struct {
	slog.Handler
}

func (h *contextHandler) Handle(ctx context.Context, r slog.Record) error {
	if v, ok := ctx.Value(requestIDCtxKey).(string); ok {
		r.AddAttrs(slog.String("request_id", v))
	}
	if v, ok := ctx.Value(userIDCtxKey).(uint); ok {
		r.AddAttrs(slog.Uint64("user_id", uint64(v)))
	}
	if v, ok := ctx.Value(traceIDCtxKey).(string); ok {
		r.AddAttrs(slog.String("trace_id", v))
	}
	return h.Handler.Handle(ctx, r)
}

func init() {
	// JSON in production, text everywhere else.
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	var inner slog.Handler
	if os.Getenv("APP_ENV") == "production" {
		inner = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		inner = slog.NewTextHandler(os.Stdout, opts)
	}
	Logger = slog.New(&contextHandler{inner})
}

// ContextMiddleware copies request identity from fiber locals into the
// request context so deep layers log with it attached.
func ContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if v, ok := c.Locals("requestid").(string); ok {
			ctx = context.WithValue(ctx, requestIDCtxKey, v)
		}
		if v, ok := c.Locals("userID").(uint); ok {
			ctx = context.WithValue(ctx, userIDCtxKey, v)
		}
		if v, ok := c.Locals("traceID").(string); ok {
			ctx = context.WithValue(ctx, traceIDCtxKey, v)
		}
		c.SetUserContext(ctx)
		return c.Next()
	}
}

// StructuredLogger emits one line per request after it completes.
func StructuredLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		attrs := []any{
			slog.Int("status", c.Response().StatusCode()),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}
		if err != nil {
			attrs = append(attrs, slog.String("error", err.Error()))
			Logger.ErrorContext(c.UserContext(), "request failed", attrs...)
			return err
		}
		Logger.InfoContext(c.UserContext(), "request completed", attrs...)
		return nil
	}
}
