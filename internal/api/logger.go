package api

import (
	"context"
	"log/slog"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

type requestIDKey struct{}

type callerIDKey struct{}

// RequestLogHandler decorates records with the service name and, when the
// context carries them, the request id, the authenticated caller and the
// active span.
type RequestLogHandler struct {
	next    slog.Handler
	service string
}

func NewRequestLogHandler(next slog.Handler, service string) *RequestLogHandler {
	return &RequestLogHandler{next: next, service: service}
}

func (h *RequestLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *RequestLogHandler) Handle(ctx context.Context, r slog.Record) error {
	r.AddAttrs(slog.String("service", h.service))

	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		r.AddAttrs(slog.String("request_id", id))
	}
	if id, ok := ctx.Value(callerIDKey{}).(uuid.UUID); ok {
		r.AddAttrs(slog.String("user_id", id.String()))
	}
	if spanCtx := trace.SpanContextFromContext(ctx); spanCtx.IsValid() {
		r.AddAttrs(
			slog.String("trace_id", spanCtx.TraceID().String()),
			slog.String("span_id", spanCtx.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, r)
}

func (h *RequestLogHandler) WithGroup(name string) slog.Handler {
	return NewRequestLogHandler(h.next.WithGroup(name), h.service)
}

func (h *RequestLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return NewRequestLogHandler(h.next.WithAttrs(attrs), h.service)
}

// RequestContextMiddleware copies the id assigned by requestid.New into the
// user context so log records written while serving the request carry it.
// It must run after requestid.New.
func RequestContextMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if id := c.GetRespHeader(fiber.HeaderXRequestID); id != "" {
			c.SetUserContext(context.WithValue(c.UserContext(), requestIDKey{}, id))
		}
		return c.Next()
	}
}

func withCallerID(ctx context.Context, id uuid.UUID) context.Context {
	return context.WithValue(ctx, callerIDKey{}, id)
}

func SetupGlobalHandler(serviceName string) {
	jsonHandler := slog.NewJSONHandler(os.Stdout, nil)
	slog.SetDefault(slog.New(NewRequestLogHandler(jsonHandler, serviceName)))

	slog.Info("Logger initialized")
}
