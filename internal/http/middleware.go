package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

func requestObservabilityMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	meter := otel.Meter("locadora-api/http")
	requestCounter, requestCounterErr := meter.Int64Counter(
		"locadora.http.server.request.count",
		metric.WithDescription("Total de requests HTTP processadas pela API"),
	)
	if requestCounterErr != nil {
		logger.Error("create request counter", "error", requestCounterErr)
	}

	requestDuration, requestDurationErr := meter.Float64Histogram(
		"locadora.http.server.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Duracao de requests HTTP em milissegundos"),
	)
	if requestDurationErr != nil {
		logger.Error("create request duration histogram", "error", requestDurationErr)
	}
	rejectedCounter, rejectedCounterErr := meter.Int64Counter(
		"locadora.http.server.validation_rejected.count",
		metric.WithDescription("Total de formularios rejeitados pela validacao (4xx)"),
	)
	if rejectedCounterErr != nil {
		logger.Error("create validation rejected counter", "error", rejectedCounterErr)
	}
	internalErrorCounter, internalErrorCounterErr := meter.Int64Counter(
		"locadora.http.server.internal_error.count",
		metric.WithDescription("Total de erros internos HTTP (5xx)"),
	)
	if internalErrorCounterErr != nil {
		logger.Error("create internal error counter", "error", internalErrorCounterErr)
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		status := c.Writer.Status()
		durationMs := float64(time.Since(start)) / float64(time.Millisecond)
		requestID := c.Writer.Header().Get(headerRequestID)

		attrs := []attribute.KeyValue{
			attribute.String("http.request.method", c.Request.Method),
			attribute.String("http.route", route),
			attribute.Int("http.response.status_code", status),
		}
		if requestCounter != nil {
			requestCounter.Add(c.Request.Context(), 1, metric.WithAttributes(attrs...))
		}
		if requestDuration != nil {
			requestDuration.Record(c.Request.Context(), durationMs, metric.WithAttributes(attrs...))
		}
		if status == http.StatusBadRequest && rejectedCounter != nil {
			rejectedCounter.Add(c.Request.Context(), 1, metric.WithAttributes(attribute.String("http.route", route)))
		}

		logAttrs := []any{
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"duration_ms", durationMs,
			"request_id", requestID,
			"client_ip", c.ClientIP(),
		}
		if subject := c.GetString(contextKeySubject); subject != "" {
			logAttrs = append(logAttrs, "subject", subject)
		}
		spanContext := trace.SpanFromContext(c.Request.Context()).SpanContext()
		if spanContext.IsValid() {
			logAttrs = append(
				logAttrs,
				"trace_id", spanContext.TraceID().String(),
				"span_id", spanContext.SpanID().String(),
			)
		}
		if len(c.Errors) > 0 {
			lastErr := c.Errors.Last().Err
			logAttrs = append(
				logAttrs,
				"error", lastErr.Error(),
				"error_type", classifyErrorType(lastErr),
			)
		}
		if status >= http.StatusInternalServerError && internalErrorCounter != nil {
			internalAttrs := append([]attribute.KeyValue{}, attrs...)
			if len(c.Errors) > 0 {
				internalAttrs = append(internalAttrs, attribute.String("error.type", classifyErrorType(c.Errors.Last().Err)))
			} else {
				internalAttrs = append(internalAttrs, attribute.String("error.type", "unknown"))
			}
			internalErrorCounter.Add(c.Request.Context(), 1, metric.WithAttributes(internalAttrs...))
		}

		switch {
		case status >= http.StatusInternalServerError:
			logger.ErrorContext(c.Request.Context(), "http request", logAttrs...)
		case status >= http.StatusBadRequest:
			logger.WarnContext(c.Request.Context(), "http request", logAttrs...)
		default:
			logger.InfoContext(c.Request.Context(), "http request", logAttrs...)
		}
	}
}

func panicRecoveryMiddleware(logger *slog.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}

	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}

			err := fmt.Errorf("panic recovered: %v", recovered)
			_ = c.Error(err)

			span := trace.SpanFromContext(c.Request.Context())
			if span.SpanContext().IsValid() {
				span.RecordError(err)
				span.SetStatus(codes.Error, "panic recovered")
				span.SetAttributes(
					attribute.Bool("error", true),
					attribute.String("error.type", "panic"),
				)
			}

			logAttrs := []any{
				"panic", recovered,
				"stack_trace", string(debug.Stack()),
				"method", c.Request.Method,
				"path", c.Request.URL.Path,
				"request_id", requestid.Get(c),
				"client_ip", c.ClientIP(),
			}
			spanContext := span.SpanContext()
			if spanContext.IsValid() {
				logAttrs = append(
					logAttrs,
					"trace_id", spanContext.TraceID().String(),
					"span_id", spanContext.SpanID().String(),
				)
			}
			logger.ErrorContext(c.Request.Context(), "panic recovered", logAttrs...)

			writeProblemResponse(c, http.StatusInternalServerError, problemTypeInternal, "Internal Server Error", "internal server error")
		}()

		c.Next()
	}
}
