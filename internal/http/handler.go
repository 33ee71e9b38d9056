package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"locadora-api/internal/service"
)

type Handler struct {
	service *service.Service
}

type ProblemDetails struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Status    int               `json:"status"`
	Detail    string            `json:"detail,omitempty"`
	Instance  string            `json:"instance,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}

const (
	problemContentType      = "application/problem+json"
	problemTypeValidation   = "https://locadora.dev/problems/validation-error"
	problemTypeUnauthorized = "https://locadora.dev/problems/unauthorized"
	problemTypeInternal     = "https://locadora.dev/problems/internal-error"
	problemTypeInvalidParam = "https://locadora.dev/problems/invalid-parameter"
	problemTypeTooLarge     = "https://locadora.dev/problems/payload-too-large"
)

const (
	headerRequestID   = "X-Request-ID"
	contextKeySubject = "auth.subject"
	maxPayloadBytes   = 1 << 20
)

func NewRouter(service *service.Service, serviceName string) *gin.Engine {
	if strings.TrimSpace(serviceName) == "" {
		serviceName = "locadora-api"
	}

	registerBindingValidators()

	router := gin.New()
	h := &Handler{service: service}
	requestObsMiddleware := requestObservabilityMiddleware(slog.Default())
	router.Use(
		requestid.New(),
		panicRecoveryMiddleware(slog.Default()),
		otelgin.Middleware(serviceName),
		requestObsMiddleware,
	)

	api := router.Group("/api")
	v1 := api.Group("/v1")

	v1.GET("/health", h.health)

	protected := v1.Group("")
	protected.Use(h.requireAuth())
	protected.POST("/documents/validate", h.validateDocument)
	protected.POST("/documents/mask", h.maskValue)
	protected.POST("/clients/validate", h.validateClient)
	protected.POST("/cars/validate", h.validateCar)
	protected.POST("/rentals/quote", h.quoteRental)
	protected.POST("/rentals/prepare", h.prepareRental)
	protected.POST("/rentals/return", h.returnRental)
	protected.POST("/rentals/report", h.rentalReport)
	protected.POST("/payloads/:kind/normalize", h.normalizePayload)

	return router
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) requireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		rawAuthorization := strings.TrimSpace(c.GetHeader("Authorization"))
		if rawAuthorization == "" {
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "missing bearer token")
			return
		}

		prefix := "Bearer "
		if !strings.HasPrefix(rawAuthorization, prefix) {
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "invalid authorization header")
			return
		}

		token := strings.TrimSpace(strings.TrimPrefix(rawAuthorization, prefix))
		subject, err := h.service.ValidateAccessToken(token)
		if err != nil {
			if !errors.Is(err, service.ErrUnauthorized) {
				h.writeError(c, err)
				return
			}
			h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", "invalid token")
			return
		}

		c.Set(contextKeySubject, subject)
		c.Next()
	}
}

func (h *Handler) validateDocument(c *gin.Context) {
	var input service.DocumentInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.ValidateDocument(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) maskValue(c *gin.Context) {
	var input service.MaskInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.MaskValue(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) validateClient(c *gin.Context) {
	var input service.ClientInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.ValidateClient(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) validateCar(c *gin.Context) {
	var input service.CarInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.ValidateCar(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) quoteRental(c *gin.Context) {
	var input service.QuoteInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.QuoteRental(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) prepareRental(c *gin.Context) {
	var input service.RentalInput
	if !h.bindJSON(c, &input) {
		return
	}

	submission, err := h.service.PrepareRental(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, submission)
}

func (h *Handler) returnRental(c *gin.Context) {
	var input service.ReturnInput
	if !h.bindJSON(c, &input) {
		return
	}

	output, err := h.service.ReturnRental(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) normalizePayload(c *gin.Context) {
	kind := strings.TrimSpace(c.Param("kind"))
	if kind == "" {
		h.writeProblem(c, http.StatusBadRequest, problemTypeInvalidParam, "Invalid Parameter", `invalid parameter "kind"`)
		return
	}

	raw, ok := h.readBody(c)
	if !ok {
		return
	}

	record, err := h.service.NormalizePayload(c.Request.Context(), kind, raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, record)
}

func (h *Handler) rentalReport(c *gin.Context) {
	raw, ok := h.readBody(c)
	if !ok {
		return
	}

	output, err := h.service.RentalReport(c.Request.Context(), raw)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, output)
}

func (h *Handler) readBody(c *gin.Context) ([]byte, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.writeProblem(c, http.StatusRequestEntityTooLarge, problemTypeTooLarge, "Payload Too Large", fmt.Sprintf("request body exceeds %d bytes", maxPayloadBytes))
			return nil, false
		}
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return nil, false
	}
	return raw, true
}

func (h *Handler) bindJSON(c *gin.Context, input any) bool {
	if err := c.ShouldBindJSON(input); err != nil {
		if fields, ok := bindingFieldErrors(err); ok {
			writeProblemDetails(c, ProblemDetails{
				Type:   problemTypeValidation,
				Title:  "Validation Error",
				Status: http.StatusBadRequest,
				Detail: "invalid request body",
				Errors: fields,
			})
			return false
		}
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", fmt.Sprintf("invalid request body: %s", err.Error()))
		return false
	}
	return true
}

func (h *Handler) writeError(c *gin.Context, err error) {
	var fields service.FieldErrors
	switch {
	case errors.As(err, &fields):
		writeProblemDetails(c, ProblemDetails{
			Type:   problemTypeValidation,
			Title:  "Validation Error",
			Status: http.StatusBadRequest,
			Detail: err.Error(),
			Errors: fields,
		})
	case errors.Is(err, service.ErrValidation):
		h.writeProblem(c, http.StatusBadRequest, problemTypeValidation, "Validation Error", err.Error())
	case errors.Is(err, service.ErrUnauthorized):
		h.writeProblem(c, http.StatusUnauthorized, problemTypeUnauthorized, "Unauthorized", err.Error())
	default:
		_ = c.Error(err)
		span := trace.SpanFromContext(c.Request.Context())
		spanContext := span.SpanContext()
		if spanContext.IsValid() {
			span.RecordError(err)
			span.SetStatus(codes.Error, "internal server error")
			span.SetAttributes(
				attribute.Bool("error", true),
				attribute.String("error.type", classifyErrorType(err)),
			)
		}
		logAttrs := []any{
			"error", err.Error(),
			"error_type", classifyErrorType(err),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"request_id", requestid.Get(c),
		}
		if spanContext.IsValid() {
			logAttrs = append(
				logAttrs,
				"trace_id", spanContext.TraceID().String(),
				"span_id", spanContext.SpanID().String(),
			)
		}
		slog.ErrorContext(c.Request.Context(), "internal server error", logAttrs...)
		h.writeProblem(c, http.StatusInternalServerError, problemTypeInternal, "Internal Server Error", "internal server error")
	}
}

func (h *Handler) writeProblem(c *gin.Context, status int, problemType string, title string, detail string) {
	writeProblemResponse(c, status, problemType, title, detail)
}

func writeProblemResponse(c *gin.Context, status int, problemType string, title string, detail string) {
	writeProblemDetails(c, ProblemDetails{
		Type:   problemType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

func writeProblemDetails(c *gin.Context, problem ProblemDetails) {
	if problem.Type == "" {
		problem.Type = "about:blank"
	}
	if problem.Title == "" {
		problem.Title = http.StatusText(problem.Status)
	}

	requestID := requestid.Get(c)
	if requestID != "" {
		c.Header(headerRequestID, requestID)
	}
	problem.Instance = c.Request.URL.Path
	problem.RequestID = requestID

	c.Header("Content-Type", problemContentType)
	c.AbortWithStatusJSON(problem.Status, problem)
}

func classifyErrorType(err error) string {
	if err == nil {
		return "unknown"
	}
	root := err
	for {
		unwrapped := errors.Unwrap(root)
		if unwrapped == nil {
			break
		}
		root = unwrapped
	}
	return fmt.Sprintf("%T", root)
}
