package relay

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"relay/internal/constants"
	"relay/internal/logger"
	"relay/pkg/errors"
)

type Handler struct {
	service   *Service
	providers map[string]struct{}
	logger    logger.Logger
}

func NewHandler(service *Service, providers []string, log logger.Logger) *Handler {
	known := make(map[string]struct{}, len(providers))
	for _, p := range providers {
		known[p] = struct{}{}
	}
	return &Handler{
		service:   service,
		providers: known,
		logger:    log,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", h.Health)
	router.POST("/webhooks/:provider", h.Webhook)
}

func (h *Handler) Health(c *gin.Context) {
	c.String(http.StatusOK, constants.ResponseOK)
}

// Webhook acknowledges every well-formed body with 200 whatever the delivery
// outcome, so the support platform never retries a notification.
func (h *Handler) Webhook(c *gin.Context) {
	provider := c.Param("provider")
	if _, ok := h.providers[provider]; !ok {
		h.logger.WarnwCtx(c.Request.Context(), "Webhook for unknown provider", "provider", provider)
		c.String(http.StatusNotFound, http.StatusText(http.StatusNotFound))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, constants.MaxWebhookBodyBytes))
	if err != nil {
		h.logger.WarnwCtx(c.Request.Context(), "Failed to read webhook body", "provider", provider, "error", err)
		h.HandleError(c, errors.ErrInvalidPayload.WithCause(err))
		return
	}

	result, err := h.service.Handle(c.Request.Context(), provider, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if !result.Notified() {
		c.String(http.StatusOK, constants.ResponseOK)
		return
	}
	c.String(http.StatusOK, constants.ResponseSuccess)
}

// HandleError answers with the status and public message of err.
func (h *Handler) HandleError(c *gin.Context, err error) {
	status := errors.ToHTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorwCtx(c.Request.Context(), "Request error", "error", err, "path", c.Request.URL.Path)
	}
	c.String(status, errors.PublicMessage(err))
}
