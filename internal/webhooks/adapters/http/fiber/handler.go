package fiber

import (
	"context"
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/signature"
	"webhook-analytics-service/internal/webhooks/core/usecase"
)

type IngestUseCase interface {
	Execute(ctx context.Context, ev domain.InboundEvent) error
	Stats() map[string]usecase.SourceStats
}

// SecretSource exposes the per-source secrets needed by handshakes.
type SecretSource interface {
	Secret(source domain.Source) string
}

type WebhookHandler struct {
	uc          IngestUseCase
	secrets     SecretSource
	verifyToken string
}

func NewWebhookHandler(uc IngestUseCase, secrets SecretSource, hubVerifyToken string) *WebhookHandler {
	return &WebhookHandler{uc: uc, secrets: secrets, verifyToken: hubVerifyToken}
}

// Register mounts the webhook routes on r.
func (h *WebhookHandler) Register(r fiber.Router) {
	r.Get("/webhooks/stats", h.GetStats)
	r.Get("/webhooks/facebook", h.VerifySubscription)
	r.Get("/webhooks/instagram", h.VerifySubscription)
	r.Get("/webhooks/twitter", h.TwitterCRC)
	for _, src := range domain.KnownSources {
		r.Post("/webhooks/"+string(src), h.Receive(src))
	}
	r.Post("/webhooks/:platform", h.ReceiveWebhook)
}

// ReceiveWebhook godoc
// @Summary Receive a webhook
// @Description Verifies the signature of a platform webhook and folds its events into the tenant metrics
// @Tags Webhooks
// @Accept json
// @Produce json
// @Param platform path string true "facebook | instagram | twitter | linkedin | stripe | internal | any other source"
// @Param X-Hub-Signature-256 header string false "Facebook and Instagram signature"
// @Param Stripe-Signature header string false "Stripe signature"
// @Param X-Twitter-Webhooks-Signature header string false "Twitter signature"
// @Param X-LI-Signature header string false "LinkedIn signature"
// @Param X-Webhook-Signature header string false "Signature for internal and other sources"
// @Success 200 {object} WebhookResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /webhooks/{platform} [post]
func (h *WebhookHandler) ReceiveWebhook(c *fiber.Ctx) error {
	return h.receive(c, domain.ParseSource(c.Params("platform")))
}

// Receive returns a handler bound to a fixed source.
func (h *WebhookHandler) Receive(source domain.Source) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.receive(c, source)
	}
}

func (h *WebhookHandler) receive(c *fiber.Ctx, source domain.Source) error {
	ev := domain.InboundEvent{
		Source:          source,
		RawPayload:      append([]byte(nil), c.Body()...),
		SignatureHeader: c.Get(signature.HeaderName(source)),
	}

	if err := h.uc.Execute(c.UserContext(), ev); err != nil {
		switch {
		case errors.Is(err, domain.ErrAuthentication):
			return c.Status(http.StatusUnauthorized).JSON(ErrorResponse{
				Error: "invalid_signature",
			})
		case errors.Is(err, domain.ErrMalformedPayload):
			return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
				Error: "invalid_json",
			})
		default:
			return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
				Error: "internal_server_error",
			})
		}
	}

	return c.Status(http.StatusOK).JSON(WebhookResponse{Success: true})
}

// VerifySubscription godoc
// @Summary Facebook and Instagram subscription handshake
// @Description Echoes hub.challenge when hub.verify_token matches the configured token
// @Tags Webhooks
// @Produce plain
// @Param hub.mode query string true "Must be subscribe"
// @Param hub.verify_token query string true "Verify token"
// @Param hub.challenge query string true "Challenge to echo"
// @Success 200 {string} string
// @Failure 403 {object} ErrorResponse
// @Router /webhooks/facebook [get]
func (h *WebhookHandler) VerifySubscription(c *fiber.Ctx) error {
	mode := c.Query("hub.mode", "")
	token := c.Query("hub.verify_token", "")
	challenge := c.Query("hub.challenge", "")

	if h.verifyToken == "" || mode != "subscribe" || token != h.verifyToken {
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Error: "verification_failed",
		})
	}
	return c.Status(http.StatusOK).SendString(challenge)
}

// TwitterCRC godoc
// @Summary Twitter challenge-response check
// @Description Signs crc_token with the Twitter consumer secret
// @Tags Webhooks
// @Produce json
// @Param crc_token query string true "CRC token"
// @Success 200 {object} CRCResponse
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Router /webhooks/twitter [get]
func (h *WebhookHandler) TwitterCRC(c *fiber.Ctx) error {
	token := c.Query("crc_token", "")
	if token == "" {
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "crc_token is required",
		})
	}

	secret := h.secrets.Secret(domain.SourceTwitter)
	if secret == "" {
		return c.Status(http.StatusForbidden).JSON(ErrorResponse{
			Error: "verification_failed",
		})
	}
	return c.Status(http.StatusOK).JSON(CRCResponse{
		ResponseToken: signature.CRCResponse(token, secret),
	})
}

// GetStats godoc
// @Summary Webhook processing counters
// @Description Received, handled, ignored, rejected and failed counts per source since start
// @Tags Webhooks
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /webhooks/stats [get]
func (h *WebhookHandler) GetStats(c *fiber.Ctx) error {
	return c.Status(http.StatusOK).JSON(StatsResponse(h.uc.Stats()))
}
