package fiber_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	httpadapter "webhook-analytics-service/internal/webhooks/adapters/http/fiber"
	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/signature"
	"webhook-analytics-service/internal/webhooks/core/usecase"
)

type fakeIngestUseCase struct {
	ExecuteFn func(ctx context.Context, ev domain.InboundEvent) error
	lastEvent domain.InboundEvent
	called    bool
}

func (f *fakeIngestUseCase) Execute(ctx context.Context, ev domain.InboundEvent) error {
	f.called = true
	f.lastEvent = ev
	if f.ExecuteFn != nil {
		return f.ExecuteFn(ctx, ev)
	}
	return nil
}

func (f *fakeIngestUseCase) Stats() map[string]usecase.SourceStats {
	return map[string]usecase.SourceStats{"facebook": {Received: 3, Handled: 2, Rejected: 1}}
}

type fakeSecrets map[domain.Source]string

func (f fakeSecrets) Secret(source domain.Source) string {
	return f[source]
}

func setupApp(t *testing.T, uc httpadapter.IngestUseCase, secrets fakeSecrets) *fiber.App {
	t.Helper()
	app := fiber.New()
	httpadapter.NewWebhookHandler(uc, secrets, "hub-token").Register(app)
	return app
}

func post(t *testing.T, app *fiber.App, path, body string, headers map[string]string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	var out map[string]any
	raw, _ := io.ReadAll(resp.Body)
	_ = json.Unmarshal(raw, &out)
	return resp.StatusCode, out
}

// ------------------------------------------------------------
// POST /webhooks/...
// ------------------------------------------------------------

func TestReceiveWebhook_Success(t *testing.T) {
	uc := &fakeIngestUseCase{}
	app := setupApp(t, uc, nil)

	status, body := post(t, app, "/webhooks/facebook", `{"object":"page"}`, map[string]string{
		"X-Hub-Signature-256": "sha256=abc",
	})

	if status != http.StatusOK {
		t.Fatalf("expected status 200, got %d", status)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true, got %v", body)
	}
	if uc.lastEvent.Source != domain.SourceFacebook {
		t.Fatalf("expected facebook source, got %q", uc.lastEvent.Source)
	}
	if uc.lastEvent.SignatureHeader != "sha256=abc" {
		t.Fatalf("expected hub signature header, got %q", uc.lastEvent.SignatureHeader)
	}
	if string(uc.lastEvent.RawPayload) != `{"object":"page"}` {
		t.Fatalf("expected raw body, got %q", uc.lastEvent.RawPayload)
	}
}

func TestReceiveWebhook_SignatureHeaderPerSource(t *testing.T) {
	tests := []struct {
		path   string
		source domain.Source
		header string
	}{
		{"/webhooks/stripe", domain.SourceStripe, "Stripe-Signature"},
		{"/webhooks/twitter", domain.SourceTwitter, "X-Twitter-Webhooks-Signature"},
		{"/webhooks/linkedin", domain.SourceLinkedIn, "X-LI-Signature"},
		{"/webhooks/internal", domain.SourceInternal, "X-Webhook-Signature"},
		{"/webhooks/Shopify", "shopify", "X-Webhook-Signature"},
	}

	for _, tt := range tests {
		t.Run(string(tt.source), func(t *testing.T) {
			uc := &fakeIngestUseCase{}
			app := setupApp(t, uc, nil)

			status, _ := post(t, app, tt.path, `{}`, map[string]string{tt.header: "sig"})

			if status != http.StatusOK {
				t.Fatalf("expected status 200, got %d", status)
			}
			if uc.lastEvent.Source != tt.source {
				t.Fatalf("expected source %q, got %q", tt.source, uc.lastEvent.Source)
			}
			if uc.lastEvent.SignatureHeader != "sig" {
				t.Fatalf("expected signature from %s, got %q", tt.header, uc.lastEvent.SignatureHeader)
			}
		})
	}
}

func TestReceiveWebhook_ErrorMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
	}{
		{"bad signature", domain.ErrAuthentication, http.StatusUnauthorized, "invalid_signature"},
		{"malformed", domain.ErrMalformedPayload, http.StatusBadRequest, "invalid_json"},
		{"storage", analytics.ErrStorage, http.StatusInternalServerError, "internal_server_error"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal_server_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			uc := &fakeIngestUseCase{ExecuteFn: func(ctx context.Context, ev domain.InboundEvent) error {
				return tt.err
			}}
			app := setupApp(t, uc, nil)

			status, body := post(t, app, "/webhooks/linkedin", `{}`, nil)

			if status != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, status)
			}
			if body["error"] != tt.wantError {
				t.Fatalf("expected error %q, got %v", tt.wantError, body["error"])
			}
			if _, ok := body["message"]; ok {
				t.Fatalf("error details must not leak, got %v", body)
			}
		})
	}
}

// ------------------------------------------------------------
// Handshakes
// ------------------------------------------------------------

func TestVerifySubscription(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantStatus int
	}{
		{"valid", "hub.mode=subscribe&hub.verify_token=hub-token&hub.challenge=12345", http.StatusOK},
		{"wrong token", "hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden},
		{"wrong mode", "hub.mode=unsubscribe&hub.verify_token=hub-token&hub.challenge=12345", http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupApp(t, &fakeIngestUseCase{}, nil)

			req := httptest.NewRequest(http.MethodGet, "/webhooks/instagram?"+tt.query, nil)
			resp, err := app.Test(req, -1)
			if err != nil {
				t.Fatalf("app.Test error: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("expected status %d, got %d", tt.wantStatus, resp.StatusCode)
			}
			if tt.wantStatus == http.StatusOK {
				raw, _ := io.ReadAll(resp.Body)
				if string(raw) != "12345" {
					t.Fatalf("expected challenge echo, got %q", raw)
				}
			}
		})
	}
}

func TestTwitterCRC(t *testing.T) {
	app := setupApp(t, &fakeIngestUseCase{}, fakeSecrets{domain.SourceTwitter: "tw-secret"})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/twitter?crc_token=abc", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}
	var out httpadapter.CRCResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out.ResponseToken != signature.CRCResponse("abc", "tw-secret") {
		t.Fatalf("unexpected response token %q", out.ResponseToken)
	}
}

func TestTwitterCRC_NoSecret(t *testing.T) {
	app := setupApp(t, &fakeIngestUseCase{}, fakeSecrets{})

	req := httptest.NewRequest(http.MethodGet, "/webhooks/twitter?crc_token=abc", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected status 403, got %d", resp.StatusCode)
	}
}

// ------------------------------------------------------------
// GET /webhooks/stats
// ------------------------------------------------------------

func TestGetStats(t *testing.T) {
	app := setupApp(t, &fakeIngestUseCase{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/stats", nil)
	resp, err := app.Test(req, -1)
	if err != nil {
		t.Fatalf("app.Test error: %v", err)
	}
	defer resp.Body.Close()

	var out httpadapter.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if out["facebook"].Received != 3 || out["facebook"].Rejected != 1 {
		t.Fatalf("unexpected stats: %+v", out)
	}
}
