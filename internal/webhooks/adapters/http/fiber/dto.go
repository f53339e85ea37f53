package fiber

import "webhook-analytics-service/internal/webhooks/core/usecase"

type WebhookResponse struct {
	Success bool `json:"success"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type CRCResponse struct {
	ResponseToken string `json:"response_token"`
}

// StatsResponse maps a source name to its processed event counters.
type StatsResponse map[string]usecase.SourceStats
