package decoders

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

type internalPayload struct {
	Events []json.RawMessage `json:"events"`
}

// internalEvent is emitted by first-party services. It names its tenant
// directly.
type internalEvent struct {
	Type       string     `json:"type"`
	TenantID   string     `json:"tenant_id"`
	Platform   string     `json:"platform"`
	OccurredAt *time.Time `json:"occurred_at"`

	Count            *int64 `json:"count"`
	AmountCents      int64  `json:"amount_cents"`
	TokensUsed       int64  `json:"tokens_used"`
	ResponseTimeMs   int64  `json:"response_time_ms"`
	ContentGenerated int64  `json:"content_generated"`
}

func (e internalEvent) count() int64 {
	if e.Count == nil {
		return 1
	}
	return *e.Count
}

func DecodeInternal(payload []byte, receivedAt time.Time) ([]domain.Item, error) {
	var p internalPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, malformed(err)
	}

	items := make([]domain.Item, 0, len(p.Events))
	for i, raw := range p.Events {
		label := fmt.Sprintf("events[%d]", i)
		var e internalEvent
		if err := json.Unmarshal(raw, &e); err != nil {
			items = append(items, malformedItem(label, err))
			continue
		}
		items = append(items, internalItem(label, e, receivedAt))
	}
	return items, nil
}

// internalPlatforms are the platform names an internal event may carry.
var internalPlatforms = map[string]bool{
	string(domain.SourceFacebook):  true,
	string(domain.SourceInstagram): true,
	string(domain.SourceTwitter):   true,
	string(domain.SourceLinkedIn):  true,
}

func internalItem(label string, e internalEvent, receivedAt time.Time) domain.Item {
	if e.TenantID == "" {
		return malformedItem(label, errors.New("missing tenant_id"))
	}
	if e.Platform != "" && !internalPlatforms[e.Platform] {
		return malformedItem(label, fmt.Errorf("unknown platform %q", e.Platform))
	}

	var typ analytics.MetricType
	var c counters
	switch e.Type {
	case "content.published":
		typ, c = analytics.TypeContent, counters{analytics.CounterPostsPublished: e.count()}
	case "content.scheduled":
		typ, c = analytics.TypeContent, counters{analytics.CounterPostsScheduled: e.count()}
	case "content.failed":
		typ, c = analytics.TypeContent, counters{analytics.CounterPostsFailed: e.count()}
	case "agent.task.completed":
		typ, c = analytics.TypeAIAgent, counters{
			analytics.CounterTasksCompleted:   e.count(),
			analytics.CounterContentGenerated: e.ContentGenerated,
			analytics.CounterTokensUsed:       e.TokensUsed,
			analytics.CounterResponseTimeMs:   e.ResponseTimeMs,
		}
	case "agent.task.failed":
		typ, c = analytics.TypeAIAgent, counters{
			analytics.CounterTasksFailed:    e.count(),
			analytics.CounterTokensUsed:     e.TokensUsed,
			analytics.CounterResponseTimeMs: e.ResponseTimeMs,
		}
	case "business.revenue":
		typ, c = analytics.TypeBusiness, counters{analytics.CounterRevenueCents: e.AmountCents}
	case "business.cost":
		typ, c = analytics.TypeBusiness, counters{analytics.CounterCostCents: e.AmountCents}
	case "business.lead":
		typ, c = analytics.TypeBusiness, counters{analytics.CounterLeads: e.count()}
	case "business.conversion":
		typ, c = analytics.TypeBusiness, counters{analytics.CounterConversions: e.count()}
	default:
		return unsupportedItem(label, "internal event "+e.Type)
	}

	nz := c.nonZero()
	if len(nz) == 0 {
		return unsupportedItem(label, "no metrics in internal event "+e.Type)
	}

	var occurredAt time.Time
	if e.OccurredAt != nil {
		occurredAt = e.OccurredAt.UTC()
	}
	return domain.Item{
		Label: label,
		Delta: &analytics.MetricDelta{
			TenantID:   e.TenantID,
			Platform:   e.Platform,
			Type:       typ,
			OccurredAt: occurredAt,
			ReceivedAt: receivedAt.UTC(),
			Counters:   nz,
		},
	}
}
