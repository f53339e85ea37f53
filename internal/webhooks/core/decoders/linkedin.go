package decoders

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

type linkedInPayload struct {
	Notifications []json.RawMessage `json:"notifications"`
}

type linkedInNotification struct {
	Type           string `json:"type"`
	OrganizationID string `json:"organization_id"`
	OccurredAt     int64  `json:"occurred_at"` // epoch millis
	Action         string `json:"action"`
	Post           struct {
		Stats struct {
			Likes       int64 `json:"likes"`
			Comments    int64 `json:"comments"`
			Shares      int64 `json:"shares"`
			Impressions int64 `json:"impressions"`
		} `json:"stats"`
	} `json:"post"`
}

func DecodeLinkedIn(payload []byte, receivedAt time.Time) ([]domain.Item, error) {
	var p linkedInPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, malformed(err)
	}

	items := make([]domain.Item, 0, len(p.Notifications))
	for i, raw := range p.Notifications {
		label := fmt.Sprintf("notifications[%d]", i)
		var n linkedInNotification
		if err := json.Unmarshal(raw, &n); err != nil {
			items = append(items, malformedItem(label, err))
			continue
		}
		occurredAt := unixMillis(n.OccurredAt)

		switch n.Type {
		case "post.created":
			s := n.Post.Stats
			items = append(items, socialItem(label, string(domain.SourceLinkedIn), n.OrganizationID, occurredAt, receivedAt, counters{
				analytics.CounterPostsPublished: 1,
				analytics.CounterLikes:          s.Likes,
				analytics.CounterComments:       s.Comments,
				analytics.CounterShares:         s.Shares,
				analytics.CounterImpressions:    s.Impressions,
			}))
		case "social.action":
			c, ok := linkedInAction(n.Action)
			if !ok {
				items = append(items, unsupportedItem(label, "linkedin action "+n.Action))
				continue
			}
			items = append(items, socialItem(label, string(domain.SourceLinkedIn), n.OrganizationID, occurredAt, receivedAt, counters{c: 1}))
		default:
			items = append(items, unsupportedItem(label, "linkedin notification "+n.Type))
		}
	}
	return items, nil
}

func linkedInAction(action string) (analytics.Counter, bool) {
	switch strings.ToUpper(action) {
	case "LIKE":
		return analytics.CounterLikes, true
	case "COMMENT":
		return analytics.CounterComments, true
	case "SHARE":
		return analytics.CounterShares, true
	}
	return "", false
}
