package decoders

import (
	"encoding/json"
	"fmt"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

// graphPayload is the envelope shared by Facebook and Instagram.
type graphPayload struct {
	Object string            `json:"object"`
	Entry  []json.RawMessage `json:"entry"`
}

type graphEntry struct {
	ID      string            `json:"id"`
	Time    int64             `json:"time"`
	Changes []json.RawMessage `json:"changes"`
}

type graphChange struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

type facebookFeedValue struct {
	Item         string `json:"item"`
	Verb         string `json:"verb"`
	LikeCount    int64  `json:"like_count"`
	CommentCount int64  `json:"comment_count"`
	ShareCount   int64  `json:"share_count"`
}

type instagramMediaValue struct {
	LikeCount     int64 `json:"like_count"`
	CommentsCount int64 `json:"comments_count"`
	Saved         int64 `json:"saved"`
	Impressions   int64 `json:"impressions"`
	Reach         int64 `json:"reach"`
}

type changeDecoder func(accountRef string, occurredAt, receivedAt time.Time, label string, ch graphChange) domain.Item

func DecodeFacebook(payload []byte, receivedAt time.Time) ([]domain.Item, error) {
	return decodeGraph(payload, receivedAt, "page", facebookChange)
}

func DecodeInstagram(payload []byte, receivedAt time.Time) ([]domain.Item, error) {
	return decodeGraph(payload, receivedAt, "instagram", instagramChange)
}

func decodeGraph(payload []byte, receivedAt time.Time, object string, decode changeDecoder) ([]domain.Item, error) {
	var p graphPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, malformed(err)
	}
	if p.Object != object {
		return []domain.Item{unsupportedItem("object", fmt.Sprintf("object %q", p.Object))}, nil
	}

	var items []domain.Item
	for i, raw := range p.Entry {
		label := fmt.Sprintf("entry[%d]", i)
		var e graphEntry
		if err := json.Unmarshal(raw, &e); err != nil {
			items = append(items, malformedItem(label, err))
			continue
		}
		occurredAt := unixSeconds(e.Time)
		for j, rawChange := range e.Changes {
			chLabel := fmt.Sprintf("%s.changes[%d]", label, j)
			var ch graphChange
			if err := json.Unmarshal(rawChange, &ch); err != nil {
				items = append(items, malformedItem(chLabel, err))
				continue
			}
			items = append(items, decode(e.ID, occurredAt, receivedAt, chLabel, ch))
		}
	}
	return items, nil
}

func facebookChange(accountRef string, occurredAt, receivedAt time.Time, label string, ch graphChange) domain.Item {
	if ch.Field != "feed" {
		return unsupportedItem(label, "facebook field "+ch.Field)
	}
	var v facebookFeedValue
	if err := json.Unmarshal(ch.Value, &v); err != nil {
		return malformedItem(label, err)
	}
	c := counters{
		analytics.CounterLikes:    v.LikeCount,
		analytics.CounterComments: v.CommentCount,
		analytics.CounterShares:   v.ShareCount,
	}
	if v.Verb == "add" && isFacebookPost(v.Item) {
		c[analytics.CounterPostsPublished] = 1
	}
	return socialItem(label, string(domain.SourceFacebook), accountRef, occurredAt, receivedAt, c)
}

func isFacebookPost(item string) bool {
	switch item {
	case "post", "status", "photo", "video":
		return true
	}
	return false
}

func instagramChange(accountRef string, occurredAt, receivedAt time.Time, label string, ch graphChange) domain.Item {
	switch ch.Field {
	case "media":
		var v instagramMediaValue
		if err := json.Unmarshal(ch.Value, &v); err != nil {
			return malformedItem(label, err)
		}
		return socialItem(label, string(domain.SourceInstagram), accountRef, occurredAt, receivedAt, counters{
			analytics.CounterPostsPublished: 1,
			analytics.CounterLikes:          v.LikeCount,
			analytics.CounterComments:       v.CommentsCount,
			analytics.CounterSaves:          v.Saved,
			analytics.CounterImpressions:    v.Impressions,
			analytics.CounterTotalReach:     v.Reach,
		})
	case "comments":
		return socialItem(label, string(domain.SourceInstagram), accountRef, occurredAt, receivedAt, counters{
			analytics.CounterComments: 1,
		})
	default:
		return unsupportedItem(label, "instagram field "+ch.Field)
	}
}
