package decoders

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

// twitterTimeLayout is the created_at format of the Account Activity API.
const twitterTimeLayout = time.RubyDate

type tweetCreateEvent struct {
	CreatedAt     string `json:"created_at"`
	FavoriteCount int64  `json:"favorite_count"`
	RetweetCount  int64  `json:"retweet_count"`
	ReplyCount    int64  `json:"reply_count"`
}

type favoriteEvent struct {
	CreatedAt string `json:"created_at"`
}

func DecodeTwitter(payload []byte, receivedAt time.Time) ([]domain.Item, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return nil, malformed(err)
	}

	var accountRef string
	if raw, ok := top["for_user_id"]; ok {
		if err := json.Unmarshal(raw, &accountRef); err != nil {
			return nil, malformed(fmt.Errorf("for_user_id: %w", err))
		}
	}

	// map order is random; keep item order stable for logs and tests
	keys := make([]string, 0, len(top))
	for k := range top {
		if strings.HasSuffix(k, "_events") {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		return []domain.Item{unsupportedItem("payload", "twitter payload without events")}, nil
	}

	var items []domain.Item
	for _, key := range keys {
		events, err := decodeArray(top[key])
		if err != nil {
			items = append(items, malformedItem(key, err))
			continue
		}
		for i, raw := range events {
			label := fmt.Sprintf("%s[%d]", key, i)
			switch key {
			case "tweet_create_events":
				items = append(items, tweetCreate(label, accountRef, raw, receivedAt))
			case "favorite_events":
				items = append(items, favorite(label, accountRef, raw, receivedAt))
			default:
				items = append(items, unsupportedItem(label, "twitter "+key))
			}
		}
	}
	return items, nil
}

func tweetCreate(label, accountRef string, raw json.RawMessage, receivedAt time.Time) domain.Item {
	var ev tweetCreateEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return malformedItem(label, err)
	}
	return socialItem(label, string(domain.SourceTwitter), accountRef, twitterTime(ev.CreatedAt), receivedAt, counters{
		analytics.CounterPostsPublished: 1,
		analytics.CounterLikes:          ev.FavoriteCount,
		analytics.CounterRetweets:       ev.RetweetCount,
		analytics.CounterComments:       ev.ReplyCount,
	})
}

func favorite(label, accountRef string, raw json.RawMessage, receivedAt time.Time) domain.Item {
	var ev favoriteEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return malformedItem(label, err)
	}
	return socialItem(label, string(domain.SourceTwitter), accountRef, twitterTime(ev.CreatedAt), receivedAt, counters{
		analytics.CounterLikes: 1,
	})
}

// twitterTime returns the zero time when created_at is absent or not in
// the documented layout, so the receive time is used instead.
func twitterTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.Parse(twitterTimeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t.UTC()
}
