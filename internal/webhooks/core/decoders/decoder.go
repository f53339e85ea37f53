// Package decoders turns raw platform payloads into metric deltas and
// tenant mutations. Decoders are pure: no I/O, no clock.
package decoders

import (
	"encoding/json"
	"fmt"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

// Decoder decodes one payload. The error is ErrMalformedPayload when the
// payload as a whole cannot be parsed; problems with single entries are
// reported on the returned items instead.
type Decoder func(payload []byte, receivedAt time.Time) ([]domain.Item, error)

// Registry returns the decoder for every source that has one.
func Registry() map[domain.Source]Decoder {
	return map[domain.Source]Decoder{
		domain.SourceFacebook:  DecodeFacebook,
		domain.SourceInstagram: DecodeInstagram,
		domain.SourceTwitter:   DecodeTwitter,
		domain.SourceLinkedIn:  DecodeLinkedIn,
		domain.SourceStripe:    DecodeStripe,
		domain.SourceInternal:  DecodeInternal,
	}
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
}

func errItem(label string, err error) domain.Item {
	return domain.Item{Label: label, Err: err}
}

func malformedItem(label string, err error) domain.Item {
	return errItem(label, malformed(err))
}

func unsupportedItem(label, what string) domain.Item {
	return errItem(label, fmt.Errorf("%w: %s", domain.ErrUnsupportedEvent, what))
}

// counters drops zero values. A delta with nothing left is unsupported.
type counters map[analytics.Counter]int64

func (c counters) nonZero() map[analytics.Counter]int64 {
	out := make(map[analytics.Counter]int64, len(c))
	for k, v := range c {
		if v != 0 {
			out[k] = v
		}
	}
	return out
}

// socialItem builds a platform delta resolved through accountRef.
func socialItem(label, platform, accountRef string, occurredAt, receivedAt time.Time, c counters) domain.Item {
	if accountRef == "" {
		return malformedItem(label, fmt.Errorf("missing account id"))
	}
	nz := c.nonZero()
	if len(nz) == 0 {
		return unsupportedItem(label, "no metrics in "+platform+" event")
	}
	return domain.Item{
		Label: label,
		Delta: &analytics.MetricDelta{
			AccountRef: accountRef,
			Platform:   platform,
			Type:       analytics.TypeSocial,
			OccurredAt: occurredAt.UTC(),
			ReceivedAt: receivedAt.UTC(),
			Counters:   nz,
		},
	}
}

func unixSeconds(sec int64) time.Time {
	if sec <= 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func unixMillis(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

func decodeArray(raw json.RawMessage) ([]json.RawMessage, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var out []json.RawMessage
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}
