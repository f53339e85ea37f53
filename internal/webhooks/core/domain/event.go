package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
)

var (
	ErrAuthentication   = errors.New("webhook signature verification failed")
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrUnsupportedEvent = errors.New("unsupported webhook event")
)

// Source is the sender of a webhook, taken from the request path.
type Source string

const (
	SourceFacebook  Source = "facebook"
	SourceInstagram Source = "instagram"
	SourceTwitter   Source = "twitter"
	SourceLinkedIn  Source = "linkedin"
	SourceStripe    Source = "stripe"
	SourceInternal  Source = "internal"
	SourceGeneric   Source = "generic"
)

// KnownSources lists the sources that have a dedicated decoder.
var KnownSources = []Source{
	SourceFacebook, SourceInstagram, SourceTwitter, SourceLinkedIn, SourceStripe, SourceInternal,
}

func ParseSource(s string) Source {
	return Source(strings.ToLower(strings.TrimSpace(s)))
}

// InboundEvent is one received webhook request. It is never persisted.
type InboundEvent struct {
	ID              string
	Source          Source
	RawPayload      []byte
	SignatureHeader string
	ReceivedAt      time.Time
}

type SubscriptionState string

const (
	SubscriptionActive     SubscriptionState = "active"
	SubscriptionTrialing   SubscriptionState = "trialing"
	SubscriptionPastDue    SubscriptionState = "past_due"
	SubscriptionUnpaid     SubscriptionState = "unpaid"
	SubscriptionIncomplete SubscriptionState = "incomplete"
	SubscriptionCancelled  SubscriptionState = "cancelled"
)

// ParseSubscriptionState maps a provider status onto the tenant states.
// Stripe spells it "canceled"; "incomplete_expired" counts as cancelled.
func ParseSubscriptionState(s string) (SubscriptionState, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return SubscriptionActive, nil
	case "trialing":
		return SubscriptionTrialing, nil
	case "past_due":
		return SubscriptionPastDue, nil
	case "unpaid":
		return SubscriptionUnpaid, nil
	case "incomplete":
		return SubscriptionIncomplete, nil
	case "canceled", "cancelled", "incomplete_expired":
		return SubscriptionCancelled, nil
	default:
		return "", fmt.Errorf("%w: subscription status %q", ErrUnsupportedEvent, s)
	}
}

// ExternalRef points at a tenant through a provider identifier,
// e.g. stripe/cus_123 or facebook/<page id>.
type ExternalRef struct {
	Provider string
	ID       string
}

func (r ExternalRef) String() string {
	return r.Provider + "/" + r.ID
}

type MutationKind string

const MutationSubscriptionState MutationKind = "subscription_state"

// EntityMutation is a direct tenant update produced by a decoder.
type EntityMutation struct {
	Kind  MutationKind
	Ref   ExternalRef
	State SubscriptionState
}

// Item is one independently processed unit of a payload: exactly one of
// Delta, Mutation, Err or Info is set. Info marks an event that is only
// logged. Label locates the item inside the payload.
type Item struct {
	Label    string
	Delta    *analytics.MetricDelta
	Mutation *EntityMutation
	Err      error
	Info     string
}

// Receipt records that a payload was received, for sources that have no
// aggregation path.
type Receipt struct {
	EventID    string
	Source     Source
	ReceivedAt time.Time
	Size       int
}
