package decoders

import (
	"encoding/json"
	"errors"
	"time"

	"webhook-analytics-service/internal/webhooks/core/domain"
)

type stripeEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object json.RawMessage `json:"object"`
	} `json:"data"`
}

type stripeSubscription struct {
	ID       string `json:"id"`
	Customer string `json:"customer"`
	Status   string `json:"status"`
}

// DecodeStripe maps subscription lifecycle events onto tenant subscription
// state. Payment events are acknowledged and logged only.
func DecodeStripe(payload []byte, _ time.Time) ([]domain.Item, error) {
	var ev stripeEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return nil, malformed(err)
	}
	if ev.Type == "" {
		return nil, malformed(errors.New("missing event type"))
	}
	label := ev.Type

	switch ev.Type {
	case "customer.subscription.created", "customer.subscription.updated", "customer.subscription.deleted":
		var sub stripeSubscription
		if err := json.Unmarshal(ev.Data.Object, &sub); err != nil {
			return []domain.Item{malformedItem(label, err)}, nil
		}
		if sub.Customer == "" {
			return []domain.Item{malformedItem(label, errors.New("subscription without customer"))}, nil
		}

		var state domain.SubscriptionState
		switch ev.Type {
		case "customer.subscription.created":
			state = domain.SubscriptionActive
		case "customer.subscription.deleted":
			state = domain.SubscriptionCancelled
		default:
			s, err := domain.ParseSubscriptionState(sub.Status)
			if err != nil {
				return []domain.Item{errItem(label, err)}, nil
			}
			state = s
		}
		return []domain.Item{{
			Label: label,
			Mutation: &domain.EntityMutation{
				Kind:  domain.MutationSubscriptionState,
				Ref:   domain.ExternalRef{Provider: string(domain.SourceStripe), ID: sub.Customer},
				State: state,
			},
		}}, nil

	case "invoice.payment_succeeded", "invoice.payment_failed":
		return []domain.Item{{Label: label, Info: "stripe " + ev.Type + " " + ev.ID}}, nil

	default:
		return []domain.Item{unsupportedItem(label, "stripe event "+ev.Type)}, nil
	}
}
