package usecase

import (
	"context"
	"errors"
	"fmt"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/platform/logger"
	"webhook-analytics-service/internal/webhooks/core/decoders"
	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/ports"
)

// Router dispatches verified events to their decoder and applies the
// decoded items one by one. A failing item never stops its siblings.
type Router struct {
	decoders map[domain.Source]decoders.Decoder
	applier  ports.DeltaApplier
	tenants  ports.TenantDirectory
	receipts ports.ReceiptRecorder
	log      *logger.Logger
}

func NewRouter(applier ports.DeltaApplier, tenants ports.TenantDirectory, receipts ports.ReceiptRecorder, log *logger.Logger) *Router {
	return &Router{
		decoders: decoders.Registry(),
		applier:  applier,
		tenants:  tenants,
		receipts: receipts,
		log:      log.With("component", "EventRouter"),
	}
}

// Route decodes ev and applies every item. handled reports whether at
// least one item changed state. The error is ErrMalformedPayload when the
// payload could not be parsed at all, or wraps ErrStorage when one or more
// items hit a storage failure after all items were attempted.
func (r *Router) Route(ctx context.Context, ev domain.InboundEvent) (bool, error) {
	log := r.log.With("event_id", ev.ID, "source", string(ev.Source))

	decode, ok := r.decoders[ev.Source]
	if !ok {
		r.recordReceipt(ctx, log, ev)
		return false, nil
	}

	items, err := decode(ev.RawPayload, ev.ReceivedAt)
	if err != nil {
		log.Warn("rejecting undecodable payload", "error", err)
		return false, err
	}

	var handled bool
	var storageErrs []error
	for _, it := range items {
		itemLog := log.With("item", it.Label)
		applied, err := r.applyItem(ctx, itemLog, it)
		if err != nil {
			itemLog.Error("item failed", "error", err)
			storageErrs = append(storageErrs, err)
			continue
		}
		handled = handled || applied
	}

	if len(storageErrs) > 0 {
		return handled, fmt.Errorf("%w: %d of %d items failed: %w",
			analytics.ErrStorage, len(storageErrs), len(items), errors.Join(storageErrs...))
	}
	return handled, nil
}

// applyItem returns a non-nil error only for storage failures; everything
// else is logged and swallowed.
func (r *Router) applyItem(ctx context.Context, log *logger.Logger, it domain.Item) (bool, error) {
	switch {
	case it.Err != nil:
		if errors.Is(it.Err, domain.ErrUnsupportedEvent) {
			log.Info("skipping unsupported item", "reason", it.Err.Error())
		} else {
			log.Warn("skipping malformed item", "error", it.Err)
		}
		return false, nil
	case it.Info != "":
		log.Info(it.Info)
		return false, nil
	case it.Mutation != nil:
		return r.applyMutation(ctx, log, *it.Mutation)
	case it.Delta != nil:
		return r.applyDelta(ctx, log, *it.Delta)
	default:
		return false, nil
	}
}

func (r *Router) applyDelta(ctx context.Context, log *logger.Logger, d analytics.MetricDelta) (bool, error) {
	if d.TenantID == "" {
		ref := domain.ExternalRef{Provider: d.Platform, ID: d.AccountRef}
		tenantID, err := r.tenants.FindTenantByExternalRef(ctx, ref)
		if errors.Is(err, ports.ErrTenantNotFound) {
			log.Warn("dropping delta for unknown account", "account", ref.String())
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("%w: resolve %s: %w", analytics.ErrStorage, ref, err)
		}
		d.TenantID = tenantID
	}

	err := r.applier.ApplyDelta(ctx, d)
	switch {
	case err == nil:
		log.Debug("delta applied", "tenant_id", d.TenantID, "type", string(d.Type))
		return true, nil
	case errors.Is(err, analytics.ErrUnknownTenant):
		log.Warn("dropping delta for unknown tenant", "tenant_id", d.TenantID)
		return false, nil
	case errors.Is(err, analytics.ErrInvalidDelta):
		log.Warn("dropping invalid delta", "error", err)
		return false, nil
	default:
		return false, err
	}
}

func (r *Router) applyMutation(ctx context.Context, log *logger.Logger, m domain.EntityMutation) (bool, error) {
	if m.Kind != domain.MutationSubscriptionState {
		log.Warn("skipping unknown mutation", "kind", string(m.Kind))
		return false, nil
	}

	tenantID, err := r.tenants.FindTenantByExternalRef(ctx, m.Ref)
	if errors.Is(err, ports.ErrTenantNotFound) {
		log.Warn("dropping subscription update for unknown customer", "ref", m.Ref.String())
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: resolve %s: %w", analytics.ErrStorage, m.Ref, err)
	}

	err = r.tenants.UpdateTenantSubscriptionState(ctx, tenantID, m.State)
	if errors.Is(err, ports.ErrTenantNotFound) {
		log.Warn("tenant vanished before subscription update", "tenant_id", tenantID)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("%w: update subscription of %s: %w", analytics.ErrStorage, tenantID, err)
	}
	log.Info("subscription state updated", "tenant_id", tenantID, "state", string(m.State))
	return true, nil
}

// recordReceipt handles sources without a decoder. Failures to record are
// logged only.
func (r *Router) recordReceipt(ctx context.Context, log *logger.Logger, ev domain.InboundEvent) {
	log.Info("received webhook from source without decoder", "bytes", len(ev.RawPayload))
	if r.receipts == nil {
		return
	}
	err := r.receipts.Record(ctx, domain.Receipt{
		EventID:    ev.ID,
		Source:     ev.Source,
		ReceivedAt: ev.ReceivedAt,
		Size:       len(ev.RawPayload),
	})
	if err != nil {
		log.Warn("failed to record webhook receipt", "error", err)
	}
}
