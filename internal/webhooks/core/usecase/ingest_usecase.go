package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"webhook-analytics-service/internal/platform/logger"
	"webhook-analytics-service/internal/webhooks/core/domain"
)

var tracer = otel.Tracer("webhook-analytics-service/webhooks")

type Verifier interface {
	Verify(ev domain.InboundEvent) error
}

type EventRouter interface {
	Route(ctx context.Context, ev domain.InboundEvent) (bool, error)
}

type IngestUseCase struct {
	verifier Verifier
	router   EventRouter
	stats    *Stats
	log      *logger.Logger
	now      func() time.Time
}

func NewIngestUseCase(verifier Verifier, router EventRouter, log *logger.Logger) *IngestUseCase {
	return &IngestUseCase{
		verifier: verifier,
		router:   router,
		stats:    NewStats(),
		log:      log.With("component", "IngestUseCase"),
		now:      time.Now,
	}
}

// Execute verifies and routes one webhook. It returns ErrAuthentication,
// ErrMalformedPayload or a storage error; unknown tenants, unsupported
// events and malformed single items are not errors.
func (uc *IngestUseCase) Execute(ctx context.Context, ev domain.InboundEvent) error {
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.ReceivedAt.IsZero() {
		ev.ReceivedAt = uc.now().UTC()
	}

	ctx, span := tracer.Start(ctx, "webhooks.ingest", trace.WithAttributes(
		attribute.String("webhook.source", string(ev.Source)),
		attribute.String("webhook.event_id", ev.ID),
		attribute.Int("webhook.bytes", len(ev.RawPayload)),
	))
	defer span.End()

	counters := uc.stats.forSource(ev.Source)
	counters.received.Add(1)

	if err := uc.verifier.Verify(ev); err != nil {
		counters.rejected.Add(1)
		span.SetStatus(codes.Error, "invalid signature")
		uc.log.Warn("rejected webhook", "event_id", ev.ID, "source", string(ev.Source), "error", err)
		return err
	}

	handled, err := uc.router.Route(ctx, ev)
	if err != nil {
		if errors.Is(err, domain.ErrMalformedPayload) {
			counters.rejected.Add(1)
		} else {
			counters.failed.Add(1)
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if handled {
		counters.handled.Add(1)
	} else {
		counters.ignored.Add(1)
	}
	span.SetAttributes(attribute.Bool("webhook.handled", handled))
	return nil
}

// Stats returns the processed event counters per source.
func (uc *IngestUseCase) Stats() map[string]SourceStats {
	return uc.stats.Snapshot()
}
