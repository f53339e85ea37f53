package usecase_test

import (
	"context"
	"errors"
	"testing"

	analytics "webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/platform/logger"
	"webhook-analytics-service/internal/webhooks/core/domain"
	"webhook-analytics-service/internal/webhooks/core/signature"
	"webhook-analytics-service/internal/webhooks/core/usecase"
)

type fakeRouter struct {
	RouteFn func(ev domain.InboundEvent) (bool, error)
	last    domain.InboundEvent
	called  bool
}

func (f *fakeRouter) Route(_ context.Context, ev domain.InboundEvent) (bool, error) {
	f.called = true
	f.last = ev
	if f.RouteFn != nil {
		return f.RouteFn(ev)
	}
	return true, nil
}

func signedEvent(source domain.Source, secret, payload string) domain.InboundEvent {
	return domain.InboundEvent{
		Source:          source,
		RawPayload:      []byte(payload),
		SignatureHeader: signature.SignHex([]byte(payload), secret),
	}
}

func newIngest(router usecase.EventRouter) *usecase.IngestUseCase {
	v := signature.NewVerifier(map[domain.Source]string{
		domain.SourceLinkedIn: "li-secret",
	}, 0)
	return usecase.NewIngestUseCase(v, router, logger.NewNop())
}

func TestIngest_VerifiedEventIsRouted(t *testing.T) {
	router := &fakeRouter{}
	uc := newIngest(router)

	err := uc.Execute(context.Background(), signedEvent(domain.SourceLinkedIn, "li-secret", `{"notifications":[]}`))

	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !router.called {
		t.Fatalf("expected router to be called")
	}
	if router.last.ID == "" || router.last.ReceivedAt.IsZero() {
		t.Fatalf("expected id and receive time to be assigned, got %+v", router.last)
	}
	if s := uc.Stats()["linkedin"]; s.Received != 1 || s.Handled != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestIngest_BadSignatureNeverRoutes(t *testing.T) {
	router := &fakeRouter{}
	uc := newIngest(router)

	err := uc.Execute(context.Background(), signedEvent(domain.SourceLinkedIn, "wrong", `{"notifications":[]}`))

	if !errors.Is(err, domain.ErrAuthentication) {
		t.Fatalf("expected ErrAuthentication, got %v", err)
	}
	if router.called {
		t.Fatalf("router must not see unverified events")
	}
	if s := uc.Stats()["linkedin"]; s.Rejected != 1 {
		t.Fatalf("expected a rejected count, got %+v", s)
	}
}

func TestIngest_StatsPerOutcome(t *testing.T) {
	results := []error{nil, domain.ErrMalformedPayload, analytics.ErrStorage}
	i := 0
	router := &fakeRouter{RouteFn: func(ev domain.InboundEvent) (bool, error) {
		err := results[i]
		i++
		return false, err
	}}
	uc := newIngest(router)

	for range results {
		_ = uc.Execute(context.Background(), signedEvent(domain.SourceLinkedIn, "li-secret", `{}`))
	}

	s := uc.Stats()["linkedin"]
	if s.Received != 3 || s.Ignored != 1 || s.Rejected != 1 || s.Failed != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestIngest_UnknownSourcesShareGenericCounters(t *testing.T) {
	uc := newIngest(&fakeRouter{})

	_ = uc.Execute(context.Background(), signedEvent("shopify", "x", `{}`))
	_ = uc.Execute(context.Background(), signedEvent("woocommerce", "x", `{}`))

	stats := uc.Stats()
	if _, ok := stats["shopify"]; ok {
		t.Fatalf("unknown sources must not get their own counters")
	}
	if stats["generic"].Received != 2 || stats["generic"].Rejected != 2 {
		t.Fatalf("unexpected generic stats: %+v", stats["generic"])
	}
}
