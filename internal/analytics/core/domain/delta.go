package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownTenant = errors.New("unknown tenant")
	ErrInvalidDelta  = errors.New("invalid metric delta")
	ErrStorage       = errors.New("storage failure")
)

// MetricDelta is the normalized output of one decoded webhook item.
// Exactly one aggregation write consumes it.
type MetricDelta struct {
	TenantID string
	// AccountRef is the platform account the event belongs to. The
	// router resolves it to TenantID when TenantID is empty.
	AccountRef string
	Platform   string
	Type       MetricType
	// OccurredAt defaults to ReceivedAt when the payload had no timestamp.
	OccurredAt time.Time
	ReceivedAt time.Time
	Counters   map[Counter]int64
}

// Validate checks the delta against the bucket schema.
func (d MetricDelta) Validate() error {
	if d.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidDelta)
	}
	if !d.Type.Valid() {
		return fmt.Errorf("%w: unknown type %q", ErrInvalidDelta, d.Type)
	}
	if len(d.Counters) == 0 {
		return fmt.Errorf("%w: no counters", ErrInvalidDelta)
	}
	for c, v := range d.Counters {
		if !c.Known() {
			return fmt.Errorf("%w: unknown counter %q", ErrInvalidDelta, c)
		}
		if v < 0 {
			return fmt.Errorf("%w: negative increment for %q", ErrInvalidDelta, c)
		}
	}
	return nil
}

// EventTime returns OccurredAt, falling back to ReceivedAt.
func (d MetricDelta) EventTime() time.Time {
	if d.OccurredAt.IsZero() {
		return d.ReceivedAt
	}
	return d.OccurredAt
}

// Increment converts the delta into the increment set applied to a bucket.
// Engagement counters also feed total_engagement unless the delta sets it
// explicitly.
func (d MetricDelta) Increment() Increment {
	inc := Increment{
		Platform:   d.Platform,
		Counters:   make(map[Counter]int64, len(d.Counters)+1),
		OccurredAt: d.EventTime(),
		ReceivedAt: d.ReceivedAt,
	}
	_, explicitTotal := d.Counters[CounterTotalEngagement]
	var engagement int64
	for c, v := range d.Counters {
		if v == 0 {
			continue
		}
		inc.Counters[c] += v
		if c.IsEngagement() {
			engagement += v
		}
	}
	if !explicitTotal && engagement > 0 {
		inc.Counters[CounterTotalEngagement] += engagement
	}
	return inc
}

// Increment is the set of counter additions for one bucket write.
type Increment struct {
	Platform   string
	Counters   map[Counter]int64
	OccurredAt time.Time
	ReceivedAt time.Time
}

// PlatformFields sums the increments per platform sub-document field.
func (inc Increment) PlatformFields() map[string]int64 {
	out := map[string]int64{}
	for c, v := range inc.Counters {
		if f := c.PlatformField(); f != "" {
			out[f] += v
		}
	}
	return out
}
