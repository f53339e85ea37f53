package usecase

import (
	"sync/atomic"

	"webhook-analytics-service/internal/webhooks/core/domain"
)

type SourceStats struct {
	Received int64 `json:"received"`
	Handled  int64 `json:"handled"`
	Ignored  int64 `json:"ignored"`
	Rejected int64 `json:"rejected"`
	Failed   int64 `json:"failed"`
}

type sourceCounters struct {
	received, handled, ignored, rejected, failed atomic.Int64
}

// Stats counts processed events per source. The map is fixed at
// construction; sources without a decoder share the generic counters so
// arbitrary path values cannot grow it.
type Stats struct {
	bySource map[domain.Source]*sourceCounters
}

func NewStats() *Stats {
	s := &Stats{bySource: map[domain.Source]*sourceCounters{
		domain.SourceGeneric: {},
	}}
	for _, src := range domain.KnownSources {
		s.bySource[src] = &sourceCounters{}
	}
	return s
}

func (s *Stats) forSource(src domain.Source) *sourceCounters {
	if c, ok := s.bySource[src]; ok {
		return c
	}
	return s.bySource[domain.SourceGeneric]
}

func (s *Stats) Snapshot() map[string]SourceStats {
	out := make(map[string]SourceStats, len(s.bySource))
	for src, c := range s.bySource {
		out[string(src)] = SourceStats{
			Received: c.received.Load(),
			Handled:  c.handled.Load(),
			Ignored:  c.ignored.Load(),
			Rejected: c.rejected.Load(),
			Failed:   c.failed.Load(),
		}
	}
	return out
}
