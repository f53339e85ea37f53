package usecase

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/ports"
)

var (
	ErrInvalidQuery       = errors.New("invalid rollup query")
	ErrInvalidTimeRange   = errors.New("invalid time range")
	ErrInvalidGroupBy     = errors.New("invalid group_by value")
	ErrInvalidPeriod      = errors.New("invalid named period")
	ErrInvalidGranularity = errors.New("invalid granularity")
	ErrInvalidPanel       = errors.New("invalid dashboard panel")
)

const totalRowKey = "total"

type QueryRollupInput struct {
	TenantID string
	Type     string

	// Either From/To (unix seconds, both inclusive) or a named Period
	// ("week", "month", "quarter", "year").
	From   int64
	To     int64
	Period string

	Granularity string // bucket period to read, default "daily"
	GroupBy     string // "", "platform", "period"
}

type QueryRollupUseCase struct {
	reader ports.BucketReader
	now    func() time.Time
}

func NewQueryRollupUseCase(reader ports.BucketReader) *QueryRollupUseCase {
	return &QueryRollupUseCase{reader: reader, now: time.Now}
}

// WithClock replaces the clock used to resolve named periods.
func (uc *QueryRollupUseCase) WithClock(now func() time.Time) *QueryRollupUseCase {
	uc.now = now
	return uc
}

// Execute validates the input, reads the matching buckets and aggregates
// them. The result always holds at least one row.
func (uc *QueryRollupUseCase) Execute(ctx context.Context, in QueryRollupInput) (*domain.RollupResult, error) {
	if strings.TrimSpace(in.TenantID) == "" {
		return nil, ErrInvalidQuery
	}
	typ := domain.MetricType(in.Type)
	if !typ.Valid() {
		return nil, ErrInvalidQuery
	}

	granularity := domain.PeriodDaily
	if in.Granularity != "" {
		p, err := domain.ParsePeriod(in.Granularity)
		if err != nil {
			return nil, ErrInvalidGranularity
		}
		granularity = p
	}

	groupBy := domain.GroupBy(in.GroupBy)
	switch groupBy {
	case domain.GroupByNone, domain.GroupByPlatform, domain.GroupByPeriod:
	default:
		return nil, ErrInvalidGroupBy
	}

	from, to, err := uc.resolveRange(in)
	if err != nil {
		return nil, err
	}

	buckets, err := uc.reader.FindBuckets(ctx, ports.BucketFilter{
		TenantID: in.TenantID,
		Type:     typ,
		Period:   granularity,
		From:     granularity.Align(from),
		To:       to,
	})
	if err != nil {
		return nil, err
	}

	var rows []domain.AggregateRow
	switch groupBy {
	case domain.GroupByPlatform:
		rows = rollupByPlatform(buckets)
	case domain.GroupByPeriod:
		rows = rollupByPeriod(buckets)
	default:
		rows = rollupTotal(buckets)
	}
	if len(rows) == 0 {
		rows = []domain.AggregateRow{{Key: totalRowKey}}
	}

	return &domain.RollupResult{
		TenantID:    in.TenantID,
		Type:        typ,
		Granularity: granularity,
		From:        from,
		To:          to,
		GroupBy:     groupBy,
		Rows:        rows,
	}, nil
}

// resolveRange returns inclusive UTC bounds for the query.
func (uc *QueryRollupUseCase) resolveRange(in QueryRollupInput) (time.Time, time.Time, error) {
	if in.Period != "" {
		return NamedRange(in.Period, uc.now())
	}
	if in.From <= 0 || in.To <= 0 || in.From > in.To {
		return time.Time{}, time.Time{}, ErrInvalidTimeRange
	}
	return time.Unix(in.From, 0).UTC(), time.Unix(in.To, 0).UTC(), nil
}

// NamedRange derives the canonical bounds of a named dashboard period
// ending at now: week is the rolling last 7 days, month, quarter and year
// start at their calendar boundary.
func NamedRange(name string, now time.Time) (time.Time, time.Time, error) {
	now = now.UTC()
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "week":
		return now.AddDate(0, 0, -7), now, nil
	case "month":
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC), now, nil
	case "quarter":
		firstMonth := time.Month((int(now.Month())-1)/3*3 + 1)
		return time.Date(now.Year(), firstMonth, 1, 0, 0, 0, 0, time.UTC), now, nil
	case "year":
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC), now, nil
	default:
		return time.Time{}, time.Time{}, ErrInvalidPeriod
	}
}

// rowBuilder accumulates bucket counters into one AggregateRow.
type rowBuilder struct {
	row  domain.AggregateRow
	last time.Time
}

func (rb *rowBuilder) addBucket(b *domain.MetricBucket) {
	r := &rb.row
	r.Buckets++
	r.Content.PostsPublished += b.Content.PostsPublished
	r.Content.PostsScheduled += b.Content.PostsScheduled
	r.Content.PostsFailed += b.Content.PostsFailed
	r.Engagement.Likes += b.Engagement.Likes
	r.Engagement.Comments += b.Engagement.Comments
	r.Engagement.Shares += b.Engagement.Shares
	r.Engagement.Retweets += b.Engagement.Retweets
	r.Engagement.Saves += b.Engagement.Saves
	r.Engagement.Clicks += b.Engagement.Clicks
	r.TotalEngagement += b.TotalEngagement
	r.TotalReach += b.TotalReach
	r.Impressions += b.Impressions
	r.Posts += b.Content.PostsPublished
	r.AIAgent.TasksCompleted += b.AIAgent.TasksCompleted
	r.AIAgent.TasksFailed += b.AIAgent.TasksFailed
	r.AIAgent.ContentGenerated += b.AIAgent.ContentGenerated
	r.AIAgent.TokensUsed += b.AIAgent.TokensUsed
	r.AIAgent.ResponseTimeMs += b.AIAgent.ResponseTimeMs
	r.Business.RevenueCents += b.Business.RevenueCents
	r.Business.CostCents += b.Business.CostCents
	r.Business.Leads += b.Business.Leads
	r.Business.Conversions += b.Business.Conversions

	rb.observeLast(b.BucketStart, b.EngagementRate)
}

func (rb *rowBuilder) addPlatform(start time.Time, p *domain.PlatformMetrics) {
	r := &rb.row
	r.Buckets++
	r.Posts += p.Posts
	r.Engagement.Likes += p.Likes
	r.Engagement.Comments += p.Comments
	r.Engagement.Shares += p.Shares
	r.TotalEngagement += p.Engagement
	r.TotalReach += p.Reach
	r.Impressions += p.Impressions

	rb.observeLast(start, p.EngagementRate)
}

func (rb *rowBuilder) observeLast(start time.Time, rate float64) {
	if rb.row.LastBucketStart == nil || !start.Before(rb.last) {
		s := start
		rb.last = s
		rb.row.LastBucketStart = &s
		rb.row.LastEngagementRate = rate
	}
}

// finish recomputes the row's rates from its sums.
func (rb *rowBuilder) finish() domain.AggregateRow {
	r := rb.row
	r.EngagementRate = domain.Percentage(r.TotalEngagement, r.TotalReach)
	r.AIAgent.SuccessRate = domain.Percentage(r.AIAgent.TasksCompleted, r.AIAgent.TasksCompleted+r.AIAgent.TasksFailed)
	r.Business.CalculatedROI = domain.ROI(r.Business.RevenueCents, r.Business.CostCents)
	if r.Buckets > 0 {
		r.AvgEngagementPerBucket = float64(r.TotalEngagement) / float64(r.Buckets)
	}
	if tasks := r.AIAgent.TasksCompleted + r.AIAgent.TasksFailed; tasks > 0 {
		r.AvgResponseTimeMs = float64(r.AIAgent.ResponseTimeMs) / float64(tasks)
	}
	return r
}

func rollupTotal(buckets []domain.MetricBucket) []domain.AggregateRow {
	if len(buckets) == 0 {
		return nil
	}
	rb := &rowBuilder{row: domain.AggregateRow{Key: totalRowKey}}
	for i := range buckets {
		rb.addBucket(&buckets[i])
	}
	return []domain.AggregateRow{rb.finish()}
}

func rollupByPeriod(buckets []domain.MetricBucket) []domain.AggregateRow {
	groups := map[time.Time]*rowBuilder{}
	var starts []time.Time
	for i := range buckets {
		start := buckets[i].BucketStart.UTC()
		rb, ok := groups[start]
		if !ok {
			rb = &rowBuilder{row: domain.AggregateRow{Key: start.Format(time.RFC3339)}}
			groups[start] = rb
			starts = append(starts, start)
		}
		rb.addBucket(&buckets[i])
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	rows := make([]domain.AggregateRow, 0, len(starts))
	for _, s := range starts {
		rows = append(rows, groups[s].finish())
	}
	return rows
}

func rollupByPlatform(buckets []domain.MetricBucket) []domain.AggregateRow {
	groups := map[string]*rowBuilder{}
	for i := range buckets {
		for j := range buckets[i].Platforms {
			p := &buckets[i].Platforms[j]
			rb, ok := groups[p.Platform]
			if !ok {
				rb = &rowBuilder{row: domain.AggregateRow{Key: p.Platform}}
				groups[p.Platform] = rb
			}
			rb.addPlatform(buckets[i].BucketStart.UTC(), p)
		}
	}

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)

	rows := make([]domain.AggregateRow, 0, len(names))
	for _, name := range names {
		rows = append(rows, groups[name].finish())
	}
	return rows
}
