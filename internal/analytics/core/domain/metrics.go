package domain

import "time"

// MetricType groups buckets by what produced them.
type MetricType string

const (
	TypeSocial   MetricType = "social"
	TypeContent  MetricType = "content"
	TypeAIAgent  MetricType = "ai_agent"
	TypeBusiness MetricType = "business"
)

func (t MetricType) Valid() bool {
	switch t {
	case TypeSocial, TypeContent, TypeAIAgent, TypeBusiness:
		return true
	}
	return false
}

// Counter names a raw counter of a bucket. The value doubles as the
// dotted document path the counter is stored under.
type Counter string

const (
	CounterPostsPublished Counter = "content.posts_published"
	CounterPostsScheduled Counter = "content.posts_scheduled"
	CounterPostsFailed    Counter = "content.posts_failed"

	CounterLikes    Counter = "engagement.likes"
	CounterComments Counter = "engagement.comments"
	CounterShares   Counter = "engagement.shares"
	CounterRetweets Counter = "engagement.retweets"
	CounterSaves    Counter = "engagement.saves"
	CounterClicks   Counter = "engagement.clicks"

	CounterTotalEngagement Counter = "total_engagement"
	CounterTotalReach      Counter = "total_reach"
	CounterImpressions     Counter = "impressions"

	CounterTasksCompleted   Counter = "ai_agent.tasks_completed"
	CounterTasksFailed      Counter = "ai_agent.tasks_failed"
	CounterContentGenerated Counter = "ai_agent.content_generated"
	CounterTokensUsed       Counter = "ai_agent.tokens_used"
	CounterResponseTimeMs   Counter = "ai_agent.response_time_ms"

	CounterRevenueCents Counter = "business.revenue_cents"
	CounterCostCents    Counter = "business.cost_cents"
	CounterLeads        Counter = "business.leads"
	CounterConversions  Counter = "business.conversions"
)

type counterSpec struct {
	// platformField is the per-platform sub-document field the counter
	// also feeds, empty when the counter is not tracked per platform.
	platformField string
	engagement    bool
}

var counters = map[Counter]counterSpec{
	CounterPostsPublished: {platformField: "posts"},
	CounterPostsScheduled: {},
	CounterPostsFailed:    {},

	CounterLikes:    {platformField: "likes", engagement: true},
	CounterComments: {platformField: "comments", engagement: true},
	CounterShares:   {platformField: "shares", engagement: true},
	CounterRetweets: {platformField: "shares", engagement: true},
	CounterSaves:    {engagement: true},
	CounterClicks:   {engagement: true},

	CounterTotalEngagement: {platformField: "engagement"},
	CounterTotalReach:      {platformField: "reach"},
	CounterImpressions:     {platformField: "impressions"},

	CounterTasksCompleted:   {},
	CounterTasksFailed:      {},
	CounterContentGenerated: {},
	CounterTokensUsed:       {},
	CounterResponseTimeMs:   {},

	CounterRevenueCents: {},
	CounterCostCents:    {},
	CounterLeads:        {},
	CounterConversions:  {},
}

// Known reports whether c is part of the bucket schema.
func (c Counter) Known() bool {
	_, ok := counters[c]
	return ok
}

// PlatformField returns the per-platform field c contributes to.
func (c Counter) PlatformField() string {
	return counters[c].platformField
}

func (c Counter) IsEngagement() bool {
	return counters[c].engagement
}

type ContentMetrics struct {
	PostsPublished int64 `json:"posts_published"`
	PostsScheduled int64 `json:"posts_scheduled"`
	PostsFailed    int64 `json:"posts_failed"`
}

type EngagementMetrics struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Retweets int64 `json:"retweets"`
	Saves    int64 `json:"saves"`
	Clicks   int64 `json:"clicks"`
}

type PlatformMetrics struct {
	Platform       string  `json:"platform"`
	Posts          int64   `json:"posts"`
	Likes          int64   `json:"likes"`
	Comments       int64   `json:"comments"`
	Shares         int64   `json:"shares"`
	Impressions    int64   `json:"impressions"`
	Reach          int64   `json:"reach"`
	Engagement     int64   `json:"engagement"`
	EngagementRate float64 `json:"engagement_rate"`
}

type AIAgentMetrics struct {
	TasksCompleted   int64   `json:"tasks_completed"`
	TasksFailed      int64   `json:"tasks_failed"`
	ContentGenerated int64   `json:"content_generated"`
	TokensUsed       int64   `json:"tokens_used"`
	ResponseTimeMs   int64   `json:"response_time_ms"`
	SuccessRate      float64 `json:"success_rate"`
}

type BusinessMetrics struct {
	RevenueCents  int64   `json:"revenue_cents"`
	CostCents     int64   `json:"cost_cents"`
	Leads         int64   `json:"leads"`
	Conversions   int64   `json:"conversions"`
	CalculatedROI float64 `json:"calculated_roi"`
}

// BucketKey identifies a bucket. BucketStart must be aligned to Period.
type BucketKey struct {
	TenantID    string
	Type        MetricType
	Period      Period
	BucketStart time.Time
}

// MetricBucket is the persisted aggregate for one BucketKey.
type MetricBucket struct {
	ID          string     `json:"id"`
	TenantID    string     `json:"tenant_id"`
	Type        MetricType `json:"type"`
	Period      Period     `json:"period"`
	BucketStart time.Time  `json:"bucket_start"`

	Content         ContentMetrics    `json:"content"`
	Engagement      EngagementMetrics `json:"engagement"`
	TotalEngagement int64             `json:"total_engagement"`
	TotalReach      int64             `json:"total_reach"`
	Impressions     int64             `json:"impressions"`
	Platforms       []PlatformMetrics `json:"platforms"`
	AIAgent         AIAgentMetrics    `json:"ai_agent"`
	Business        BusinessMetrics   `json:"business"`

	EngagementRate float64 `json:"engagement_rate"`

	EventCount     int64     `json:"event_count"`
	LastOccurredAt time.Time `json:"last_occurred_at"`
	LastReceivedAt time.Time `json:"last_received_at"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewMetricBucket(id string, key BucketKey, now time.Time) *MetricBucket {
	return &MetricBucket{
		ID:          id,
		TenantID:    key.TenantID,
		Type:        key.Type,
		Period:      key.Period,
		BucketStart: key.BucketStart,
		Platforms:   []PlatformMetrics{},
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Apply folds inc into b and recomputes the derived fields.
func (b *MetricBucket) Apply(inc Increment, now time.Time) {
	for c, v := range inc.Counters {
		if ref := b.counterRef(c); ref != nil {
			*ref += v
		}
	}
	if inc.Platform != "" {
		p := b.platform(inc.Platform)
		for field, v := range inc.PlatformFields() {
			if ref := p.fieldRef(field); ref != nil {
				*ref += v
			}
		}
	}
	b.EventCount++
	if inc.OccurredAt.After(b.LastOccurredAt) {
		b.LastOccurredAt = inc.OccurredAt
	}
	if inc.ReceivedAt.After(b.LastReceivedAt) {
		b.LastReceivedAt = inc.ReceivedAt
	}
	b.UpdatedAt = now
	b.Recompute()
}

// Recompute derives every computed field from the raw counters.
func (b *MetricBucket) Recompute() {
	b.EngagementRate = Percentage(b.TotalEngagement, b.TotalReach)
	b.AIAgent.SuccessRate = Percentage(b.AIAgent.TasksCompleted, b.AIAgent.TasksCompleted+b.AIAgent.TasksFailed)
	b.Business.CalculatedROI = ROI(b.Business.RevenueCents, b.Business.CostCents)
	for i := range b.Platforms {
		b.Platforms[i].EngagementRate = Percentage(b.Platforms[i].Engagement, b.Platforms[i].Reach)
	}
}

func (b *MetricBucket) platform(name string) *PlatformMetrics {
	for i := range b.Platforms {
		if b.Platforms[i].Platform == name {
			return &b.Platforms[i]
		}
	}
	b.Platforms = append(b.Platforms, PlatformMetrics{Platform: name})
	return &b.Platforms[len(b.Platforms)-1]
}

func (b *MetricBucket) counterRef(c Counter) *int64 {
	switch c {
	case CounterPostsPublished:
		return &b.Content.PostsPublished
	case CounterPostsScheduled:
		return &b.Content.PostsScheduled
	case CounterPostsFailed:
		return &b.Content.PostsFailed
	case CounterLikes:
		return &b.Engagement.Likes
	case CounterComments:
		return &b.Engagement.Comments
	case CounterShares:
		return &b.Engagement.Shares
	case CounterRetweets:
		return &b.Engagement.Retweets
	case CounterSaves:
		return &b.Engagement.Saves
	case CounterClicks:
		return &b.Engagement.Clicks
	case CounterTotalEngagement:
		return &b.TotalEngagement
	case CounterTotalReach:
		return &b.TotalReach
	case CounterImpressions:
		return &b.Impressions
	case CounterTasksCompleted:
		return &b.AIAgent.TasksCompleted
	case CounterTasksFailed:
		return &b.AIAgent.TasksFailed
	case CounterContentGenerated:
		return &b.AIAgent.ContentGenerated
	case CounterTokensUsed:
		return &b.AIAgent.TokensUsed
	case CounterResponseTimeMs:
		return &b.AIAgent.ResponseTimeMs
	case CounterRevenueCents:
		return &b.Business.RevenueCents
	case CounterCostCents:
		return &b.Business.CostCents
	case CounterLeads:
		return &b.Business.Leads
	case CounterConversions:
		return &b.Business.Conversions
	}
	return nil
}

func (p *PlatformMetrics) fieldRef(field string) *int64 {
	switch field {
	case "posts":
		return &p.Posts
	case "likes":
		return &p.Likes
	case "comments":
		return &p.Comments
	case "shares":
		return &p.Shares
	case "impressions":
		return &p.Impressions
	case "reach":
		return &p.Reach
	case "engagement":
		return &p.Engagement
	}
	return nil
}

// Percentage returns num/den*100, or 0 when den is not positive.
func Percentage(num, den int64) float64 {
	if den <= 0 {
		return 0
	}
	return float64(num) / float64(den) * 100
}

// ROI returns (revenue-cost)/cost*100, or 0 when there is no cost.
func ROI(revenue, cost int64) float64 {
	if cost <= 0 {
		return 0
	}
	return float64(revenue-cost) / float64(cost) * 100
}
