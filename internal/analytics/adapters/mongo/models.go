package mongo

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"

	"webhook-analytics-service/internal/analytics/core/domain"
)

// Field names below must match the domain.Counter paths.

type contentModel struct {
	PostsPublished int64 `bson:"posts_published"`
	PostsScheduled int64 `bson:"posts_scheduled"`
	PostsFailed    int64 `bson:"posts_failed"`
}

type engagementModel struct {
	Likes    int64 `bson:"likes"`
	Comments int64 `bson:"comments"`
	Shares   int64 `bson:"shares"`
	Retweets int64 `bson:"retweets"`
	Saves    int64 `bson:"saves"`
	Clicks   int64 `bson:"clicks"`
}

type platformModel struct {
	Platform       string  `bson:"platform"`
	Posts          int64   `bson:"posts"`
	Likes          int64   `bson:"likes"`
	Comments       int64   `bson:"comments"`
	Shares         int64   `bson:"shares"`
	Impressions    int64   `bson:"impressions"`
	Reach          int64   `bson:"reach"`
	Engagement     int64   `bson:"engagement"`
	EngagementRate float64 `bson:"engagement_rate"`
}

type aiAgentModel struct {
	TasksCompleted   int64   `bson:"tasks_completed"`
	TasksFailed      int64   `bson:"tasks_failed"`
	ContentGenerated int64   `bson:"content_generated"`
	TokensUsed       int64   `bson:"tokens_used"`
	ResponseTimeMs   int64   `bson:"response_time_ms"`
	SuccessRate      float64 `bson:"success_rate"`
}

type businessModel struct {
	RevenueCents  int64   `bson:"revenue_cents"`
	CostCents     int64   `bson:"cost_cents"`
	Leads         int64   `bson:"leads"`
	Conversions   int64   `bson:"conversions"`
	CalculatedROI float64 `bson:"calculated_roi"`
}

type bucketModel struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	TenantID    string        `bson:"tenant_id"`
	Type        string        `bson:"type"`
	Period      string        `bson:"period"`
	BucketStart time.Time     `bson:"bucket_start"`

	Content         contentModel    `bson:"content"`
	Engagement      engagementModel `bson:"engagement"`
	TotalEngagement int64           `bson:"total_engagement"`
	TotalReach      int64           `bson:"total_reach"`
	Impressions     int64           `bson:"impressions"`
	Platforms       []platformModel `bson:"platforms"`
	AIAgent         aiAgentModel    `bson:"ai_agent"`
	Business        businessModel   `bson:"business"`

	EngagementRate float64 `bson:"engagement_rate"`

	EventCount     int64     `bson:"event_count"`
	LastOccurredAt time.Time `bson:"last_occurred_at"`
	LastReceivedAt time.Time `bson:"last_received_at"`
	CreatedAt      time.Time `bson:"created_at"`
	UpdatedAt      time.Time `bson:"updated_at"`
}

func fromBucketModel(m *bucketModel) *domain.MetricBucket {
	platforms := make([]domain.PlatformMetrics, len(m.Platforms))
	for i, p := range m.Platforms {
		platforms[i] = domain.PlatformMetrics{
			Platform:       p.Platform,
			Posts:          p.Posts,
			Likes:          p.Likes,
			Comments:       p.Comments,
			Shares:         p.Shares,
			Impressions:    p.Impressions,
			Reach:          p.Reach,
			Engagement:     p.Engagement,
			EngagementRate: p.EngagementRate,
		}
	}

	return &domain.MetricBucket{
		ID:          m.ID.Hex(),
		TenantID:    m.TenantID,
		Type:        domain.MetricType(m.Type),
		Period:      domain.Period(m.Period),
		BucketStart: m.BucketStart.UTC(),
		Content: domain.ContentMetrics{
			PostsPublished: m.Content.PostsPublished,
			PostsScheduled: m.Content.PostsScheduled,
			PostsFailed:    m.Content.PostsFailed,
		},
		Engagement: domain.EngagementMetrics{
			Likes:    m.Engagement.Likes,
			Comments: m.Engagement.Comments,
			Shares:   m.Engagement.Shares,
			Retweets: m.Engagement.Retweets,
			Saves:    m.Engagement.Saves,
			Clicks:   m.Engagement.Clicks,
		},
		TotalEngagement: m.TotalEngagement,
		TotalReach:      m.TotalReach,
		Impressions:     m.Impressions,
		Platforms:       platforms,
		AIAgent: domain.AIAgentMetrics{
			TasksCompleted:   m.AIAgent.TasksCompleted,
			TasksFailed:      m.AIAgent.TasksFailed,
			ContentGenerated: m.AIAgent.ContentGenerated,
			TokensUsed:       m.AIAgent.TokensUsed,
			ResponseTimeMs:   m.AIAgent.ResponseTimeMs,
			SuccessRate:      m.AIAgent.SuccessRate,
		},
		Business: domain.BusinessMetrics{
			RevenueCents:  m.Business.RevenueCents,
			CostCents:     m.Business.CostCents,
			Leads:         m.Business.Leads,
			Conversions:   m.Business.Conversions,
			CalculatedROI: m.Business.CalculatedROI,
		},
		EngagementRate: m.EngagementRate,
		EventCount:     m.EventCount,
		LastOccurredAt: m.LastOccurredAt.UTC(),
		LastReceivedAt: m.LastReceivedAt.UTC(),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}
