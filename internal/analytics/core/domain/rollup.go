package domain

import "time"

type GroupBy string

const (
	GroupByNone     GroupBy = ""
	GroupByPlatform GroupBy = "platform"
	GroupByPeriod   GroupBy = "period"
)

// AggregateRow is one dashboard row computed from stored buckets.
type AggregateRow struct {
	Key     string `json:"key"`
	Buckets int    `json:"buckets"`

	Content         ContentMetrics    `json:"content"`
	Engagement      EngagementMetrics `json:"engagement"`
	TotalEngagement int64             `json:"total_engagement"`
	TotalReach      int64             `json:"total_reach"`
	Impressions     int64             `json:"impressions"`
	Posts           int64             `json:"posts"`
	AIAgent         AIAgentMetrics    `json:"ai_agent"`
	Business        BusinessMetrics   `json:"business"`

	EngagementRate float64 `json:"engagement_rate"`

	AvgEngagementPerBucket float64 `json:"avg_engagement_per_bucket"`
	AvgResponseTimeMs      float64 `json:"avg_response_time_ms"`

	LastBucketStart    *time.Time `json:"last_bucket_start,omitempty"`
	LastEngagementRate float64    `json:"last_engagement_rate"`
}

// RollupResult is the answer to a rollup query.
type RollupResult struct {
	TenantID    string         `json:"tenant_id"`
	Type        MetricType     `json:"type"`
	Granularity Period         `json:"granularity"`
	From        time.Time      `json:"from"`
	To          time.Time      `json:"to"`
	GroupBy     GroupBy        `json:"group_by,omitempty"`
	Rows        []AggregateRow `json:"rows"`
}
