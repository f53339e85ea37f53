package fiber

import "webhook-analytics-service/internal/analytics/core/domain"

type ContentResponse struct {
	PostsPublished int64 `json:"posts_published"`
	PostsScheduled int64 `json:"posts_scheduled"`
	PostsFailed    int64 `json:"posts_failed"`
}

type EngagementResponse struct {
	Likes    int64 `json:"likes"`
	Comments int64 `json:"comments"`
	Shares   int64 `json:"shares"`
	Retweets int64 `json:"retweets"`
	Saves    int64 `json:"saves"`
	Clicks   int64 `json:"clicks"`
}

type AIAgentResponse struct {
	TasksCompleted    int64   `json:"tasks_completed"`
	TasksFailed       int64   `json:"tasks_failed"`
	ContentGenerated  int64   `json:"content_generated"`
	TokensUsed        int64   `json:"tokens_used"`
	SuccessRate       float64 `json:"success_rate"`
	AvgResponseTimeMs float64 `json:"avg_response_time_ms"`
}

type BusinessResponse struct {
	RevenueCents  int64   `json:"revenue_cents"`
	CostCents     int64   `json:"cost_cents"`
	Leads         int64   `json:"leads"`
	Conversions   int64   `json:"conversions"`
	CalculatedROI float64 `json:"calculated_roi"`
}

// RollupRowResponse is one aggregated dashboard row.
// @Description Aggregated metric row
type RollupRowResponse struct {
	Key                    string             `json:"key" example:"facebook"`
	Buckets                int                `json:"buckets"`
	Posts                  int64              `json:"posts"`
	Content                ContentResponse    `json:"content"`
	Engagement             EngagementResponse `json:"engagement"`
	TotalEngagement        int64              `json:"total_engagement"`
	TotalReach             int64              `json:"total_reach"`
	Impressions            int64              `json:"impressions"`
	EngagementRate         float64            `json:"engagement_rate"`
	AvgEngagementPerBucket float64            `json:"avg_engagement_per_bucket"`
	AIAgent                AIAgentResponse    `json:"ai_agent"`
	Business               BusinessResponse   `json:"business"`
	LastBucketStart        int64              `json:"last_bucket_start,omitempty"`
	LastEngagementRate     float64            `json:"last_engagement_rate"`
}

type RollupResponse struct {
	TenantID    string              `json:"tenant_id"`
	Type        string              `json:"type" example:"social"`
	Granularity string              `json:"granularity" example:"daily"`
	From        int64               `json:"from"`
	To          int64               `json:"to"`
	GroupBy     string              `json:"group_by,omitempty"`
	Rows        []RollupRowResponse `json:"rows"`
}

type ErrorResponse struct {
	Error   string `json:"error" example:"invalid_query"`
	Message string `json:"message,omitempty" example:"invalid time range"`
}

func toRollupResponse(res *domain.RollupResult) RollupResponse {
	resp := RollupResponse{
		TenantID:    res.TenantID,
		Type:        string(res.Type),
		Granularity: string(res.Granularity),
		From:        res.From.Unix(),
		To:          res.To.Unix(),
		GroupBy:     string(res.GroupBy),
		Rows:        make([]RollupRowResponse, 0, len(res.Rows)),
	}
	for _, r := range res.Rows {
		row := RollupRowResponse{
			Key:                    r.Key,
			Buckets:                r.Buckets,
			Posts:                  r.Posts,
			Content:                ContentResponse(r.Content),
			Engagement:             EngagementResponse(r.Engagement),
			TotalEngagement:        r.TotalEngagement,
			TotalReach:             r.TotalReach,
			Impressions:            r.Impressions,
			EngagementRate:         r.EngagementRate,
			AvgEngagementPerBucket: r.AvgEngagementPerBucket,
			AIAgent: AIAgentResponse{
				TasksCompleted:    r.AIAgent.TasksCompleted,
				TasksFailed:       r.AIAgent.TasksFailed,
				ContentGenerated:  r.AIAgent.ContentGenerated,
				TokensUsed:        r.AIAgent.TokensUsed,
				SuccessRate:       r.AIAgent.SuccessRate,
				AvgResponseTimeMs: r.AvgResponseTimeMs,
			},
			Business:           BusinessResponse(r.Business),
			LastEngagementRate: r.LastEngagementRate,
		}
		if r.LastBucketStart != nil {
			row.LastBucketStart = r.LastBucketStart.Unix()
		}
		resp.Rows = append(resp.Rows, row)
	}
	return resp
}
