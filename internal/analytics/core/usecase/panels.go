package usecase

import (
	"context"

	"webhook-analytics-service/internal/analytics/core/domain"
)

// Panel is a preset query shape used by a dashboard widget.
type Panel struct {
	Type    domain.MetricType
	GroupBy domain.GroupBy
}

var panels = map[string]Panel{
	"overview":  {Type: domain.TypeSocial, GroupBy: domain.GroupByNone},
	"platforms": {Type: domain.TypeSocial, GroupBy: domain.GroupByPlatform},
	"content":   {Type: domain.TypeContent, GroupBy: domain.GroupByPeriod},
	"ai_agents": {Type: domain.TypeAIAgent, GroupBy: domain.GroupByNone},
	"roi":       {Type: domain.TypeBusiness, GroupBy: domain.GroupByPeriod},
}

// LookupPanel returns the preset registered under name.
func LookupPanel(name string) (Panel, bool) {
	p, ok := panels[name]
	return p, ok
}

// ExecutePanel runs the preset query for a dashboard panel. Type and
// GroupBy of in are overridden by the preset.
func (uc *QueryRollupUseCase) ExecutePanel(ctx context.Context, panel string, in QueryRollupInput) (*domain.RollupResult, error) {
	p, ok := LookupPanel(panel)
	if !ok {
		return nil, ErrInvalidPanel
	}
	in.Type = string(p.Type)
	in.GroupBy = string(p.GroupBy)
	return uc.Execute(ctx, in)
}
