package fiber

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"webhook-analytics-service/internal/analytics/core/domain"
	"webhook-analytics-service/internal/analytics/core/usecase"
)

type QueryRollupUseCase interface {
	Execute(ctx context.Context, in usecase.QueryRollupInput) (*domain.RollupResult, error)
	ExecutePanel(ctx context.Context, panel string, in usecase.QueryRollupInput) (*domain.RollupResult, error)
}

type AnalyticsHandler struct {
	uc QueryRollupUseCase
}

func NewAnalyticsHandler(uc QueryRollupUseCase) *AnalyticsHandler {
	return &AnalyticsHandler{uc: uc}
}

// GetRollup godoc
// @Summary Query tenant analytics
// @Description Aggregates stored metric buckets over a time range or a named period
// @Tags Analytics
// @Produce json
// @Param tenantId path string true "Tenant ID"
// @Param type query string true "Metric type: social | content | ai_agent | business"
// @Param from query int false "From unix timestamp (inclusive)"
// @Param to query int false "To unix timestamp (inclusive)"
// @Param period query string false "Named period: week | month | quarter | year"
// @Param granularity query string false "Bucket period: hourly | daily | weekly | monthly | yearly"
// @Param group_by query string false "Group by: platform | period"
// @Success 200 {object} RollupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics/{tenantId} [get]
func (h *AnalyticsHandler) GetRollup(c *fiber.Ctx) error {
	in, ok := h.parseInput(c)
	if !ok {
		return nil
	}
	in.Type = c.Query("type", "")
	in.GroupBy = c.Query("group_by", "")

	res, err := h.uc.Execute(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toRollupResponse(res))
}

// GetPanel godoc
// @Summary Query a dashboard panel
// @Description Runs a preset rollup: overview | platforms | content | ai_agents | roi
// @Tags Analytics
// @Produce json
// @Param tenantId path string true "Tenant ID"
// @Param panel path string true "Panel name"
// @Param from query int false "From unix timestamp (inclusive)"
// @Param to query int false "To unix timestamp (inclusive)"
// @Param period query string false "Named period: week | month | quarter | year"
// @Param granularity query string false "Bucket period"
// @Success 200 {object} RollupResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /analytics/{tenantId}/panels/{panel} [get]
func (h *AnalyticsHandler) GetPanel(c *fiber.Ctx) error {
	in, ok := h.parseInput(c)
	if !ok {
		return nil
	}

	res, err := h.uc.ExecutePanel(c.UserContext(), c.Params("panel"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusOK).JSON(toRollupResponse(res))
}

// parseInput reads the shared range parameters. It writes the 400
// response itself and reports false when a parameter is malformed.
func (h *AnalyticsHandler) parseInput(c *fiber.Ctx) (usecase.QueryRollupInput, bool) {
	in := usecase.QueryRollupInput{
		TenantID:    c.Params("tenantId"),
		Period:      c.Query("period", ""),
		Granularity: c.Query("granularity", ""),
	}

	if in.Period != "" {
		return in, true
	}

	fromStr := c.Query("from", "")
	toStr := c.Query("to", "")
	if fromStr == "" || toStr == "" {
		_ = c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "from and to are required unless period is set",
		})
		return in, false
	}

	from, err := strconv.ParseInt(fromStr, 10, 64)
	if err != nil {
		_ = c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "invalid 'from' parameter",
		})
		return in, false
	}
	to, err := strconv.ParseInt(toStr, 10, 64)
	if err != nil {
		_ = c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: "invalid 'to' parameter",
		})
		return in, false
	}
	in.From, in.To = from, to
	return in, true
}

func writeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, usecase.ErrInvalidPanel):
		return c.Status(http.StatusNotFound).JSON(ErrorResponse{
			Error:   "unknown_panel",
			Message: err.Error(),
		})
	case errors.Is(err, usecase.ErrInvalidQuery),
		errors.Is(err, usecase.ErrInvalidTimeRange),
		errors.Is(err, usecase.ErrInvalidGroupBy),
		errors.Is(err, usecase.ErrInvalidPeriod),
		errors.Is(err, usecase.ErrInvalidGranularity):
		return c.Status(http.StatusBadRequest).JSON(ErrorResponse{
			Error:   "invalid_query",
			Message: err.Error(),
		})
	default:
		return c.Status(http.StatusInternalServerError).JSON(ErrorResponse{
			Error: "internal_server_error",
		})
	}
}
