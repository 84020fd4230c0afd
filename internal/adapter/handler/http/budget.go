package http

import (
	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

type BudgetHandler struct {
	Handler
	service port.Service
}

func NewBudgetHandler(service port.Service, logger *zap.Logger) (*BudgetHandler, error) {
	return &BudgetHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type budgetUsageResponse struct {
	Period      string          `json:"period"`
	TotalSpent  decimal.Decimal `json:"total_spent"`
	Limit       decimal.Decimal `json:"limit"`
	PercentUsed decimal.Decimal `json:"percent_used"`
	Remaining   decimal.Decimal `json:"remaining"`
	ShouldAlert bool            `json:"should_alert"`
	Exceeded    bool            `json:"exceeded"`
}

func (bh *BudgetHandler) BudgetUsage(ctx *gin.Context) {
	period := domain.BudgetPeriod(ctx.DefaultQuery("period", string(domain.BudgetPeriodMonthly)))

	usage, err := bh.service.BudgetUsage(ctx, getSession(ctx), period)
	if err != nil {
		bh.handleError(ctx, err)
		return
	}
	bh.handleSuccess(ctx, budgetUsageResponse{
		Period:      string(period),
		TotalSpent:  usage.TotalSpent,
		Limit:       usage.Limit,
		PercentUsed: usage.PercentUsed,
		Remaining:   usage.Remaining,
		ShouldAlert: usage.ShouldAlert,
		Exceeded:    usage.Exceeded(),
	})
}

type budgetRequest struct {
	Period         string  `json:"period" binding:"required"`
	Limit          float64 `json:"limit" binding:"required"`
	AlertThreshold float64 `json:"alert_threshold"`
	Enabled        *bool   `json:"enabled"`
}

type budgetResponse struct {
	Period         string          `json:"period"`
	Limit          decimal.Decimal `json:"limit"`
	AlertThreshold decimal.Decimal `json:"alert_threshold"`
	Enabled        bool            `json:"enabled"`
}

func (bh *BudgetHandler) SetBudget(ctx *gin.Context) {
	req := budgetRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		bh.handleValidationError(ctx, err)
		return
	}

	budget := &domain.Budget{
		Period:  domain.BudgetPeriod(req.Period),
		Enabled: true,
	}
	if req.Enabled != nil {
		budget.Enabled = *req.Enabled
	}
	var err error
	if budget.Limit, err = decimal.NewFromFloat64(req.Limit); err != nil {
		bh.handleValidationError(ctx, err)
		return
	}
	if budget.AlertThreshold, err = decimal.NewFromFloat64(req.AlertThreshold); err != nil {
		bh.handleValidationError(ctx, err)
		return
	}

	saved, err := bh.service.SetBudget(ctx, getSession(ctx), budget)
	if err != nil {
		bh.handleError(ctx, err)
		return
	}
	bh.handleSuccess(ctx, budgetResponse{
		Period:         string(saved.Period),
		Limit:          saved.Limit,
		AlertThreshold: saved.AlertThreshold,
		Enabled:        saved.Enabled,
	})
}

type preCheckRequest struct {
	Amount float64 `json:"amount" binding:"required"`
	Period string  `json:"period"`
}

type preCheckResponse struct {
	Allowed      bool            `json:"allowed"`
	PercentAfter decimal.Decimal `json:"percent_after"`
}

func (bh *BudgetHandler) PreCheckExpense(ctx *gin.Context) {
	req := preCheckRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		bh.handleValidationError(ctx, err)
		return
	}
	if req.Period == "" {
		req.Period = string(domain.BudgetPeriodMonthly)
	}

	amount, err := decimal.NewFromFloat64(req.Amount)
	if err != nil {
		bh.handleValidationError(ctx, err)
		return
	}

	result, err := bh.service.PreCheckExpense(ctx, getSession(ctx), amount, domain.BudgetPeriod(req.Period))
	if err != nil {
		bh.handleError(ctx, err)
		return
	}
	bh.handleSuccess(ctx, preCheckResponse{
		Allowed:      result.Allowed,
		PercentAfter: result.PercentAfter,
	})
}
