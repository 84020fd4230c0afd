package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

type ExpenseHandler struct {
	Handler
	service port.Service
}

func NewExpenseHandler(service port.Service, logger *zap.Logger) (*ExpenseHandler, error) {
	return &ExpenseHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type splitShareBody struct {
	Person string  `json:"person" binding:"required"`
	Amount float64 `json:"amount" binding:"required"`
}

type expenseRequest struct {
	Description string  `json:"description" binding:"required"`
	Amount      float64 `json:"amount" binding:"required"`
	Category    string  `json:"category"`
	MealType    string  `json:"meal_type"`
	Date        string  `json:"date"`
	Cuisine     string  `json:"cuisine"`
	Restaurant  string  `json:"restaurant"`
	Notes       string  `json:"notes"`

	IsSplit          bool             `json:"is_split"`
	SplitPeopleCount int              `json:"split_people_count"`
	SplitMethod      string           `json:"split_method"`
	SplitShares      []splitShareBody `json:"split_shares"`
}

type expenseResponse struct {
	ID          string          `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	MealType    string          `json:"meal_type"`
	Date        time.Time       `json:"date"`
	Cuisine     string          `json:"cuisine,omitempty"`
	Restaurant  string          `json:"restaurant,omitempty"`
	Notes       string          `json:"notes,omitempty"`

	Status          string `json:"status"`
	TransactionType string `json:"transaction_type"`

	IsSplit          bool                `json:"is_split,omitempty"`
	SplitTotal       decimal.Decimal     `json:"split_total"`
	SplitPeopleCount int                 `json:"split_people_count,omitempty"`
	SplitMethod      string              `json:"split_method,omitempty"`
	SplitShares      []domain.SplitShare `json:"split_shares,omitempty"`

	CancelledAt     *time.Time `json:"cancelled_at,omitempty"`
	CancelledReason string     `json:"cancelled_reason,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func toExpenseResponse(e *domain.FoodExpense) expenseResponse {
	return expenseResponse{
		ID:               e.ID,
		Description:      e.Description,
		Amount:           e.Amount,
		Category:         string(e.Category),
		MealType:         string(e.MealType),
		Date:             e.Date,
		Cuisine:          e.Cuisine,
		Restaurant:       e.Restaurant,
		Notes:            e.Notes,
		Status:           string(e.Status),
		TransactionType:  string(e.TransactionType),
		IsSplit:          e.IsSplit,
		SplitTotal:       e.SplitTotal,
		SplitPeopleCount: e.SplitPeopleCount,
		SplitMethod:      string(e.SplitMethod),
		SplitShares:      e.SplitShares,
		CancelledAt:      e.CancelledAt,
		CancelledReason:  e.CancelledReason,
		CreatedAt:        e.CreatedAt,
	}
}

func (eh *ExpenseHandler) AddExpense(ctx *gin.Context) {
	req := expenseRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		eh.handleValidationError(ctx, err)
		return
	}

	expense := &domain.FoodExpense{
		Description:      req.Description,
		Category:         domain.ExpenseCategory(req.Category),
		MealType:         domain.MealType(req.MealType),
		Cuisine:          req.Cuisine,
		Restaurant:       req.Restaurant,
		Notes:            req.Notes,
		IsSplit:          req.IsSplit,
		SplitPeopleCount: req.SplitPeopleCount,
		SplitMethod:      domain.SplitMethod(req.SplitMethod),
	}
	amount, err := decimal.NewFromFloat64(req.Amount)
	if err != nil {
		eh.handleValidationError(ctx, err)
		return
	}
	if req.IsSplit {
		expense.SplitTotal = amount
	} else {
		expense.Amount = amount
	}
	if req.Date != "" {
		expense.Date, err = time.Parse(time.RFC3339, req.Date)
		if err != nil {
			eh.handleValidationError(ctx, err)
			return
		}
	}
	for _, share := range req.SplitShares {
		amt, err := decimal.NewFromFloat64(share.Amount)
		if err != nil {
			eh.handleValidationError(ctx, err)
			return
		}
		expense.SplitShares = append(expense.SplitShares, domain.SplitShare{
			Person: share.Person,
			Amount: amt,
		})
	}

	created, err := eh.service.AddExpense(ctx, getSession(ctx), expense)
	if errors.Is(err, domain.ErrRemoteUnavailable) {
		// Saved locally, sync pending. The entry is usable and will reconcile.
		eh.handleSuccessWithStatus(ctx, toExpenseResponse(created), http.StatusAccepted)
		return
	}
	if err != nil {
		eh.handleError(ctx, err)
		return
	}
	eh.handleSuccessWithStatus(ctx, toExpenseResponse(created), http.StatusCreated)
}

type expenseUpdateRequest struct {
	Description *string  `json:"description"`
	Amount      *float64 `json:"amount"`
	Category    *string  `json:"category"`
	MealType    *string  `json:"meal_type"`
	Date        *string  `json:"date"`
	Cuisine     *string  `json:"cuisine"`
	Restaurant  *string  `json:"restaurant"`
	Notes       *string  `json:"notes"`
}

func (eh *ExpenseHandler) UpdateExpense(ctx *gin.Context) {
	req := expenseUpdateRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		eh.handleValidationError(ctx, err)
		return
	}

	upd := &port.ExpenseUpdate{
		Description: req.Description,
		Cuisine:     req.Cuisine,
		Restaurant:  req.Restaurant,
		Notes:       req.Notes,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromFloat64(*req.Amount)
		if err != nil {
			eh.handleValidationError(ctx, err)
			return
		}
		upd.Amount = &amount
	}
	if req.Category != nil {
		category := domain.ExpenseCategory(*req.Category)
		upd.Category = &category
	}
	if req.MealType != nil {
		meal := domain.MealType(*req.MealType)
		upd.MealType = &meal
	}
	if req.Date != nil {
		date, err := time.Parse(time.RFC3339, *req.Date)
		if err != nil {
			eh.handleValidationError(ctx, err)
			return
		}
		upd.Date = &date
	}

	updated, err := eh.service.UpdateExpense(ctx, getSession(ctx), ctx.Param("id"), upd)
	if errors.Is(err, domain.ErrRemoteUnavailable) {
		eh.handleSuccessWithStatus(ctx, toExpenseResponse(updated), http.StatusAccepted)
		return
	}
	if err != nil {
		eh.handleError(ctx, err)
		return
	}
	eh.handleSuccess(ctx, toExpenseResponse(updated))
}

func (eh *ExpenseHandler) CancelExpense(ctx *gin.Context) {
	req := cancelRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		eh.handleValidationError(ctx, err)
		return
	}

	cancelled, err := eh.service.CancelExpense(ctx, getSession(ctx), ctx.Param("id"), req.Reason)
	if err != nil {
		eh.handleError(ctx, err)
		return
	}
	if !cancelled {
		eh.handleError(ctx, domain.ErrExpenseNotPending)
		return
	}
	eh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}

func (eh *ExpenseHandler) DeleteExpense(ctx *gin.Context) {
	if err := eh.service.DeleteExpense(ctx, getSession(ctx), ctx.Param("id")); err != nil {
		eh.handleError(ctx, err)
		return
	}
	eh.handleSuccessWithStatus(ctx, nil, http.StatusNoContent)
}

type summaryResponse struct {
	Today      decimal.Decimal            `json:"today"`
	Week       decimal.Decimal            `json:"week"`
	Month      decimal.Decimal            `json:"month"`
	ByCategory map[string]decimal.Decimal `json:"by_category"`
	ByCuisine  map[string]decimal.Decimal `json:"by_cuisine"`
	ByMealType map[string]decimal.Decimal `json:"by_meal_type"`
	Recent     []expenseResponse          `json:"recent"`
}

func (eh *ExpenseHandler) ExpenseSummary(ctx *gin.Context) {
	summary, err := eh.service.ExpenseSummary(ctx, getSession(ctx))
	if err != nil {
		eh.handleError(ctx, err)
		return
	}

	resp := summaryResponse{
		Today:      summary.Today,
		Week:       summary.Week,
		Month:      summary.Month,
		ByCategory: summary.ByCategory,
		ByCuisine:  summary.ByCuisine,
		ByMealType: summary.ByMealType,
		Recent:     make([]expenseResponse, 0, len(summary.Recent)),
	}
	for _, e := range summary.Recent {
		resp.Recent = append(resp.Recent, toExpenseResponse(e))
	}
	eh.handleSuccess(ctx, resp)
}
