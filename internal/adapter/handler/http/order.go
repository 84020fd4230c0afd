package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/govalues/decimal"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

type OrderHandler struct {
	Handler
	service port.Service
}

func NewOrderHandler(service port.Service, logger *zap.Logger) (*OrderHandler, error) {
	return &OrderHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type checkoutItem struct {
	Name      string  `json:"name" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required"`
	UnitPrice float64 `json:"unit_price" binding:"required"`
}

type checkoutRequest struct {
	RestaurantID   string         `json:"restaurant_id"`
	RestaurantName string         `json:"restaurant_name" binding:"required"`
	Items          []checkoutItem `json:"items" binding:"required"`
	DeliveryType   string         `json:"delivery_type"`
	DeliveryFee    float64        `json:"delivery_fee"`
	Tax            float64        `json:"tax"`
	Discount       float64        `json:"discount"`
	PaymentMethod  string         `json:"payment_method"`
	Category       string         `json:"category"`
	MealType       string         `json:"meal_type"`
}

type checkoutResponse struct {
	CheckoutID string `json:"checkout_id"`
}

func (oh *OrderHandler) Checkout(ctx *gin.Context) {
	req := checkoutRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	draft := &port.CheckoutDraft{
		RestaurantID:   req.RestaurantID,
		RestaurantName: req.RestaurantName,
		DeliveryType:   domain.DeliveryType(req.DeliveryType),
		PaymentMethod:  req.PaymentMethod,
		Category:       domain.ExpenseCategory(req.Category),
		MealType:       domain.MealType(req.MealType),
	}
	var err error
	if draft.DeliveryFee, err = decimal.NewFromFloat64(req.DeliveryFee); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	if draft.Tax, err = decimal.NewFromFloat64(req.Tax); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	if draft.Discount, err = decimal.NewFromFloat64(req.Discount); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}
	for _, item := range req.Items {
		price, err := decimal.NewFromFloat64(item.UnitPrice)
		if err != nil {
			oh.handleValidationError(ctx, err)
			return
		}
		draft.Items = append(draft.Items, domain.OrderItem{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: price,
		})
	}

	checkoutID, err := oh.service.Checkout(ctx, getSession(ctx), draft)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccessWithStatus(ctx, checkoutResponse{CheckoutID: checkoutID}, http.StatusAccepted)
}

type orderResponse struct {
	Number         string          `json:"number"`
	RestaurantName string          `json:"restaurant_name"`
	Status         string          `json:"status"`
	DeliveryType   string          `json:"delivery_type"`
	Total          decimal.Decimal `json:"total"`
	Rating         int             `json:"rating,omitempty"`
	PlacedAt       *time.Time      `json:"placed_at,omitempty"`
	DeliveredAt    *time.Time      `json:"delivered_at,omitempty"`
	CancelledAt    *time.Time      `json:"cancelled_at,omitempty"`
}

func toOrderResponse(o *domain.Order) orderResponse {
	return orderResponse{
		Number:         o.Number,
		RestaurantName: o.RestaurantName,
		Status:         string(o.Status),
		DeliveryType:   string(o.DeliveryType),
		Total:          o.Total,
		Rating:         o.Rating,
		PlacedAt:       o.PlacedAt,
		DeliveredAt:    o.DeliveredAt,
		CancelledAt:    o.CancelledAt,
	}
}

func (oh *OrderHandler) ListOrders(ctx *gin.Context) {
	list, err := oh.service.ListOrders(ctx, getSession(ctx))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	result := make([]orderResponse, 0, len(list))
	for _, o := range list {
		result = append(result, toOrderResponse(o))
	}
	oh.handleSuccess(ctx, result)
}

type historyResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type trackingResponse struct {
	Order            orderResponse     `json:"order"`
	History          []historyResponse `json:"history"`
	Progress         float64           `json:"progress"`
	Frozen           bool              `json:"frozen"`
	CanCancel        bool              `json:"can_cancel"`
	CanRate          bool              `json:"can_rate"`
	EstimatedMinutes *int              `json:"estimated_minutes,omitempty"`
}

func (oh *OrderHandler) TrackOrder(ctx *gin.Context) {
	tracking, err := oh.service.TrackOrder(ctx, getSession(ctx), ctx.Param("number"))
	if err != nil {
		oh.handleError(ctx, err)
		return
	}

	resp := trackingResponse{
		Order:     toOrderResponse(tracking.Order),
		Progress:  tracking.State.ProgressPercent,
		Frozen:    tracking.State.Frozen,
		CanCancel: tracking.State.CanCancel,
		CanRate:   tracking.State.CanRate,
	}
	if tracking.State.HasEstimate {
		mins := tracking.State.EstimatedMinutes
		resp.EstimatedMinutes = &mins
	}
	for _, entry := range tracking.History {
		resp.History = append(resp.History, historyResponse{
			Status:    string(entry.Status),
			Message:   entry.Message,
			Location:  entry.Location,
			CreatedAt: entry.CreatedAt,
		})
	}
	oh.handleSuccess(ctx, resp)
}

type transitionRequest struct {
	Status   string `json:"status" binding:"required"`
	Message  string `json:"message"`
	Location string `json:"location"`
}

func (oh *OrderHandler) TransitionOrder(ctx *gin.Context) {
	req := transitionRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	found, err := oh.service.TransitionOrder(ctx, getSession(ctx), ctx.Param("number"),
		domain.OrderStatus(req.Status), req.Message, req.Location)
	if err != nil {
		oh.handleError(ctx, err)
		return
	}
	if !found {
		oh.handleError(ctx, domain.ErrDataNotFound)
		return
	}
	oh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

func (oh *OrderHandler) CancelOrder(ctx *gin.Context) {
	req := cancelRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	if err := oh.service.CancelOrder(ctx, getSession(ctx), ctx.Param("number"), req.Reason); err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}

type ratingRequest struct {
	Rating int    `json:"rating" binding:"required"`
	Review string `json:"review"`
}

func (oh *OrderHandler) RateOrder(ctx *gin.Context) {
	req := ratingRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		oh.handleValidationError(ctx, err)
		return
	}

	if err := oh.service.RateOrder(ctx, getSession(ctx), ctx.Param("number"), req.Rating, req.Review); err != nil {
		oh.handleError(ctx, err)
		return
	}
	oh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}
