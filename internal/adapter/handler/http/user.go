package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
	"go.uber.org/zap"
)

type UserHandler struct {
	Handler
	service port.Service
}

func NewUserHandler(service port.Service, logger *zap.Logger) (*UserHandler, error) {
	return &UserHandler{
		Handler: *NewHandler(logger),
		service: service,
	}, nil
}

type userRequest struct {
	Login    string `json:"login" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (uh *UserHandler) RegisterUser(ctx *gin.Context) {
	req := userRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		uh.handleValidationError(ctx, err)
		return
	}

	user := &domain.User{Login: req.Login, Password: req.Password}
	if _, err := uh.service.RegisterUser(ctx, user); err != nil {
		uh.handleError(ctx, err)
		return
	}

	token, err := uh.service.LoginUser(ctx, req.Login, req.Password)
	if err != nil {
		uh.handleError(ctx, err)
		return
	}
	ctx.Header("Authorization", authType+" "+token)
	uh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}

func (uh *UserHandler) LoginUser(ctx *gin.Context) {
	req := userRequest{}
	if err := ctx.ShouldBindBodyWithJSON(&req); err != nil {
		uh.handleValidationError(ctx, err)
		return
	}

	token, err := uh.service.LoginUser(ctx, req.Login, req.Password)
	if err != nil {
		uh.handleError(ctx, err)
		return
	}
	ctx.Header("Authorization", authType+" "+token)
	uh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}

// GuestSession opens the shared anonymous session used for guest checkout.
func (uh *UserHandler) GuestSession(ctx *gin.Context) {
	token, err := uh.service.GuestSession(ctx)
	if err != nil {
		uh.handleError(ctx, err)
		return
	}
	ctx.Header("Authorization", authType+" "+token)
	uh.handleSuccessWithStatus(ctx, nil, http.StatusOK)
}
