package service

import (
	"context"
	"errors"
	"sync"

	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/ledger"
	"github.com/savorsave/savorsave/internal/core/port"
	"github.com/savorsave/savorsave/internal/core/utils"
	"go.uber.org/zap"
)

type Service struct {
	repo           port.Repository
	tokenService   port.TokenService
	payment        port.PaymentClient
	notifier       port.Notifier
	ledger         *ledger.Manager
	logger         *zap.Logger
	transitionMode domain.TransitionMode
	allowGuest     bool

	pendingMu sync.Mutex
	pending   map[string]*pendingCheckout
}

func NewService(repo port.Repository, tokenService port.TokenService,
	payment port.PaymentClient, notifier port.Notifier, ledgerManager *ledger.Manager,
	transitionMode domain.TransitionMode, allowGuest bool, logger *zap.Logger) (*Service, error) {
	return &Service{
		repo:           repo,
		tokenService:   tokenService,
		payment:        payment,
		notifier:       notifier,
		ledger:         ledgerManager,
		logger:         logger,
		transitionMode: transitionMode,
		allowGuest:     allowGuest,
		pending:        make(map[string]*pendingCheckout),
	}, nil
}

func (s *Service) RegisterUser(ctx context.Context, user *domain.User) (*domain.User, error) {
	exUser, err := s.repo.GetUserByLogin(ctx, user.Login)
	if err != nil && !errors.Is(err, domain.ErrDataNotFound) {
		s.logger.Error("Get user", zap.Error(err))
		return nil, domain.ErrInternal
	}
	if exUser != nil {
		return nil, domain.ErrConflictingData
	}

	hashed, err := utils.HashPassword(user.Password)
	if err != nil {
		s.logger.Error("Hash password", zap.Error(err))
		return nil, domain.ErrInternal
	}
	user.Password = hashed

	newUser, err := s.repo.CreateUser(ctx, user)
	if err != nil {
		s.logger.Error("Create user", zap.Error(err))
		return nil, domain.ErrInternal
	}
	return newUser, nil
}

func (s *Service) LoginUser(ctx context.Context, login string, password string) (string, error) {
	user, err := s.repo.GetUserByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domain.ErrDataNotFound) {
			return "", domain.ErrInvalidCredentials
		}
		return "", domain.ErrInternal
	}

	if err := utils.ComparePassword(password, user.Password); err != nil {
		return "", domain.ErrInvalidCredentials
	}

	token, err := s.tokenService.CreateToken(user)
	if err != nil {
		s.logger.Error("Create token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}
	return token, nil
}

// GuestSession issues a token for the shared anonymous partition. All guests
// land in the same null-owner bucket; that is the documented trade-off of
// supporting guest checkout.
func (s *Service) GuestSession(ctx context.Context) (string, error) {
	if !s.allowGuest {
		return "", domain.ErrGuestDisabled
	}
	token, err := s.tokenService.CreateGuestToken()
	if err != nil {
		s.logger.Error("Create guest token", zap.Error(err))
		return "", domain.ErrTokenCreation
	}
	return token, nil
}

func (s *Service) session(ctx context.Context, session port.SessionContext) (*ledger.Session, error) {
	return s.ledger.Session(ctx, session.Owner())
}
