package port

import "github.com/savorsave/savorsave/internal/core/domain"

// SessionContext identifies the caller of every ledger and state-machine
// operation. A guest session has no user id and maps onto the shared
// null-owner partition.
type SessionContext struct {
	UserID *uint64
	Guest  bool
}

// Owner returns the owner column value for this session, nil for guests.
func (s SessionContext) Owner() *uint64 {
	if s.Guest {
		return nil
	}
	return s.UserID
}

//go:generate mockgen -source=auth.go -destination=mock/auth.go -package=mock
type TokenService interface {
	CreateToken(user *domain.User) (string, error)
	CreateGuestToken() (string, error)
	VerifyToken(token string) (*SessionContext, error)
}
