package auth

import (
	"time"

	"aidanwoods.dev/go-paseto"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
)

type PasetoToken struct {
	parser *paseto.Parser
	key    *paseto.V4SymmetricKey
}

func New() (port.TokenService, error) {
	parser := paseto.NewParser()
	key := paseto.NewV4SymmetricKey()

	s := PasetoToken{
		parser: &parser,
		key:    &key,
	}

	return &s, nil
}

func (p *PasetoToken) CreateToken(user *domain.User) (string, error) {
	token := paseto.NewToken()
	token.SetExpiration(time.Now().Add(1000 * time.Hour))

	payload := port.SessionContext{UserID: &user.ID}
	if err := token.Set("payload", payload); err != nil {
		return "", domain.ErrTokenCreation
	}

	return token.V4Encrypt(*p.key, nil), nil
}

func (p *PasetoToken) CreateGuestToken() (string, error) {
	token := paseto.NewToken()
	token.SetExpiration(time.Now().Add(24 * time.Hour))

	payload := port.SessionContext{Guest: true}
	if err := token.Set("payload", payload); err != nil {
		return "", domain.ErrTokenCreation
	}

	return token.V4Encrypt(*p.key, nil), nil
}

func (p *PasetoToken) VerifyToken(token string) (*port.SessionContext, error) {
	parsedToken, err := p.parser.ParseV4Local(*p.key, token, nil)
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	payload := port.SessionContext{}
	if err := parsedToken.Get("payload", &payload); err != nil {
		return nil, domain.ErrInvalidToken
	}
	return &payload, nil
}
