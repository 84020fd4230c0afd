package http

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/savorsave/savorsave/internal/core/domain"
	"github.com/savorsave/savorsave/internal/core/port"
)

const authHeaderKey = "Authorization"
const authType = "Bearer"
const sessionPayloadKey = "session_payload"

func authCheck(tokenService port.TokenService) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		header := ctx.Request.Header.Get(authHeaderKey)
		if len(header) == 0 {
			abortUnauthorized(ctx, domain.ErrEmptyAuthorizationHeader)
			return
		}

		words := strings.Split(header, " ")
		if len(words) != 2 {
			abortUnauthorized(ctx, domain.ErrInvalidAuthorizationHeader)
			return
		}
		if words[0] != authType {
			abortUnauthorized(ctx, domain.ErrInvalidAuthorizationType)
			return
		}
		token := words[1]
		payload, err := tokenService.VerifyToken(token)
		if err != nil {
			abortUnauthorized(ctx, domain.ErrInvalidToken)
			return
		}

		ctx.Set(sessionPayloadKey, payload)

		ctx.Next()
	}
}

func abortUnauthorized(ctx *gin.Context, err error) {
	statusCode, ok := errorStatusMap[err]
	if !ok {
		statusCode = 500
	}
	ctx.AbortWithError(statusCode, err)
}

func getSession(ctx *gin.Context) port.SessionContext {
	return *ctx.MustGet(sessionPayloadKey).(*port.SessionContext)
}
