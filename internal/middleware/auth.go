package middleware

import (
	"encoding/json"
	"strings"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/pkg/token"
	"github.com/synergysphere/backend/repository"
)

// IdentityKey is the request-scoped key under which the authenticated
// identity is stored.
const IdentityKey = "auth.identity"

// IdentityFrom retrieves the authenticated identity set by Auth.
func IdentityFrom(ctx *fasthttp.RequestCtx) (domain.Identity, bool) {
	id, ok := ctx.UserValue(IdentityKey).(domain.Identity)
	return id, ok
}

// Auth verifies the bearer token, loads the account and attaches its
// identity to the request. Unknown and deactivated accounts are rejected
// even when the signature still checks out.
func Auth(tokens *token.Service, users repository.UserRepository, logger *zap.Logger) func(fasthttp.RequestHandler) fasthttp.RequestHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next fasthttp.RequestHandler) fasthttp.RequestHandler {
		return func(ctx *fasthttp.RequestCtx) {
			tokenString := extractToken(ctx)
			if tokenString == "" {
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				logger.Debug("rejected bearer token", zap.Error(err))
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			user, err := users.GetByID(ctx, claims.SubjectID)
			if err != nil || !user.Active() {
				reject(ctx, fasthttp.StatusUnauthorized, domain.ErrUnauthorized)
				return
			}

			ctx.SetUserValue(IdentityKey, user.Identity())
			next(ctx)
		}
	}
}

// RequireConfirmedEmail blocks write-capable routes for accounts that
// never confirmed their address. It must run after Auth.
func RequireConfirmedEmail(next fasthttp.RequestHandler) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		identity, ok := IdentityFrom(ctx)
		if !ok {
			reject(ctx, fasthttp.StatusUnauthorized, domain.ErrUnauthorized)
			return
		}
		if !identity.IsEmailConfirmed {
			reject(ctx, fasthttp.StatusForbidden, domain.ErrEmailNotConfirmed)
			return
		}
		next(ctx)
	}
}

func reject(ctx *fasthttp.RequestCtx, status int, err *domain.Error) {
	ctx.Response.Header.SetContentType("application/json")
	ctx.SetStatusCode(status)
	body, _ := json.Marshal(transport.NewError(string(err.Code), err.Message, nil))
	ctx.SetBody(body)
}

func extractToken(ctx *fasthttp.RequestCtx) string {
	header := string(ctx.Request.Header.Peek("Authorization"))
	if header == "" {
		return ""
	}
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return header
}
