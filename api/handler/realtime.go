package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/fasthttp/websocket"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/domain"
	"github.com/synergysphere/backend/internal/realtime"
	"github.com/synergysphere/backend/pkg/httpcontext"
	"github.com/synergysphere/backend/pkg/token"
	"github.com/synergysphere/backend/repository"
)

type RealtimeHandler struct {
	baseHandler
	hub      *realtime.Hub
	tokens   *token.Service
	users    repository.UserRepository
	projects repository.ProjectRepository
	upgrader websocket.FastHTTPUpgrader
}

func NewRealtimeHandler(
	hub *realtime.Hub,
	tokens *token.Service,
	users repository.UserRepository,
	projects repository.ProjectRepository,
	allowedOrigin string,
	adapter *httpcontext.Adapter,
	logger *zap.Logger,
) *RealtimeHandler {
	return &RealtimeHandler{
		baseHandler: newBaseHandler(adapter, logger),
		hub:         hub,
		tokens:      tokens,
		users:       users,
		projects:    projects,
		upgrader: websocket.FastHTTPUpgrader{
			CheckOrigin: func(ctx *fasthttp.RequestCtx) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				origin := string(ctx.Request.Header.Peek("Origin"))
				return origin == "" || origin == allowedOrigin
			},
		},
	}
}

// @Summary Realtime notification channel
// @Tags realtime
// @Router /ws [get]
func (h *RealtimeHandler) Connect(ctx *fasthttp.RequestCtx) {
	user, err := h.authenticate(ctx)
	if err != nil {
		h.respondJSON(ctx, http.StatusUnauthorized,
			transport.NewError(string(domain.ErrCodeUnauthorized), "unauthorized", nil))
		return
	}

	userID := user.ID
	err = h.upgrader.Upgrade(ctx, func(conn *websocket.Conn) {
		h.hub.Serve(context.Background(), conn, userID, func(joinCtx context.Context, projectID string) bool {
			project, err := h.projects.GetByID(joinCtx, projectID)
			return err == nil && project.HasMember(userID)
		})
	})
	if err != nil {
		h.logger.Debug("websocket upgrade failed", zap.Error(err))
	}
}

// authenticate accepts the bearer token from the Authorization header or,
// because browser websocket clients cannot set headers, a token query
// parameter.
func (h *RealtimeHandler) authenticate(ctx *fasthttp.RequestCtx) (*domain.User, error) {
	raw := string(ctx.QueryArgs().Peek("token"))
	if raw == "" {
		header := string(ctx.Request.Header.Peek("Authorization"))
		raw = strings.TrimPrefix(header, "Bearer ")
	}
	if raw == "" {
		return nil, domain.ErrUnauthorized
	}

	claims, err := h.tokens.Verify(raw)
	if err != nil {
		return nil, err
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	user, err := h.users.GetByID(stdCtx, claims.SubjectID)
	if err != nil {
		return nil, err
	}
	if !user.Active() {
		return nil, domain.ErrUnauthorized
	}
	return user, nil
}
