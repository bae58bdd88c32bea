package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/pkg/httpcontext"
	invitationUC "github.com/synergysphere/backend/usecase/invitation"
)

type InvitationHandler struct {
	baseHandler
	uc *invitationUC.UseCase
}

func NewInvitationHandler(uc *invitationUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *InvitationHandler {
	return &InvitationHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Invite someone to a project
// @Tags invitations
// @Router /api/v1/projects/{id}/invitations [post]
func (h *InvitationHandler) Send(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	projectID := routeParam(ctx, "id")
	if projectID == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	var req transport.InviteRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Send(stdCtx, identity, projectID, req.Email, req.Role)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, inv)
}

// @Summary List a project's invitations
// @Tags invitations
// @Router /api/v1/projects/{id}/invitations [get]
func (h *InvitationHandler) ListForProject(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	projectID := routeParam(ctx, "id")
	if projectID == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, err := h.uc.ListForProject(stdCtx, identity, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invitations)
}

// @Summary List my pending invitations
// @Tags invitations
// @Router /api/v1/invitations [get]
func (h *InvitationHandler) ListMine(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	invitations, err := h.uc.ListMine(stdCtx, identity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, invitations)
}

// @Summary Accept an invitation
// @Tags invitations
// @Router /api/v1/invitations/accept [post]
func (h *InvitationHandler) Accept(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	var req transport.InvitationResponseRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Accept(stdCtx, identity, req.Token)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, inv)
}

// @Summary Decline an invitation
// @Tags invitations
// @Router /api/v1/invitations/decline [post]
func (h *InvitationHandler) Decline(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}

	var req transport.InvitationResponseRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	inv, err := h.uc.Decline(stdCtx, req.Token)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, inv)
}
