package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/pkg/httpcontext"
	projectUC "github.com/synergysphere/backend/usecase/project"
)

type ProjectHandler struct {
	baseHandler
	uc *projectUC.UseCase
}

func NewProjectHandler(uc *projectUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List my projects
// @Tags projects
// @Router /api/v1/projects [get]
func (h *ProjectHandler) List(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	projects, err := h.uc.List(stdCtx, identity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, projects)
}

// @Summary Create a project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) Create(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	var req transport.ProjectRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Create(stdCtx, identity, req.Name, req.Description)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, project)
}

// @Summary Get a project
// @Tags projects
// @Router /api/v1/projects/{id} [get]
func (h *ProjectHandler) Get(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Get(stdCtx, identity, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}

// @Summary Update a project
// @Tags projects
// @Router /api/v1/projects/{id} [put]
func (h *ProjectHandler) Update(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	var req transport.ProjectRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	project, err := h.uc.Update(stdCtx, identity, id, req.Name, req.Description)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, project)
}

// @Summary Delete a project
// @Tags projects
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) Delete(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing project id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Delete(stdCtx, identity, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

// @Summary Remove a project member
// @Tags projects
// @Router /api/v1/projects/{id}/members/{userId} [delete]
func (h *ProjectHandler) RemoveMember(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	projectID := routeParam(ctx, "id")
	userID := routeParam(ctx, "userId")
	if projectID == "" || userID == "" {
		h.respondInvalid(ctx, "missing project or user id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.RemoveMember(stdCtx, identity, projectID, userID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}
