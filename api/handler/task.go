package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/pkg/httpcontext"
	"github.com/synergysphere/backend/repository"
	taskUC "github.com/synergysphere/backend/usecase/task"
)

type TaskHandler struct {
	baseHandler
	uc *taskUC.UseCase
}

func NewTaskHandler(uc *taskUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List tasks
// @Tags tasks
// @Router /api/v1/tasks [get]
func (h *TaskHandler) List(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	filter := repository.TaskFilter{
		ProjectID:  string(ctx.QueryArgs().Peek("project_id")),
		AssigneeID: string(ctx.QueryArgs().Peek("assignee_id")),
		Status:     string(ctx.QueryArgs().Peek("status")),
		Page:       queryInt(ctx, "page", 1),
		Limit:      queryInt(ctx, "limit", 50),
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, total, err := h.uc.List(stdCtx, identity, filter)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, tasks, filter.Page, filter.Limit, total)
}

// @Summary List my assigned tasks
// @Tags tasks
// @Router /api/v1/tasks/my-tasks [get]
func (h *TaskHandler) Mine(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	page := queryInt(ctx, "page", 1)
	limit := queryInt(ctx, "limit", 50)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	tasks, total, err := h.uc.Mine(stdCtx, identity, page, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondPage(ctx, tasks, page, limit, total)
}

// @Summary Create a task
// @Tags tasks
// @Router /api/v1/tasks [post]
func (h *TaskHandler) Create(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	var req transport.TaskCreateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, identity, taskUC.CreateInput{
		ProjectID:      req.ProjectID,
		Title:          req.Title,
		Description:    req.Description,
		AssigneeID:     req.AssigneeID,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
		Dependencies:   req.Dependencies,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [get]
func (h *TaskHandler) Get(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	task, err := h.uc.Get(stdCtx, identity, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, task)
}

// @Summary Update a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [put]
func (h *TaskHandler) Update(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
		return
	}

	var req transport.TaskUpdateRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, identity, id, repository.TaskPatch{
		Title:          req.Title,
		Description:    req.Description,
		AssigneeID:     req.AssigneeID,
		Status:         req.Status,
		Priority:       req.Priority,
		DueDate:        req.DueDate,
		Tags:           req.Tags,
		EstimatedHours: req.EstimatedHours,
		ActualHours:    req.ActualHours,
		Dependencies:   req.Dependencies,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete a task
// @Tags tasks
// @Router /api/v1/tasks/{id} [delete]
func (h *TaskHandler) Delete(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
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

// @Summary Comment on a task
// @Tags tasks
// @Router /api/v1/tasks/{id}/comments [post]
func (h *TaskHandler) AddComment(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}
	id := routeParam(ctx, "id")
	if id == "" {
		h.respondInvalid(ctx, "missing task id")
		return
	}

	var req transport.CommentRequest
	if !h.decode(ctx, &req) {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	comment, err := h.uc.AddComment(stdCtx, identity, id, req.Content)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, comment)
}
