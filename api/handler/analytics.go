package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/pkg/httpcontext"
	analyticsUC "github.com/synergysphere/backend/usecase/analytics"
)

type AnalyticsHandler struct {
	baseHandler
	uc *analyticsUC.UseCase
}

func NewAnalyticsHandler(uc *analyticsUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary Project analytics
// @Tags analytics
// @Router /api/v1/analytics/projects/{id} [get]
func (h *AnalyticsHandler) Project(ctx *fasthttp.RequestCtx) {
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

	report, err := h.uc.Project(stdCtx, identity, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}

// @Summary My analytics
// @Tags analytics
// @Router /api/v1/analytics/me [get]
func (h *AnalyticsHandler) Me(ctx *fasthttp.RequestCtx) {
	identity, ok := h.identity(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.Me(stdCtx, identity)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}

// @Summary Platform analytics
// @Tags analytics
// @Router /api/v1/analytics/platform [get]
func (h *AnalyticsHandler) Platform(ctx *fasthttp.RequestCtx) {
	if _, ok := h.identity(ctx); !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	stats, err := h.uc.Platform(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, stats)
}
