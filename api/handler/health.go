package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/synergysphere/backend/api/transport"
	"github.com/synergysphere/backend/internal/infrastructure/monitor"
	"github.com/synergysphere/backend/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor *monitor.Monitor
}

func NewHealthHandler(mon *monitor.Monitor, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
	}
}

type healthReport struct {
	PostgreSQL bool              `json:"postgresql"`
	Redis      bool              `json:"redis"`
	Outbox     healthOutboxState `json:"outbox"`
	LastCheck  string            `json:"last_check"`
}

type healthOutboxState struct {
	Online bool `json:"online"`
	Size   int  `json:"size"`
}

// Check reports dependency liveness. Postgres and redis are required;
// the outbox state is informational and never degrades the result.
// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	status := h.monitor.GetStatus()
	report := healthReport{
		PostgreSQL: status.PostgreSQL,
		Redis:      status.Redis,
		Outbox: healthOutboxState{
			Online: status.Outbox,
			Size:   status.OutboxSize,
		},
		LastCheck: status.LastCheck.UTC().Format(time.RFC3339),
	}

	if !h.monitor.IsOnline() {
		h.respondJSON(ctx, http.StatusServiceUnavailable,
			transport.NewError("DEGRADED", "dependencies unhealthy", report))
		return
	}
	h.respondSuccess(ctx, http.StatusOK, report)
}
