package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/internal/infrastructure/monitor"
	"github.com/tasknest/backend/internal/services"
	"github.com/tasknest/backend/pkg/httpcontext"
)

type HealthHandler struct {
	baseHandler
	monitor   *monitor.Monitor
	workspace *services.Workspace
}

func NewHealthHandler(mon *monitor.Monitor, workspace *services.Workspace, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		monitor:     mon,
		workspace:   workspace,
	}
}

type healthResponse struct {
	Status       monitor.Status `json:"status"`
	Online       bool           `json:"online"`
	TaskViews    int            `json:"task_views"`
	ProjectViews int            `json:"project_views"`
}

// @Summary Service health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	resp := healthResponse{}
	if h.monitor != nil {
		resp.Status = h.monitor.GetStatus()
		resp.Online = h.monitor.IsOnline()
	}
	if h.workspace != nil {
		resp.TaskViews, resp.ProjectViews = h.workspace.ActiveViews()
	}

	status := http.StatusOK
	if !resp.Online {
		status = http.StatusServiceUnavailable
	}
	h.respondSuccess(ctx, status, resp)
}
