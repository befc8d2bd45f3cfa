package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/tasknest/backend/api/transport"
	"github.com/tasknest/backend/domain"
	"github.com/tasknest/backend/internal/services"
	"github.com/tasknest/backend/pkg/httpcontext"
)

type ProjectHandler struct {
	baseHandler
	workspace *services.Workspace
}

func NewProjectHandler(workspace *services.Workspace, adapter *httpcontext.Adapter, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		baseHandler: newBaseHandler(adapter, logger),
		workspace:   workspace,
	}
}

// @Summary List projects
// @Tags projects
// @Router /api/v1/projects [get]
func (h *ProjectHandler) GetProjects(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.ProjectView(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, coord.List())
}

// @Summary Create project
// @Tags projects
// @Router /api/v1/projects [post]
func (h *ProjectHandler) CreateProject(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.ProjectCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.ProjectView(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	created, err := coord.Create(stdCtx, req.Name, req.Description)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Rename project
// @Tags projects
// @Router /api/v1/projects/{id} [put]
func (h *ProjectHandler) UpdateProject(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, _ := ctx.UserValue("id").(string)
	if projectID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing project id", nil))
		return
	}

	var req transport.ProjectUpdateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.ProjectView(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	updated, err := coord.Update(stdCtx, projectID, req.Name, req.Description)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete project
// @Tags projects
// @Router /api/v1/projects/{id} [delete]
func (h *ProjectHandler) DeleteProject(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, _ := ctx.UserValue("id").(string)
	if projectID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing project id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.ProjectView(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := coord.Delete(stdCtx, projectID); err != nil {
		h.respondError(ctx, err)
		return
	}

	// The project's task view, if mounted, is now watching a dead resource.
	h.workspace.ReleaseTaskView(projectID)
	ctx.SetStatusCode(http.StatusNoContent)
}
