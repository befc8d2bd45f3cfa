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

type TaskHandler struct {
	baseHandler
	workspace *services.Workspace
}

func NewTaskHandler(workspace *services.Workspace, adapter *httpcontext.Adapter, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{
		baseHandler: newBaseHandler(adapter, logger),
		workspace:   workspace,
	}
}

// @Summary List tasks as a hierarchy
// @Tags tasks
// @Router /api/v1/projects/{projectID}/tasks [get]
func (h *TaskHandler) GetTasks(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, ok := h.projectID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.TaskView(stdCtx, userID, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, coord.Hierarchy())
}

// @Summary Create task
// @Tags tasks
// @Router /api/v1/projects/{projectID}/tasks [post]
func (h *TaskHandler) CreateTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, ok := h.projectID(ctx)
	if !ok {
		return
	}

	var req transport.TaskCreateRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "invalid payload", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.TaskView(stdCtx, userID, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	created, err := coord.Create(stdCtx, req.Title, req.Description, req.ParentID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Delete task and all of its subtasks
// @Tags tasks
// @Router /api/v1/projects/{projectID}/tasks/{id} [delete]
func (h *TaskHandler) DeleteTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, ok := h.projectID(ctx)
	if !ok {
		return
	}
	taskID, _ := ctx.UserValue("id").(string)
	if taskID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.TaskView(stdCtx, userID, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := coord.Delete(stdCtx, taskID); err != nil {
		h.respondError(ctx, err)
		return
	}
	ctx.SetStatusCode(http.StatusNoContent)
}

// @Summary Toggle completion, cascading to all subtasks
// @Tags tasks
// @Router /api/v1/projects/{projectID}/tasks/{id}/toggle [post]
func (h *TaskHandler) ToggleTask(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, ok := h.projectID(ctx)
	if !ok {
		return
	}
	taskID, _ := ctx.UserValue("id").(string)
	if taskID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing task id", nil))
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.TaskView(stdCtx, userID, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}

	if err := coord.Toggle(stdCtx, taskID); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, coord.Hierarchy())
}

// @Summary Recent mutation journal for a project view
// @Tags tasks
// @Router /api/v1/projects/{projectID}/mutations [get]
func (h *TaskHandler) GetMutations(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	projectID, ok := h.projectID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	coord, err := h.workspace.TaskView(stdCtx, userID, projectID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, coord.Journal().Recent())
}

func (h *TaskHandler) projectID(ctx *fasthttp.RequestCtx) (string, bool) {
	projectID, _ := ctx.UserValue("projectID").(string)
	if projectID == "" {
		h.respondJSON(ctx, http.StatusBadRequest, transport.NewError(string(domain.ErrCodeInvalid), "missing project id", nil))
		return "", false
	}
	return projectID, true
}
