package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/tasknest/backend/api/handler"
)

type Handlers struct {
	Project *apiHandler.ProjectHandler
	Task    *apiHandler.TaskHandler
	Health  *apiHandler.HealthHandler
}

func New(handlers Handlers, authMiddleware func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/api/v1/projects", authMiddleware(handlers.Project.GetProjects))
	r.POST("/api/v1/projects", authMiddleware(handlers.Project.CreateProject))
	r.PUT("/api/v1/projects/{id}", authMiddleware(handlers.Project.UpdateProject))
	r.DELETE("/api/v1/projects/{id}", authMiddleware(handlers.Project.DeleteProject))

	r.GET("/api/v1/projects/{projectID}/tasks", authMiddleware(handlers.Task.GetTasks))
	r.POST("/api/v1/projects/{projectID}/tasks", authMiddleware(handlers.Task.CreateTask))
	r.DELETE("/api/v1/projects/{projectID}/tasks/{id}", authMiddleware(handlers.Task.DeleteTask))
	r.POST("/api/v1/projects/{projectID}/tasks/{id}/toggle", authMiddleware(handlers.Task.ToggleTask))
	r.GET("/api/v1/projects/{projectID}/mutations", authMiddleware(handlers.Task.GetMutations))

	return r
}
