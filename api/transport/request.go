package transport

type TaskCreateRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	ParentID    *string `json:"parent_id"`
}

type ProjectCreateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type ProjectUpdateRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
