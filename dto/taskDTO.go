package dto

type AddTaskRequest struct {
	Text    string `json:"text" binding:"required"`
	DueDate string `json:"dueDate"`
}

type EditTaskRequest struct {
	Text string `json:"text" binding:"required"`
}

type SetFilterRequest struct {
	Filter string `json:"filter" binding:"required"`
}

type AddCommentRequest struct {
	Text string `json:"text" binding:"required"`
}

type TaskResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	DueDate   string `json:"dueDate"`
}

type CommentResponse struct {
	ID        string `json:"id"`
	Author    string `json:"uid"`
	Text      string `json:"text"`
	CreatedAt string `json:"createdAt"`
}
