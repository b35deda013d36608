package task

import (
	"context"
	"io"
	"net/http"

	"todoapp/dto"
	"todoapp/middleware"
	"todoapp/model"
	"todoapp/session"
	"todoapp/viewmodel"

	"github.com/gin-gonic/gin"
)

func TaskController(router *gin.Engine, registry *viewmodel.Registry) {
	routes := router.Group("/tasks", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListTasks(c, registry)
		})
		routes.GET("/stream", func(c *gin.Context) {
			StreamTasks(c, registry)
		})
		routes.POST("", func(c *gin.Context) {
			AddTask(c, registry)
		})
		routes.PUT("/:id", func(c *gin.Context) {
			EditTask(c, registry)
		})
		routes.PUT("/:id/toggle", func(c *gin.Context) {
			ToggleTask(c, registry)
		})
		routes.DELETE("/:id", func(c *gin.Context) {
			DeleteTask(c, registry)
		})
	}
	router.PUT("/settings/filter", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		SetFilter(c, registry)
	})
}

func identityFrom(c *gin.Context) session.Identity {
	id := session.Identity{UserID: c.MustGet("userId").(string)}
	if email, ok := c.Get("email"); ok {
		id.Email, _ = email.(string)
	}
	return id
}

func acquire(c *gin.Context, registry *viewmodel.Registry) *viewmodel.TaskViewModel {
	vm, err := registry.ForUser(identityFrom(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	return vm
}

func toResponses(tasks []model.Task) []dto.TaskResponse {
	resp := make([]dto.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, dto.TaskResponse{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			DueDate:   t.DueDate,
		})
	}
	return resp
}

func ListTasks(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	// An absent param clears the term, so one request's search never
	// leaks into the next.
	vm.SetSearch(c.Query("search"))

	c.JSON(http.StatusOK, gin.H{
		"filter": vm.Filter(),
		"search": vm.Search(),
		"tasks":  toResponses(vm.Tasks()),
	})
}

// StreamTasks pushes the derived list over SSE: once on connect, then on
// every change, until the client goes away or the subscription dies.
func StreamTasks(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	vm.SetSearch(c.Query("search"))

	updates := make(chan struct{}, 1)
	release := vm.OnChange(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer release()

	// Prime one event so the client gets the current list immediately. A
	// snapshot may already have filled the buffer since the listener was
	// registered, so this must not block.
	select {
	case updates <- struct{}{}:
	default:
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-updates:
			if err := vm.Err(); err != nil {
				c.SSEvent("error", gin.H{"error": err.Error()})
				return false
			}
			c.SSEvent("tasks", gin.H{
				"filter": vm.Filter(),
				"tasks":  toResponses(vm.Tasks()),
			})
			return true
		}
	})
}

func AddTask(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	var request dto.AddTaskRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := vm.Add(context.Background(), request.Text, request.DueDate); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully"})
}

func ToggleTask(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	t, ok := vm.Get(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	if err := vm.Toggle(context.Background(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}

func EditTask(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	t, ok := vm.Get(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	var request dto.EditTaskRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := vm.Edit(context.Background(), t, request.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task updated successfully"})
}

func DeleteTask(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	t, ok := vm.Get(c.Param("id"))
	if !ok {
		c.JSON(404, gin.H{"error": "Task not found"})
		return
	}

	if err := vm.Delete(context.Background(), t); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete task"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

func SetFilter(c *gin.Context, registry *viewmodel.Registry) {
	vm := acquire(c, registry)
	if vm == nil {
		return
	}
	var request dto.SetFilterRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	if err := vm.SetFilter(context.Background(), request.Filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"filter": vm.Filter()})
}
