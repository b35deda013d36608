package task

import (
	"context"
	"io"
	"net/http"
	"time"

	"todoapp/dto"
	"todoapp/feed"
	"todoapp/middleware"
	"todoapp/model"
	"todoapp/session"
	"todoapp/viewmodel"

	"github.com/gin-gonic/gin"
)

func CommentController(router *gin.Engine, f feed.Feed) {
	routes := router.Group("/tasks/:id/comments", middleware.AccessTokenMiddleware())
	{
		routes.GET("", func(c *gin.Context) {
			ListComments(c, f)
		})
		routes.GET("/stream", func(c *gin.Context) {
			StreamComments(c, f)
		})
		routes.POST("", func(c *gin.Context) {
			AddComment(c, f)
		})
	}
}

func toCommentResponses(comments []model.Comment) []dto.CommentResponse {
	resp := make([]dto.CommentResponse, 0, len(comments))
	for _, cm := range comments {
		resp = append(resp, dto.CommentResponse{
			ID:        cm.ID,
			Author:    cm.Author,
			Text:      cm.Text,
			CreatedAt: cm.CreatedAt.Format(time.RFC3339),
		})
	}
	return resp
}

// ListComments reads the thread through a short-lived view-model: activate,
// take the initial snapshot, release.
func ListComments(c *gin.Context, f feed.Feed) {
	vm := viewmodel.NewCommentViewModel(f, session.NewStatic(identityFrom(c)), c.Param("id"))
	if err := vm.Activate(context.Background()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer vm.Deactivate()

	c.JSON(http.StatusOK, gin.H{"comments": toCommentResponses(vm.Comments())})
}

func StreamComments(c *gin.Context, f feed.Feed) {
	vm := viewmodel.NewCommentViewModel(f, session.NewStatic(identityFrom(c)), c.Param("id"))
	if err := vm.Activate(context.Background()); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	defer vm.Deactivate()

	updates := make(chan struct{}, 1)
	release := vm.OnChange(func() {
		select {
		case updates <- struct{}{}:
		default:
		}
	})
	defer release()

	select {
	case updates <- struct{}{}:
	default:
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case <-updates:
			c.SSEvent("comments", gin.H{"comments": toCommentResponses(vm.Comments())})
			return true
		}
	})
}

func AddComment(c *gin.Context, f feed.Feed) {
	var request dto.AddCommentRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}

	vm := viewmodel.NewCommentViewModel(f, session.NewStatic(identityFrom(c)), c.Param("id"))
	if err := vm.Append(context.Background(), request.Text); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create comment"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"message": "Comment created successfully"})
}
