package auth

import (
	"context"
	"net/http"

	"todoapp/middleware"
	"todoapp/viewmodel"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
)

func SignOutController(router *gin.Engine, firestoreClient *firestore.Client, registry *viewmodel.Registry) {
	router.POST("/auth/signout", middleware.AccessTokenMiddleware(), func(c *gin.Context) {
		Signout(c, firestoreClient, registry)
	})
}

// Signout revokes the stored refresh token and drops the caller's live
// view-model, releasing its subscription.
func Signout(c *gin.Context, firestoreClient *firestore.Client, registry *viewmodel.Registry) {
	userID := c.MustGet("userId").(string)

	ctx := context.Background()
	update := map[string]interface{}{"revoked": true}
	if _, err := firestoreClient.Collection("refreshTokens").Doc(userID).Set(ctx, update, firestore.MergeAll); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to revoke refresh token"})
		return
	}

	registry.Drop(userID)

	c.JSON(http.StatusOK, gin.H{"message": "Signed out"})
}
