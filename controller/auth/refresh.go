package auth

import (
	"context"
	"net/http"

	"todoapp/middleware"
	"todoapp/model"
	"todoapp/services"

	"cloud.google.com/go/firestore"
	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func RefreshTokenController(router *gin.Engine, firestoreClient *firestore.Client) {
	router.POST("/auth/refresh", middleware.RefreshTokenMiddleware(), func(c *gin.Context) {
		Refresh(c, firestoreClient)
	})
}

// Refresh issues a new access token after checking the presented refresh
// token against the stored hash.
func Refresh(c *gin.Context, firestoreClient *firestore.Client) {
	userID := c.MustGet("userId").(string)
	refreshToken := c.MustGet("refreshToken").(string)

	ctx := context.Background()
	doc, err := firestoreClient.Collection("refreshTokens").Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load refresh token"})
		return
	}

	var record model.TokenRecord
	if err := doc.DataTo(&record); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to parse refresh token record"})
		return
	}
	if record.Revoked {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token is revoked"})
		return
	}
	if err := services.CompareRefreshToken(record.RefreshToken, refreshToken); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Refresh token mismatch"})
		return
	}

	// The account may have been deleted since the refresh token was issued;
	// confirm it still exists before minting a new access token.
	user, err := services.GetUserByID(ctx, firestoreClient, userID)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not found"})
		return
	}

	accessToken, err := services.CreateAccessToken(userID, user.Email)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create access token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": gin.H{"accessToken": accessToken},
	})
}
