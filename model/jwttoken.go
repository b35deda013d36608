package model

import "github.com/golang-jwt/jwt/v5"

type TokenRecord struct {
	UserID       string `firestore:"userId"`
	RefreshToken string `firestore:"refreshToken"` // bcrypt hash, never the raw token
	CreatedAt    int64  `firestore:"createdAt"`    // creation time in seconds
	Revoked      bool   `firestore:"revoked"`
	ExpiresIn    int64  `firestore:"expiresIn"` // expiration in seconds
}

type AccessClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

type RefreshClaims struct {
	UserID string `json:"userId"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
