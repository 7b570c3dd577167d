package middleware

import (
	"context"
	"errors"

	"github.com/golang-jwt/jwt/v4"

	"github.com/anonto42/campus-notices/backend/internal/models"
)

var (
	errUnexpectedSigningMethod = errors.New("unexpected signing method")
	errInvalidToken            = errors.New("invalid token")
)

// JWTVerifier accepts HMAC-signed tokens carrying JwtCustomClaims.
type JWTVerifier struct {
	secret []byte
}

func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

func (v *JWTVerifier) Verify(_ context.Context, tokenString string) (*models.Actor, error) {
	claims := &models.JwtCustomClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errUnexpectedSigningMethod
		}
		return v.secret, nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid || claims.UserID == 0 {
		return nil, errInvalidToken
	}
	return &models.Actor{ID: claims.UserID, Email: claims.Email, Role: claims.Role}, nil
}
