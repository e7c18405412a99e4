// utils/auth.go
package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const (
	ContextAccountID = "accountId"
	ContextEmail     = "email"
)

// RandomToken returns a URL-safe random token of n bytes of entropy.
func RandomToken(n int) (string, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(key), nil
}

// HashToken hashes a one-time token for storage.
func HashToken(token string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckTokenHash compares a presented token with its stored hash.
func CheckTokenHash(token, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(token))
	return err == nil
}

// GenerateToken signs a token shaped like the ones issued by the hosted auth
// provider. Used by tests and local tooling.
func GenerateToken(accountID uuid.UUID, email, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.New("JWT secret not set")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   accountID.String(),
		"email": email,
		"aud":   "authenticated",
		"exp":   now.Add(ttl).Unix(),
		"iat":   now.Unix(),
	})
	return token.SignedString([]byte(secret))
}

// AuthMiddleware verifies the bearer token issued by the hosted auth provider
// and stores the account identity on the request context.
func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			RespondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authentication is not configured")
			return
		}

		tokenString := c.GetHeader("Authorization")
		if tokenString == "" {
			RespondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Authorization header required")
			return
		}
		if len(tokenString) > 7 && strings.EqualFold(tokenString[0:6], "bearer") {
			tokenString = tokenString[7:]
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, errors.New("unexpected signing method")
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			RespondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			RespondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token claims")
			return
		}
		sub, _ := claims["sub"].(string)
		accountID, err := uuid.Parse(sub)
		if err != nil {
			RespondWithError(c, http.StatusUnauthorized, ErrCodeUnauthorized, "Invalid token subject")
			return
		}
		email, _ := claims["email"].(string)

		c.Set(ContextAccountID, accountID)
		c.Set(ContextEmail, email)
		c.Next()
	}
}

// AccountID returns the authenticated account stored by AuthMiddleware.
func AccountID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(ContextAccountID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
