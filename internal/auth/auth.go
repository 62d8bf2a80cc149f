package auth

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"astrowell_go_backend/internal/models"
	"astrowell_go_backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const UserContextKey = "user"

func secret() []byte {
	return []byte(os.Getenv("SESSION_JWT_SECRET"))
}

// IssueToken signs a bearer token for a freshly established session.
// The token only names the identity; the stored user record stays the
// source of truth, so signing out invalidates outstanding tokens.
func IssueToken(user models.User, ttl time.Duration) (string, error) {
	claims := jwt.MapClaims{
		"sub":  user.Email,
		"name": user.DisplayName,
		"iat":  time.Now().Unix(),
		"exp":  time.Now().Add(ttl).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(secret())
}

// AuthMiddleware verifies the bearer token and checks it against the
// persisted user record. WebSocket handshakes cannot set headers, so
// a token query parameter is accepted as a fallback.
func AuthMiddleware(sessions services.SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		claims, err := verifyToken(tokenString)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		email, _ := claims["sub"].(string)
		session, err := sessions.RestoreSession(time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to restore session"})
			c.Abort()
			return
		}
		if session == nil || session.User.Email != email {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "No active session"})
			c.Abort()
			return
		}

		c.Set(UserContextKey, &session.User)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
		return ""
	}
	return c.Query("token")
}

func verifyToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret(), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}
