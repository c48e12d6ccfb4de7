// auth.go - JWT authentication and admin authorization middleware
//
// authenticate validates the bearer token and stores the caller's id,
// login and role claims in the request context; it never advances the
// handler chain itself, so AdminMiddleware can run its role check before
// any downstream handler executes. AdminMiddleware re-verifies the admin
// role against the database rather than trusting the token alone, so a
// stale token cannot keep admin rights the database has lost.

package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"go-voting-backend/config"
	"go-voting-backend/database"
	"go-voting-backend/models"
)

// AuthMiddleware returns a Gin middleware validating the JWT bearer token.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}
		c.Next()
	}
}

// AdminMiddleware returns a Gin middleware allowing only admin users. The
// downstream handler runs only after both the token and the database role
// check pass.
func AdminMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !authenticate(c) {
			return
		}

		user, ok := ContextUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "user not found"})
			return
		}

		// Token role is advisory; the database decides.
		if !user.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"success": false, "message": "administration rights required"})
			return
		}

		c.Next()
	}
}

// authenticate validates the bearer token and stores its claims on the
// context. On failure it aborts with 401 and returns false.
func authenticate(c *gin.Context) bool {
	header := c.GetHeader("Authorization")
	if header == "" || !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "missing or invalid token"})
		return false
	}

	tokenStr := strings.TrimPrefix(header, "Bearer ")
	cfg := config.Load()
	token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
		return []byte(cfg.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "invalid token"})
		return false
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok {
		if userID, exists := claims["user_id"]; exists {
			c.Set("user_id", userID)
		}
		if userid, exists := claims["userid"]; exists {
			c.Set("userid", userid)
		}
		if role, exists := claims["role"]; exists {
			c.Set("role", role)
		}
	}

	return true
}

// ContextUser re-resolves the authenticated caller to a current User row.
// Returns false when the token carries no usable id or the row is gone.
func ContextUser(c *gin.Context) (*models.User, bool) {
	raw, exists := c.Get("user_id")
	if !exists {
		return nil, false
	}
	id, ok := raw.(float64) // JWT numbers decode as float64
	if !ok {
		return nil, false
	}

	var user models.User
	if err := database.DB.First(&user, uint(id)).Error; err != nil {
		return nil, false
	}
	return &user, true
}
