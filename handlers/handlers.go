// handlers.go - Shared handler wiring and response helpers

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-voting-backend/coordinator"
	"go-voting-backend/middleware"
	"go-voting-backend/models"
)

// Coord is the process-wide action coordinator, wired at startup.
var Coord *coordinator.Coordinator

// Setup installs the coordinator used by all handlers.
func Setup(coord *coordinator.Coordinator) {
	Coord = coord
}

// fail writes a coordinator error as the standard failure envelope. The
// transaction hash is included whenever one was submitted, so indeterminate
// and failed outcomes stay reconcilable from the response alone.
func fail(c *gin.Context, err *coordinator.Error) {
	body := gin.H{
		"success": false,
		"message": err.Message,
		"kind":    string(err.Kind),
	}
	if err.TxHash != "" {
		body["txHash"] = err.TxHash
	}
	c.JSON(err.HTTPStatus(), body)
}

// currentUser resolves the authenticated caller, replying 404 when the
// token no longer maps to a user row.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := middleware.ContextUser(c)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "authenticated user not found"})
		return nil, false
	}
	return user, true
}
