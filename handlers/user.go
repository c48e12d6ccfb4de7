// user.go - Authenticated user actions

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ApplyVoter files the caller's application to become a voter.
func ApplyVoter(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	app, err := Coord.ApplyToBeVoter(c.Request.Context(), user)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success":     true,
		"message":     "voter application submitted successfully",
		"application": app,
	})
}
