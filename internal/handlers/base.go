package handlers

import (
	"errors"
	"log"
	"net/http"

	"pagenotes/internal/middleware"
	"pagenotes/internal/services"

	"github.com/gin-gonic/gin"
)

// statusFor maps a core error kind to its HTTP status.
func statusFor(kind services.Kind) int {
	switch kind {
	case services.KindValidation:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	case services.KindCollaborator:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// respondError is the only place core errors become HTTP responses.
func respondError(c *gin.Context, err error) {
	kind := services.KindOf(err)
	status := statusFor(kind)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}

	message := err.Error()
	var coreErr *services.Error
	if errors.As(err, &coreErr) && coreErr.Message != "" {
		message = coreErr.Message
	}
	code := kind.String()
	if kind == 0 {
		code = "internal"
		message = "internal error"
	}
	c.JSON(status, gin.H{"error": message, "code": code})
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message, "code": services.KindValidation.String()})
}

// actor is the authenticated caller. Routes using it sit behind AuthRequired.
func actor(c *gin.Context) services.Actor {
	user := middleware.CurrentUser(c)
	if user == nil {
		return services.Actor{}
	}
	return services.Actor{ID: user.ID, Username: user.Username}
}
