package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorCase pairs a sentinel error with the status and client message it
// maps to.
type ErrorCase struct {
	Err     error
	Status  int
	Message string
}

// RespondWithMappedError writes the first matching case's response, or the
// fallback when the error matches none. Unmatched errors are the unexpected
// ones, so the fallback is normally a 500 with a generic message.
func RespondWithMappedError(c *gin.Context, err error, cases []ErrorCase, fallbackStatus int, fallbackMessage string) {
	status, message := fallbackStatus, fallbackMessage
	for _, cs := range cases {
		if cs.Err != nil && errors.Is(err, cs.Err) {
			status, message = cs.Status, cs.Message
			break
		}
	}
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, NewErrorResponse(c, message))
}
